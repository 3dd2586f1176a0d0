package source

import (
	"context"
	"testing"

	"WorkflowRadar/internal/config"
	"WorkflowRadar/internal/domain"
	"WorkflowRadar/internal/logging"
)

func trendsTestConfig() config.TrendsConfig {
	return config.TrendsConfig{
		VolumeMultipliers: map[string]float64{"US": 1.0, "IN": 0.6},
	}
}

func TestTrendFetchScalesVolumeByCountry(t *testing.T) {
	t.Parallel()

	adapter := NewTrendAdapter(trendsTestConfig(), logging.Discard())

	us, err := adapter.Fetch(context.Background(), domain.Scope{Country: domain.CountryUS})
	if err != nil {
		t.Fatalf("us fetch: %v", err)
	}
	in, err := adapter.Fetch(context.Background(), domain.Scope{Country: domain.CountryIN})
	if err != nil {
		t.Fatalf("in fetch: %v", err)
	}

	if len(us) == 0 || len(us) != len(in) {
		t.Fatalf("expected identical keyword coverage, got %d vs %d", len(us), len(in))
	}

	for i := range us {
		want := int64(float64(us[i].SearchVolume) * 0.6)
		if in[i].SearchVolume != want {
			t.Fatalf("keyword %s: expected IN volume %d, got %d",
				us[i].Title, want, in[i].SearchVolume)
		}
		if us[i].Platform != domain.PlatformTrend {
			t.Fatalf("unexpected platform: %s", us[i].Platform)
		}
	}
}

func TestTrendFetchHonorsContext(t *testing.T) {
	t.Parallel()

	adapter := NewTrendAdapter(trendsTestConfig(), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := adapter.Fetch(ctx, domain.Scope{Country: domain.CountryUS}); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestTrendFetchDeterministic(t *testing.T) {
	t.Parallel()

	adapter := NewTrendAdapter(trendsTestConfig(), logging.Discard())

	first, _ := adapter.Fetch(context.Background(), domain.Scope{Country: domain.CountryUS})
	second, _ := adapter.Fetch(context.Background(), domain.Scope{Country: domain.CountryUS})

	if len(first) != len(second) {
		t.Fatalf("unstable record count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("record %d differs between fetches", i)
		}
	}
}
