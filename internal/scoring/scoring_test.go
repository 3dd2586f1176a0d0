package scoring

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"WorkflowRadar/internal/domain"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeVideoRecord(t *testing.T) {
	t.Parallel()

	raw := domain.RawRecord{
		Title:    "Slack automation walkthrough",
		URL:      "https://youtube.com/watch?v=abc",
		Platform: domain.PlatformVideo,
		Country:  domain.CountryUS,
		Views:    18400,
		Likes:    920,
		Comments: 112,
	}

	rec, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}

	// ((920*2)+(112*3)) / 18400 * 1000 = 2176/18400*1000
	if rec.EngagementScore != 118.26 {
		t.Fatalf("expected score 118.26, got %v", rec.EngagementScore)
	}
	if rec.Metrics.LikeToViewRatio != 0.05 {
		t.Fatalf("expected like/view ratio 0.05, got %v", rec.Metrics.LikeToViewRatio)
	}
	if rec.Metrics.CommentToViewRatio != 0.0061 {
		t.Fatalf("expected comment/view ratio 0.0061, got %v", rec.Metrics.CommentToViewRatio)
	}
	if rec.LastUpdated != testNow {
		t.Fatalf("expected lastUpdated %v, got %v", testNow, rec.LastUpdated)
	}
}

func TestNormalizeForumRecord(t *testing.T) {
	t.Parallel()

	raw := domain.RawRecord{
		Title:    "Webhook retries best practice",
		Platform: domain.PlatformForum,
		Country:  domain.CountryUS,
		Views:    2500,
		Likes:    37,
		Replies:  48,
	}

	rec, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}

	// ((37*2)+(48*3)) / 2500 * 1000 = 218/2500*1000
	if rec.EngagementScore != 87.2 {
		t.Fatalf("expected score 87.2, got %v", rec.EngagementScore)
	}
}

func TestNormalizeTrendRecord(t *testing.T) {
	t.Parallel()

	raw := domain.RawRecord{
		Title:              "n8n ChatGPT integration",
		Platform:           domain.PlatformTrend,
		Country:            domain.CountryIN,
		SearchVolume:       4200,
		TrendChangePercent: 89.5,
	}

	rec, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}

	if rec.EngagementScore != 7959 {
		t.Fatalf("expected score 7959, got %v", rec.EngagementScore)
	}
}

func TestNormalizeZeroViews(t *testing.T) {
	t.Parallel()

	raw := domain.RawRecord{
		Title:    "Fresh topic",
		Platform: domain.PlatformForum,
		Likes:    10,
		Replies:  2,
	}

	rec, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}

	if rec.EngagementScore < 0 {
		t.Fatalf("score must be non-negative, got %v", rec.EngagementScore)
	}
	if rec.Metrics.LikeToViewRatio != 0 || rec.Metrics.CommentToViewRatio != 0 {
		t.Fatalf("ratios must be 0 without views, got %v/%v",
			rec.Metrics.LikeToViewRatio, rec.Metrics.CommentToViewRatio)
	}
}

func TestNormalizeClampsNegativeTrendScore(t *testing.T) {
	t.Parallel()

	raw := domain.RawRecord{
		Title:              "collapsing keyword",
		Platform:           domain.PlatformTrend,
		SearchVolume:       100,
		TrendChangePercent: -150,
	}

	rec, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	if rec.EngagementScore != 0 {
		t.Fatalf("expected clamped score 0, got %v", rec.EngagementScore)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	t.Parallel()

	raw := domain.RawRecord{
		Title:    "Repeatable",
		Platform: domain.PlatformVideo,
		Country:  domain.CountryUS,
		Views:    999,
		Likes:    33,
		Comments: 7,
	}

	first, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("first normalize: %v", err)
	}
	second, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("second normalize: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalize is not deterministic: %+v vs %+v", first, second)
	}
}

func TestNormalizeMalformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  domain.RawRecord
	}{
		{"empty title", domain.RawRecord{Platform: domain.PlatformVideo}},
		{"unknown platform", domain.RawRecord{Title: "x", Platform: "MySpace"}},
		{"negative views", domain.RawRecord{Title: "x", Platform: domain.PlatformVideo, Views: -1}},
		{"negative likes", domain.RawRecord{Title: "x", Platform: domain.PlatformForum, Likes: -5}},
	}

	for _, tc := range cases {
		if _, err := Normalize(tc.raw, testNow); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", tc.name, err)
		}
	}
}

func TestNormalizeDefaultsCountry(t *testing.T) {
	t.Parallel()

	raw := domain.RawRecord{Title: "x", Platform: domain.PlatformForum, Views: 100}
	rec, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	if rec.Country != domain.CountryUnspecified {
		t.Fatalf("expected unspecified country, got %s", rec.Country)
	}
}
