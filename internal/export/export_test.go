package export

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"WorkflowRadar/internal/domain"
	"WorkflowRadar/internal/logging"
)

func sampleSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		CycleID:  "cycle-1",
		LastSync: time.Date(2026, time.March, 1, 2, 0, 0, 0, time.UTC),
		Records: []domain.PopularityRecord{
			{
				Title:           "Slack automation walkthrough",
				Platform:        domain.PlatformVideo,
				Country:         domain.CountryUS,
				Metrics:         domain.Metrics{Views: 18400, Likes: 920, Comments: 112},
				EngagementScore: 118.26,
			},
		},
		CountsByPlatform: map[domain.Platform]int{domain.PlatformVideo: 1},
		CountsByCountry:  map[domain.Country]int{domain.CountryUS: 1},
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	sink, err := NewSink(t.TempDir(), logging.Discard())
	if err != nil {
		t.Fatalf("sink: %v", err)
	}

	path, err := sink.WriteJSON(sampleSnapshot())
	if err != nil {
		t.Fatalf("write json: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	var doc struct {
		TotalWorkflows int    `json:"total_workflows"`
		CycleID        string `json:"cycle_id"`
		Workflows      []struct {
			Workflow string `json:"workflow"`
		} `json:"workflows"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if doc.TotalWorkflows != 1 || doc.CycleID != "cycle-1" {
		t.Fatalf("unexpected envelope: %+v", doc)
	}
	if doc.Workflows[0].Workflow != "Slack automation walkthrough" {
		t.Fatalf("unexpected workflow: %+v", doc.Workflows[0])
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	sink, err := NewSink(t.TempDir(), logging.Discard())
	if err != nil {
		t.Fatalf("sink: %v", err)
	}

	path, err := sink.WriteText(sampleSnapshot())
	if err != nil {
		t.Fatalf("write text: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	content := string(raw)
	if !strings.Contains(content, "Slack automation walkthrough") {
		t.Fatal("text export missing record title")
	}
	if !strings.Contains(content, "Engagement: 118.26") {
		t.Fatal("text export missing engagement score")
	}
}

func TestAutoSaveSwallowsFailures(t *testing.T) {
	t.Parallel()

	sink, err := NewSink(t.TempDir(), logging.Discard())
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	// Point the sink at a path that cannot be written to.
	sink.dir = string([]byte{0})

	// Must not panic.
	sink.AutoSave(sampleSnapshot())
}
