// Package export writes published snapshots to timestamped files in the
// data directory, both as the post-publish auto-save and on demand from the
// export endpoint.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"WorkflowRadar/internal/domain"
)

const timestampLayout = "20060102_150405"

// Sink owns the output directory.
type Sink struct {
	dir    string
	logger *slog.Logger
}

// NewSink creates the data directory if needed.
func NewSink(dir string, logger *slog.Logger) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Sink{dir: dir, logger: logger}, nil
}

// document is the JSON export envelope.
type document struct {
	TotalWorkflows int                       `json:"total_workflows"`
	ExportDate     time.Time                 `json:"export_date"`
	LastSync       time.Time                 `json:"last_sync"`
	CycleID        string                    `json:"cycle_id,omitempty"`
	DataSources    []domain.Platform         `json:"data_sources"`
	Countries      map[domain.Country]int    `json:"countries"`
	Workflows      []domain.PopularityRecord `json:"workflows"`
}

// WriteJSON saves the snapshot as an indented JSON document and returns the
// written path.
func (s *Sink) WriteJSON(snap *domain.Snapshot) (string, error) {
	doc := document{
		TotalWorkflows: len(snap.Records),
		ExportDate:     time.Now().UTC(),
		LastSync:       snap.LastSync,
		CycleID:        snap.CycleID,
		DataSources:    domain.KnownPlatforms,
		Countries:      snap.CountsByCountry,
		Workflows:      snap.Records,
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("workflows_%s.json", time.Now().UTC().Format(timestampLayout)))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// WriteText saves a human-readable dump and returns the written path.
func (s *Sink) WriteText(snap *domain.Snapshot) (string, error) {
	var b strings.Builder
	rule := strings.Repeat("=", 80)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "WORKFLOW POPULARITY DATASET EXPORT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Total Workflows: %d\n", len(snap.Records))
	fmt.Fprintf(&b, "Last Sync: %s\n", snap.LastSync.Format(time.RFC3339))
	fmt.Fprintln(&b, rule)

	for i, r := range snap.Records {
		fmt.Fprintf(&b, "\n#%d %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "  Platform: %s  Country: %s\n", r.Platform, r.Country)
		if r.SourceURL != "" {
			fmt.Fprintf(&b, "  URL: %s\n", r.SourceURL)
		}
		fmt.Fprintf(&b, "  Views: %d  Likes: %d  Comments: %d  Replies: %d\n",
			r.Metrics.Views, r.Metrics.Likes, r.Metrics.Comments, r.Metrics.Replies)
		fmt.Fprintf(&b, "  Engagement: %.2f\n", r.EngagementScore)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("workflows_%s.txt", time.Now().UTC().Format(timestampLayout)))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// AutoSave is the coordinator's post-publish hook; failures are logged and
// never propagate into the cycle.
func (s *Sink) AutoSave(snap *domain.Snapshot) {
	path, err := s.WriteJSON(snap)
	if err != nil {
		s.logger.Error("auto-save failed", "error", err)
		return
	}
	s.logger.Info("auto-saved snapshot", "path", path)
}
