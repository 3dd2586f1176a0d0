package source

import (
	"context"
	"log/slog"

	"WorkflowRadar/internal/config"
	"WorkflowRadar/internal/domain"
	"WorkflowRadar/internal/ports"
)

// trendEntry is one keyword in the simulated trend table: monthly search
// volume plus percent change over the trailing window.
type trendEntry struct {
	Keyword       string
	Volume        int64
	ChangePercent float64
}

// trendTable stands in for a production trends API. The adapter contract is
// identical either way, so swapping in a live provider only replaces the
// lookup below.
var trendTable = []trendEntry{
	{"n8n ChatGPT integration", 4200, 89.5},
	{"n8n Slack integration", 3600, 42.5},
	{"n8n OpenAI workflow", 3100, 76.3},
	{"n8n Gmail automation", 2800, 35.2},
	{"n8n Google Sheets sync", 2400, 28.7},
	{"n8n Webhook automation", 2100, 15.3},
	{"n8n Discord bot", 1900, 51.2},
	{"n8n Notion integration", 1750, 44.8},
	{"n8n Airtable workflow", 1600, 22.1},
	{"n8n API automation", 1500, 18.9},
	{"n8n WhatsApp automation", 1400, 31.4},
	{"n8n Instagram automation", 1350, 25.6},
	{"n8n Twitter bot", 1200, 12.8},
	{"n8n MongoDB integration", 980, 19.7},
	{"n8n PostgreSQL workflow", 890, 14.2},
}

// TrendAdapter serves search-trend records for one country, scaling volumes
// by the configured per-country multiplier.
type TrendAdapter struct {
	cfg    config.TrendsConfig
	logger *slog.Logger
}

var _ ports.SourceAdapter = (*TrendAdapter)(nil)

// NewTrendAdapter builds the adapter over the static table.
func NewTrendAdapter(cfg config.TrendsConfig, logger *slog.Logger) *TrendAdapter {
	return &TrendAdapter{cfg: cfg, logger: logger}
}

// Name identifies the adapter's platform tag.
func (a *TrendAdapter) Name() domain.Platform { return domain.PlatformTrend }

// Fetch emits one record per tracked keyword. The simulated provider cannot
// fail, but the context is still honored so a cycle timeout cuts it off.
func (a *TrendAdapter) Fetch(ctx context.Context, scope domain.Scope) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchErr(a.Name(), err)
	}

	multiplier := 1.0
	if m, ok := a.cfg.VolumeMultipliers[string(scope.Country)]; ok && m > 0 {
		multiplier = m
	}

	records := make([]domain.RawRecord, 0, len(trendTable))
	for _, entry := range trendTable {
		records = append(records, domain.RawRecord{
			Title:              entry.Keyword,
			Platform:           domain.PlatformTrend,
			Country:            scope.Country,
			SearchVolume:       int64(float64(entry.Volume) * multiplier),
			TrendChangePercent: entry.ChangePercent,
		})
	}

	a.logger.Info("trend fetch done", "country", scope.Country, "records", len(records))
	return records, nil
}
