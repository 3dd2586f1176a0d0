// Package httpapi serves the read-only query surface plus the on-demand
// sync trigger. Read handlers only ever touch the currently installed
// snapshot; they never block on or start a collection cycle.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"WorkflowRadar/internal/aggregate"
	"WorkflowRadar/internal/domain"
	"WorkflowRadar/internal/export"
	"WorkflowRadar/internal/ports"
	"WorkflowRadar/internal/source"
)

// Server exposes the query service over HTTP.
type Server struct {
	snapshots ports.SnapshotReader
	trigger   ports.Trigger
	sink      *export.Sink
	keyStatus func() source.KeyRingStatus
	state     func() aggregate.State
	logger    *slog.Logger
}

// New wires the handler dependencies. keyStatus and state may be nil in
// tests; the related endpoints then omit those sections.
func New(snapshots ports.SnapshotReader, trigger ports.Trigger, sink *export.Sink,
	keyStatus func() source.KeyRingStatus, state func() aggregate.State, logger *slog.Logger) *Server {
	return &Server{
		snapshots: snapshots,
		trigger:   trigger,
		sink:      sink,
		keyStatus: keyStatus,
		state:     state,
		logger:    logger,
	}
}

// Handler builds the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/workflows", s.handleWorkflows)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/sync", s.handleSync)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /keep-alive", s.handleKeepAlive)
	return s.logRequests(mux)
}

type workflowsResponse struct {
	TotalWorkflows int                       `json:"total_workflows"`
	Data           []domain.PopularityRecord `json:"data"`
	LastSync       string                    `json:"last_sync"`
	Platforms      map[domain.Platform]int   `json:"platforms"`
	Countries      map[domain.Country]int    `json:"countries"`
}

func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Load()

	platform := r.URL.Query().Get("platform")
	country := r.URL.Query().Get("country")

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	records := filterRecords(snap.Records, platform, country, limit)

	writeJSON(w, http.StatusOK, workflowsResponse{
		TotalWorkflows: len(records),
		Data:           records,
		LastSync:       formatSync(snap.LastSync),
		Platforms:      snap.CountsByPlatform,
		Countries:      snap.CountsByCountry,
	})
}

// filterRecords preserves the snapshot's descending-score order.
func filterRecords(records []domain.PopularityRecord, platform, country string, limit int) []domain.PopularityRecord {
	out := make([]domain.PopularityRecord, 0, len(records))
	for _, rec := range records {
		if platform != "" && !strings.EqualFold(string(rec.Platform), platform) {
			continue
		}
		if country != "" && !strings.EqualFold(string(rec.Country), country) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

type platformStats struct {
	Count         int     `json:"count"`
	TotalViews    int64   `json:"total_views"`
	AvgEngagement float64 `json:"avg_engagement"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Load()

	byPlatform := make(map[domain.Platform]*platformStats)
	for _, rec := range snap.Records {
		st, ok := byPlatform[rec.Platform]
		if !ok {
			st = &platformStats{}
			byPlatform[rec.Platform] = st
		}
		st.Count++
		st.TotalViews += rec.Metrics.Views
		st.AvgEngagement += rec.EngagementScore
	}
	for _, st := range byPlatform {
		if st.Count > 0 {
			st.AvgEngagement = math.Round(st.AvgEngagement/float64(st.Count)*100) / 100
		}
	}

	resp := map[string]any{
		"total_workflows": len(snap.Records),
		"last_sync":       formatSync(snap.LastSync),
		"platforms":       byPlatform,
		"countries":       snap.CountsByCountry,
		"top_workflow":    snap.TopTitle(),
	}
	if s.keyStatus != nil {
		resp["video_api_status"] = s.keyStatus()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	// The cycle outlives this request; detach it from the request context
	// but keep any request-scoped values for tracing.
	err := s.trigger.Kick(context.WithoutCancel(r.Context()))
	if errors.Is(err, aggregate.ErrCycleInProgress) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"status": "rejected",
			"reason": "aggregation already in progress",
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Load()
	if len(snap.Records) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no workflows available"})
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}

	var (
		path string
		err  error
	)
	switch format {
	case "json":
		path, err = s.sink.WriteJSON(snap)
	case "txt":
		path, err = s.sink.WriteText(snap)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid format, use 'json' or 'txt'"})
		return
	}
	if err != nil {
		s.logger.Error("export failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Load()

	resp := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"workflows": map[string]any{
			"total":     len(snap.Records),
			"last_sync": formatSync(snap.LastSync),
		},
	}
	if s.state != nil {
		resp["cycle_state"] = s.state()
	}
	if s.keyStatus != nil {
		resp["video_api_status"] = s.keyStatus()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleKeepAlive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"workflows": len(s.snapshots.Load().Records),
	})
}

func formatSync(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
