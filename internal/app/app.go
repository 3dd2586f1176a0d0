package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"WorkflowRadar/internal/aggregate"
	"WorkflowRadar/internal/config"
	"WorkflowRadar/internal/domain"
	"WorkflowRadar/internal/export"
	"WorkflowRadar/internal/httpapi"
	"WorkflowRadar/internal/logging"
	"WorkflowRadar/internal/scheduler"
	"WorkflowRadar/internal/source"
	"WorkflowRadar/internal/store"
)

// Application wires config to the pipeline, scheduler, and API server.
type Application struct {
	cfg         config.Config
	logger      *slog.Logger
	coordinator *aggregate.Coordinator
	daily       *scheduler.Daily
	server      *http.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	keys := source.NewKeyRing(cfg.Sources.Video.APIKeys)

	video := source.NewVideoAdapter(nil, cfg.Sources.Video, keys, baseLogger.With("component", "source.video"))
	forum := source.NewForumAdapter(nil, cfg.Sources.Forum, baseLogger.With("component", "source.forum"))
	trends := source.NewTrendAdapter(cfg.Sources.Trends, baseLogger.With("component", "source.trends"))
	github := source.NewGitHubAdapter(nil, cfg.Sources.GitHub, baseLogger.With("component", "source.github"))

	units := buildUnits(cfg, video, forum, trends, github)

	sink, err := export.NewSink(cfg.Export.DataDir, baseLogger.With("component", "export"))
	if err != nil {
		return nil, err
	}

	var onPublish func(*domain.Snapshot)
	if cfg.Export.AutoSave {
		onPublish = sink.AutoSave
	}

	snapshots := store.New()
	coordinator := aggregate.New(units, snapshots, cfg.Aggregation.CycleTimeout(),
		baseLogger.With("component", "coordinator"), onPublish)

	daily := scheduler.NewDaily(coordinator, cfg.Scheduler.Hour, cfg.Scheduler.Minute,
		cfg.Scheduler.Location(), baseLogger.With("component", "scheduler"), keys.Reset)

	api := httpapi.New(snapshots, coordinator, sink, keys.Status, coordinator.State,
		baseLogger.With("component", "http"))

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Application{
		cfg:         cfg,
		logger:      baseLogger,
		coordinator: coordinator,
		daily:       daily,
		server:      server,
	}, nil
}

// buildUnits composes the (adapter, scope) fan-out list. The video, trend,
// and repository sources are queried per configured country; the forum is
// country-agnostic and queried once, tagged with the first country for
// parity with the original dataset.
func buildUnits(cfg config.Config, video *source.VideoAdapter, forum *source.ForumAdapter,
	trends *source.TrendAdapter, github *source.GitHubAdapter) []aggregate.Unit {
	var units []aggregate.Unit

	for i, raw := range cfg.Countries {
		country := domain.Country(raw)

		units = append(units,
			aggregate.Unit{Adapter: video, Scope: domain.Scope{Country: country, Keywords: cfg.Sources.Video.Keywords}},
			aggregate.Unit{Adapter: trends, Scope: domain.Scope{Country: country}},
			aggregate.Unit{Adapter: github, Scope: domain.Scope{Country: country, Keywords: cfg.Sources.GitHub.Queries}},
		)

		if i == 0 {
			units = append(units, aggregate.Unit{Adapter: forum, Scope: domain.Scope{Country: country}})
		}
	}

	return units
}

// Run performs the initial collection, starts the scheduler and the API
// server, and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	// First population; readers see the empty snapshot until this lands.
	if err := a.coordinator.TryRun(ctx); err != nil {
		a.logger.Warn("initial cycle not started", "error", err)
	}

	if err := a.daily.Start(ctx); err != nil {
		return err
	}
	defer a.daily.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("api server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
