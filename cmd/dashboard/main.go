package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "epidash/docs"
	"epidash/internal/api"
	"epidash/internal/api/handler"
	"epidash/internal/config"
	"epidash/internal/dashboard"
	"epidash/internal/geo"
	"epidash/internal/metrics"
	"epidash/internal/model"
	"epidash/internal/pipeline"
	"epidash/internal/store"
	"epidash/internal/votes"
	"epidash/pkg/router"
	"epidash/pkg/utils"
)

// @title Epidemic Dashboard API
// @version 1.0
// @description Sessions, playback and derived map/chart views over imported epidemic simulations.
// @BasePath /api/v1
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	reimport := flag.Bool("reimport", false, "import the configured data files even if the catalog has data")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	level, _ := cfg.LogLevel()
	logger := utils.NewLogger(os.Stderr, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *reimport, logger); err != nil {
		logger.Error("❌ server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, reimport bool, logger *slog.Logger) error {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.NewMetrics()
	runner := pipeline.NewRunner(st, logger, m)

	if err := seed(ctx, cfg, st, runner, reimport, logger); err != nil {
		return err
	}
	data, err := loadDataset(ctx, cfg, st, logger)
	if err != nil {
		return err
	}
	lo, hi := data.PeriodBounds()
	logger.Info("📊 dataset loaded",
		"observations", len(data.Observations),
		"regions", len(data.Regions),
		"facilities", len(data.Facilities),
		"periods", fmt.Sprintf("%d..%d", lo, hi))

	var voteRows []votes.Vote
	if cfg.Data.Votes != "" {
		voteRows, err = votes.LoadVotes(cfg.Data.Votes)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("votes file not found, votes endpoints will be empty", "path", cfg.Data.Votes)
		case err != nil:
			return err
		}
	}

	engine := dashboard.NewEngine(data, cfg.EngineOptions(), logger, m)
	sessions := dashboard.NewManager(engine, cfg.PlaybackOptions(), logger)
	defer sessions.Close()

	h := handler.New(handler.Deps{
		Engine:   engine,
		Sessions: sessions,
		Store:    st,
		Runner:   runner,
		Votes:    voteRows,
		Logger:   logger,
	})
	r := router.New(logger,
		router.WithRouteMiddleware(m.WrapHandler),
		router.WithCORS(cfg.Server.CORSOrigins...),
	)
	api.RegisterRoutes(r, h, m.Handler())

	logger.Info("🚀 dashboard listening", "addr", cfg.Server.Addr, "routes", len(r.Routes()))
	return r.Start(ctx, cfg.Server.Addr, cfg.ShutdownTimeout())
}

// seed imports the configured CSVs into an empty catalog.
func seed(ctx context.Context, cfg config.Config, st *store.Store, runner *pipeline.Runner, force bool, logger *slog.Logger) error {
	n, err := st.CountObservations(ctx, store.DatasetRegions)
	if err != nil {
		return err
	}
	if n > 0 && !force {
		return nil
	}

	spec := cfg.ImportSpec()
	sources := spec.Sources[:0]
	for _, src := range spec.Sources {
		if _, err := os.Stat(src.URL); err != nil {
			logger.Warn("data file not found, skipping", "kind", src.Kind, "path", src.URL)
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil
	}
	spec.Sources = sources

	id, stats, err := runner.Run(ctx, spec)
	if err != nil {
		return fmt.Errorf("seed import %s: %w", id, err)
	}
	logger.Info("🔍 validation summary", "import", id, "valid", stats.Valid, "invalid", stats.Invalid)
	return nil
}

func loadDataset(ctx context.Context, cfg config.Config, st *store.Store, logger *slog.Logger) (*dashboard.Dataset, error) {
	obs, err := st.LoadObservations(ctx, store.DatasetRegions)
	if err != nil {
		return nil, err
	}
	load, err := st.LoadObservations(ctx, store.DatasetFacilities)
	if err != nil {
		return nil, err
	}
	facilities, err := st.LoadFacilities(ctx)
	if err != nil {
		return nil, err
	}

	var regions []model.Region
	if cfg.Data.Regions != "" {
		regions, err = geo.LoadRegions(cfg.Data.Regions)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("region geometry not found, map keys are not filtered", "path", cfg.Data.Regions)
		case err != nil:
			return nil, err
		}
	}
	if len(obs) == 0 {
		logger.Warn("no observations in the catalog; views will be empty")
	}
	return dashboard.NewDataset(regions, obs, load, facilities), nil
}
