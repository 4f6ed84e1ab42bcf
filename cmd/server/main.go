package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/proposalagent/backend/config"
	httpDelivery "github.com/proposalagent/backend/internal/delivery/http"
	"github.com/proposalagent/backend/internal/domain"
	"github.com/proposalagent/backend/internal/infrastructure/cache"
	"github.com/proposalagent/backend/internal/infrastructure/catalog"
	"github.com/proposalagent/backend/internal/infrastructure/llm"
	"github.com/proposalagent/backend/internal/infrastructure/storage"
	"github.com/proposalagent/backend/internal/observability"
	"github.com/proposalagent/backend/internal/usecase"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Str("storage", cfg.Storage.Type).
		Msg("starting proposal agent")

	// Catalog
	products, err := catalog.NewLoader(logger).LoadFile(cfg.Catalog.Path)
	if err != nil {
		// Analyses fail with ErrEmptyCatalog until a catalog is available
		logger.Warn().Err(err).Str("path", cfg.Catalog.Path).Msg("catalog not loaded, starting empty")
	}
	productCatalog := catalog.NewMemoryCatalog(products)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	// Infrastructure
	analysisCache, closeCache, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	repo, closeRepo, err := buildStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeRepo()

	var refiner domain.Refiner
	if cfg.Refinement.Enabled {
		client := llm.NewClient(llm.Config{
			Provider:          cfg.Refinement.Provider,
			APIKey:            cfg.Refinement.APIKey,
			BaseURL:           cfg.Refinement.BaseURL,
			Model:             cfg.Refinement.Model,
			Timeout:           cfg.Refinement.Timeout,
			RequestsPerMinute: cfg.Refinement.RequestsPerMinute,
		}, logger)
		client.SetDebug(cfg.Refinement.Debug || cfg.Server.Environment == "development")
		refiner = client
		logger.Info().Str("provider", cfg.Refinement.Provider).Msg("refinement enabled")
	} else {
		logger.Info().Msg("refinement disabled, deterministic matching only")
	}

	// Usecases
	analysis := usecase.NewAnalysisService(
		analysisCache,
		refiner,
		usecase.AnalysisServiceConfig{
			Matching: usecase.MatchConfig{
				MaxMatches:         cfg.Matching.MaxMatches,
				MinScore:           cfg.Matching.MinScore,
				EnableDebugLogging: cfg.Matching.EnableDebugLogging,
			},
			RefinementTimeout: cfg.Refinement.Timeout,
		},
		metrics,
		logger,
	)

	proposals := usecase.NewProposalService(
		analysis,
		productCatalog,
		repo,
		usecase.ProposalServiceConfig{
			TaxRate:      cfg.Quote.TaxRate,
			NumberPrefix: cfg.Quote.NumberPrefix,
		},
		metrics,
		logger,
	)

	handler := httpDelivery.NewHandler(proposals, httpDelivery.ServiceInfo{
		Version:           version,
		RefinementEnabled: refiner != nil,
		CatalogSize:       productCatalog.Len(),
	})
	router := httpDelivery.SetupRouter(cfg, handler, registry, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func buildCache(ctx context.Context, cfg config.CacheConfig) (domain.AnalysisCache, func(), error) {
	if cfg.Type == "redis" {
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:    cfg.RedisURL,
			Prefix: cfg.KeyPrefix,
			TTL:    cfg.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, closer(c), nil
	}

	c := cache.NewMemoryCache(cfg.TTL)
	return c, closer(c), nil
}

func buildStorage(cfg config.StorageConfig) (domain.ProposalRepository, func(), error) {
	if cfg.Type == "sqlite" {
		repo, err := storage.NewSQLiteProposalRepository(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, closer(repo), nil
	}
	return storage.NewMemoryProposalRepository(), func() {}, nil
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
