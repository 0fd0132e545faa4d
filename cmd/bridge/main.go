// Command bridge serves the video generation job protocol over HTTP. It owns
// the provider credentials, runs submit/poll/download and streams progress
// as NDJSON.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vidabot/internal/adapter/repo"
	"vidabot/internal/domain"
	"vidabot/internal/http/handlers"
	httpapi "vidabot/internal/http/httpapi"
	"vidabot/internal/infra"
	"vidabot/internal/infra/credentials"
	"vidabot/internal/infra/geoip"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLoggerWithOptions(cfg.AppEnv, infra.LogOptions{File: cfg.LogFile}).
		With().Str("cmd", "bridge").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		ledger domain.GenerationRepository = repo.NewGenerationRepositoryMemory(0)
		store  *credentials.Store
	)
	pool, err := infra.NewDBPool(ctx, cfg)
	switch {
	case errors.Is(err, infra.ErrNoDatabase):
		logger.Warn().Msg("DATABASE_URL not set; ledger kept in memory")
	case err != nil:
		logger.Fatal().Err(err).Msg("failed to connect database")
	default:
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		pgLedger := repo.NewGenerationRepository(runner)
		if err := pgLedger.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare schema")
		}
		ledger = pgLedger
		store = credentials.NewStore(runner)
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	stack := newGenerationStack(cfg, ledger, &logger)

	app := handlers.NewApp(handlers.AppOptions{
		Generator:         stack.workflow,
		Keys:              credentials.Resolver{Configured: cfg.GeminiAPIKey, Store: store},
		Validator:         stack.content,
		Access:            stack.video,
		Ledger:            ledger,
		VideoModel:        stack.video.Model(),
		MaxReferenceBytes: int(cfg.MaxReferenceImageBytes),
		Logger:            &logger,
	})
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:          logger,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   resolver.Lookup(),
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().
		Str("addr", server.Addr()).
		Str("video_model", stack.video.Model()).
		Dur("poll_interval", cfg.PollInterval).
		Int("max_polls", cfg.MaxPolls).
		Msg("bridge listening")
	if err := server.Serve(ctx, 30*time.Second); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
