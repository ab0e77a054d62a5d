package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/daybook-ai/daybook/internal/ai"
	"github.com/daybook-ai/daybook/internal/api"
	"github.com/daybook-ai/daybook/internal/clock"
	"github.com/daybook-ai/daybook/internal/config"
	"github.com/daybook-ai/daybook/internal/datewatch"
	"github.com/daybook-ai/daybook/internal/events"
	"github.com/daybook-ai/daybook/internal/health"
	"github.com/daybook-ai/daybook/internal/platform/logger"
	"github.com/daybook-ai/daybook/internal/services"
	"github.com/daybook-ai/daybook/internal/store"
	"github.com/daybook-ai/daybook/internal/store/postgres"
	"github.com/daybook-ai/daybook/internal/store/sqlite"
)

func main() {
	// Optional build-target flag override (local | cloud)
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud)")
	flag.Parse()

	_ = godotenv.Load()

	log := logger.New("journal-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *buildTarget != "" {
		cfg.BuildTarget = *buildTarget
		cfg.DBDriver = "auto"
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid build-target override")
		}
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Journal service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// -------- Storage layer -----------------
	var st store.Store
	switch cfg.DBDriver {
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("SQLite unavailable")
		}
		defer func() { _ = db.Close() }()
		if err := sqlite.EnsureSchema(db); err != nil {
			log.Fatal().Err(err).Msg("SQLite schema setup failed")
		}
		st = sqlite.NewWithDB(db)
	case "postgres":
		st, err = postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Postgres unavailable")
		}
	}

	// -------- Reply provider ----------------
	replier, err := ai.NewReplier(ctx, ai.Config{
		Provider:       cfg.ReplyProvider,
		ArkAPIKey:      cfg.ArkAPIKey,
		ArkModel:       cfg.ArkModel,
		ArkBaseURL:     cfg.ArkBaseURL,
		GenAPIKey:      cfg.GenAPIKey,
		GenModel:       cfg.GenModel,
		GenBaseURL:     cfg.GenBaseURL,
		TimeoutSeconds: cfg.ReplyTimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Reply provider unavailable")
	}

	// -------- Services ----------------------
	clk := clock.System{}
	bus := events.NewBus(256, log)
	streakSvc := services.NewStreakService(st, clk, log)
	journalSvc := services.NewJournalService(st, replier, streakSvc, bus, clk, log)
	userSvc := services.NewUserService(st, cfg.DefaultTimeZone, log)
	summarySvc := services.NewSummaryService(st, replier, log)

	// -------- Rollover worker & date watcher
	activeWindow := time.Duration(cfg.ActiveUserWindowDays) * 24 * time.Hour
	worker := services.NewRolloverWorker(st, streakSvc, bus, clk, activeWindow, log)
	go worker.Run(ctx)

	watcher := datewatch.New(clk, time.Local, time.Duration(cfg.DatePollSeconds)*time.Second, func(date string) {
		bus.Publish(events.Event{Kind: events.KindDateRolled, Date: date})
	}, log)
	go watcher.Run(ctx)

	// -------- Health monitor ----------------
	storeChecker := store.NewStoreHealthChecker(st, log, time.Duration(cfg.HealthProbeTimeoutSeconds)*time.Second)
	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	healthInterval := time.Duration(cfg.HealthIntervalSeconds) * time.Second
	go storeChecker.Start(ctx, healthInterval)
	go svcHealth.Start(ctx, healthInterval)

	// -------- Router & Server ---------------
	router := api.NewRouter(api.Deps{
		Users:     userSvc,
		Journal:   journalSvc,
		Streaks:   streakSvc,
		Summaries: summarySvc,
		IsHealthy: svcHealth.IsHealthy,
	})
	// Any request pokes the watcher so a client resuming after midnight
	// sees the rollover immediately instead of on the next poll tick.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		watcher.Poke()
		router.ServeHTTP(w, r)
	})
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("Server exited")
}
