package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boigordo/internal/config"
	"boigordo/internal/infra"
	"boigordo/internal/repository"
	"boigordo/internal/router"
	"boigordo/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.AutoMigrate {
		if err := infra.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has access to every infrastructure dependency.
	alertCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	notifier := infra.NewWebhookNotifier(cfg.AlertWebhookURL, alertCB)
	mailer := infra.NewMailer(cfg)
	store, err := infra.NewReportStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init report storage")
	}
	recipients := config.SplitList(cfg.AlertEmailTo)

	dispatcher := worker.NewDispatcher(rdb)
	workerHandlers := &worker.WorkerHandlers{
		Alert:  worker.NewAlertWorker(notifier, mailer, recipients),
		Report: worker.NewReportWorker(repository.NewFinancialAnalysisRepository(db), store, mailer, recipients),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)

	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		log.Warn().Err(err).Str("tz", cfg.ReportTimezone).Msg("unknown report timezone, using UTC")
		loc = time.UTC
	}
	scheduler, err := worker.NewScheduler(cfg.MonthlyReportCron, loc, dispatcher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init scheduler")
	}
	scheduler.Start()

	r := router.New(cfg, db, rdb, alertCB, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("boigordo listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	scheduler.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	cancel()
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
