package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/nexus-crm/i18n"
	"github.com/diewo77/nexus-crm/internal/apiclient"
	"github.com/diewo77/nexus-crm/internal/config"
	"github.com/diewo77/nexus-crm/internal/logger"
	"github.com/diewo77/nexus-crm/internal/registry"
	"github.com/diewo77/nexus-crm/internal/shell"
	"github.com/diewo77/nexus-crm/internal/store"
)

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Config{
		Level:     cfg.Log.Level,
		Console:   cfg.App.Dev,
		File:      cfg.Log.File,
		FileSize:  cfg.Log.FileSize,
		FileCount: cfg.Log.FileCount,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := registry.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid resource registry")
	}
	i18n.SetDefault(cfg.App.DefaultLang)

	api := apiclient.New(cfg.API.URL,
		apiclient.WithTimeout(cfg.API.ClientTimeout()),
		apiclient.WithLogger(log.With().Str("component", "apiclient").Logger()),
	)
	sh := shell.New(api, store.New(), log.With().Str("component", "shell").Logger())

	// Initial load. A failure leaves the cache empty and shows the banner;
	// the refresh button retries.
	go func() {
		if err := sh.Refresh(context.Background()); err != nil {
			log.Warn().Err(err).Msg("initial load failed")
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      NewApp(sh, cfg.API.URL, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("api", cfg.API.URL).Bool("dev", cfg.App.Dev).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped gracefully")
}
