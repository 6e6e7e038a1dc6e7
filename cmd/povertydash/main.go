package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poverty-dashboard/internal/cfg"
	"poverty-dashboard/internal/dashboard"
	"poverty-dashboard/internal/metrics"
	"poverty-dashboard/internal/ml"
	"poverty-dashboard/internal/pipeline"
	"poverty-dashboard/internal/storage"
	"poverty-dashboard/internal/worldbank"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	setupLogging(c.LogLevel)

	// The bundle is required; without it no prediction can be served.
	bundle, err := ml.LoadBundle(c.ModelPath)
	if err != nil {
		if errors.Is(err, ml.ErrBundleNotFound) {
			log.Fatal().Str("model_path", c.ModelPath).
				Msg("model bundle file was not found; export the trained models to this path or set MODEL_PATH")
		}
		log.Fatal().Err(err).Msg("failed to load model bundle")
	}
	log.Info().Str("model_path", c.ModelPath).Int("models", len(bundle.Models())).
		Strs("features", bundle.Features()).Msg("model bundle loaded")

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	client := worldbank.NewClient(worldbank.Config{
		BaseURL:    c.WorldBankURL,
		Timeout:    c.FetchTimeout,
		Concurrent: c.ConcurrentFetch,
	}, mw)

	// A nil *storage.Store must not become a non-nil interface.
	var history pipeline.HistoryStore
	var historyReader dashboard.HistoryReader
	if store != nil {
		history, historyReader = store, store
	}

	svc := pipeline.New(client, ml.NewInvoker(bundle, mw), history, mw)
	dash := dashboard.New(svc, bundle, historyReader, mw, c.Years(), c.Port)

	go func() {
		if err := dash.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("dashboard server failed")
		}
	}()

	waitForShutdown(dash)
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// initializeStorage opens the prediction history if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without prediction history")
		return nil
	}
	return store
}

func waitForShutdown(dash *dashboard.Dashboard) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dash.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("dashboard shutdown failed")
	}
}
