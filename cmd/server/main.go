package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/tafsirgest/internal/api"
	"github.com/dgallion1/tafsirgest/internal/config"
	"github.com/dgallion1/tafsirgest/internal/gdocs"
	"github.com/dgallion1/tafsirgest/internal/pathstore"
	"github.com/dgallion1/tafsirgest/internal/pipeline"
	"github.com/dgallion1/tafsirgest/internal/store"
)

func main() {
	cfg := config.Load()
	log := newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize persistence.
	sink, closeSink, err := openSink(ctx, cfg, log)
	if err != nil {
		log.Error("open sink", "sink", cfg.Sink, "error", err)
		os.Exit(1)
	}
	defer closeSink()

	// Initialize the Google Docs source.
	var fetcher pipeline.Fetcher
	if cfg.GDocsEnabled {
		client, err := gdocs.NewClient(ctx, gdocs.CredentialOptions(cfg.GoogleCredentials)...)
		if err != nil {
			log.Warn("google docs source disabled", "error", err)
		} else {
			fetcher = client
		}
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, fetcher, sink, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting tafsirgest", "port", cfg.Port, "sink", cfg.Sink, "gdocs", fetcher != nil)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// openSink returns a nil sink for SINK=none.
func openSink(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Sink, func(), error) {
	switch cfg.Sink {
	case config.SinkSQL:
		db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewSQLStore(db, cfg.DBDriver)
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("sql sink ready", "driver", cfg.DBDriver)
		return s, func() { s.Close() }, nil
	case config.SinkPathstore:
		client := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		log.Info("pathstore sink ready", "url", cfg.PathstoreURL)
		return pathstore.NewSink(client), client.Close, nil
	default:
		log.Info("no sink configured, results kept in job memory")
		return nil, func() {}, nil
	}
}
