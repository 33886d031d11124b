package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/crisislens-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crisislens-service/internal/adapter/kafka"
	"github.com/couchcryptid/crisislens-service/internal/analysis"
	"github.com/couchcryptid/crisislens-service/internal/config"
	"github.com/couchcryptid/crisislens-service/internal/observability"
	"github.com/couchcryptid/crisislens-service/internal/pipeline"
)

// alwaysReady serves readiness when the stream pipeline is disabled.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	lex, err := analysis.LoadLexicon(cfg)
	if err != nil {
		logger.Error("failed to load lexicon", "path", cfg.LexiconPath, "error", err)
		os.Exit(1)
	}

	collab := analysis.NewCollaborators(cfg, metrics, logger)
	analyzer, err := analysis.Build(cfg, lex, collab, clockwork.NewRealClock(), metrics, logger)
	if err != nil {
		logger.Error("failed to build analyzer", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		ready  sharedobs.ReadinessChecker = alwaysReady{}
	)
	if cfg.StreamEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(analyzer, logger)

		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize,
			pipeline.WithConcurrency(cfg.BatchConcurrency))
		ready = p

		// Start stream pipeline.
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("stream pipeline disabled, serving HTTP only")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, analyzer, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
