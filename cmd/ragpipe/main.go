// Command ragpipe serves the RAG pipeline HTTP API. Configuration comes
// from the environment (see the config package); state lives under the
// data root as a SQLite catalog plus one chromem directory per pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aqua777/ragpipe/catalog"
	"github.com/aqua777/ragpipe/config"
	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/rag"
	"github.com/aqua777/ragpipe/rag/store/chromem"
	"github.com/aqua777/ragpipe/server"
	"github.com/aqua777/ragpipe/settings"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ragpipe:", err)
		return 1
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.EnsureDataRoot(); err != nil {
		logger.Error("data root not usable", "error", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Open(ctx, filepath.Join(cfg.DataRoot, "catalog.db"), catalog.WithLogger(logger))
	if err != nil {
		logger.Error("open catalog", "error", err)
		return 1
	}
	defer cat.Close()

	vectors := chromem.New(filepath.Join(cfg.DataRoot, "chroma"), chromem.WithLogger(logger))

	embeddings := embedding.NewDispatcher(
		embedding.WithTEIBaseURL(cfg.TEIEmbedURL),
		embedding.WithDispatcherLogger(logger),
	)

	engine := rag.NewEngine(cat, vectors, settings.EnvSource{},
		rag.WithEngineLogger(logger),
		rag.WithEmbeddings(embeddings),
		rag.WithTEIRerankURL(cfg.TEIRerankURL),
	)

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(engine, server.WithServerLogger(logger))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Addr) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown did not complete cleanly", "error", err)
		return 1
	}
	return 0
}
