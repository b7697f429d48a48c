// pointblank-server serves the analysis dashboard HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pointblank/internal/auth"
	"pointblank/internal/config"
	"pointblank/internal/gemini"
	"pointblank/internal/httpapi"
	"pointblank/internal/payment"
	"pointblank/internal/store"
	"pointblank/internal/util"
)

func main() {
	// Load config. A missing default file is not an error: the built-in
	// defaults plus env vars are enough to run. An explicitly requested
	// file must exist.
	cfgPath := "config/pointblank.yaml"
	explicit := false
	if p := os.Getenv("POINTBLANK_CONFIG"); p != "" {
		cfgPath = p
		explicit = true
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			log.Fatalf("loading config: %v", err)
		}
		cfg = config.Default()
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Storage.
	dbPath := cfg.Storage.SQLitePath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.Storage.DataDir, "pointblank.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.Fatalf("creating data directory: %v", err)
	}
	sqlite, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("opening sqlite store: %v", err)
	}
	defer sqlite.Close()
	archive := store.NewParquetArchive(cfg.Storage.DataDir)

	// Collaborators.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ai, err := gemini.New(ctx, cfg.Gemini, cfg.Analysis)
	if err != nil {
		log.Fatalf("creating AI client: %v", err)
	}
	authn := auth.NewClient(cfg.Supabase)
	payments := payment.NewClient(cfg.Razorpay)

	srv := httpapi.NewServer(authn, payments, ai, ai, sqlite, sqlite, archive, cfg.Analysis, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("pointblank server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
