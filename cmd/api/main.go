package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"certidesk/internal/app"
	"certidesk/internal/config"
	"certidesk/internal/logging"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log)
	logger.Infof("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	logger.WithFields(cfg.Redacted()).Info("Configuration loaded")

	backend := cfg.StoreBackend()
	if backend == "" {
		logger.Warn("No store configured: submissions will be rejected until DATABASE_URL or DATA_API_URL is set")
	} else {
		logger.WithField("backend", backend).Info("Store selected")
	}
	if !cfg.Notify.Ready() {
		logger.WithField("provider", cfg.Notify.Provider).Warn("Notification provider is not fully configured")
	}

	container := app.NewContainer(cfg, logger)

	// Create HTTP server with timeouts
	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	errorLog := logger.WriterLevel(logrus.ErrorLevel)
	defer errorLog.Close()

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      container.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     log.New(errorLog, "[HTTP] ", 0),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatalf("Server failed to start: %v", err)
	case sig := <-shutdown:
		logger.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Error during graceful shutdown")
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("Shutdown timeout exceeded, forcing close...")
			httpServer.Close()
		}
	}

	logger.Info("Server shutdown complete")
}
