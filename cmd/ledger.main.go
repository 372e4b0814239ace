package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ledger-service/internal/config"
	"ledger-service/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on system env vars")
	}

	cfg := config.Load()
	logger.Info("configuration loaded",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("environment", cfg.Env))

	httpServer, cleanup, err := server.Build(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build ledger service", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ledger HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("ledger service shutting down gracefully")
		cleanup()
	case err := <-errCh:
		logger.Error("ledger service failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}
