package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lovstudio/lovcode/backend/internal/infrastructure/config"
	"github.com/lovstudio/lovcode/backend/internal/infrastructure/logging"
	"github.com/lovstudio/lovcode/backend/internal/infrastructure/server"
	"github.com/lovstudio/lovcode/backend/internal/shared/paths"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override env vars and the config file
	port := flag.String("port", cfg.Server.Port, "Server port")
	host := flag.String("host", cfg.Server.Host, "Listen address")
	workspacePath := flag.String("workspace", cfg.Workspace.Path, "Workspace document path")
	shell := flag.String("shell", cfg.Terminal.Shell, "Default shell for new terminals")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Workspace.Path = paths.Expand(*workspacePath)
	cfg.Terminal.Shell = *shell
	cfg.Logging.Development = *dev
	if *dev {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully...", zap.String("signal", sig.String()))
		if err := srv.Close(); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		logger.Error("Server error", zap.Error(err))
		srv.Close()
		os.Exit(1)
	}
}
