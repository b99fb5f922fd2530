package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/harris/internal/config"
	"github.com/JonMunkholm/harris/internal/core"
	"github.com/JonMunkholm/harris/internal/logging"
	"github.com/JonMunkholm/harris/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open snapshot store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	service := core.NewService(core.Config{
		Engine:        cfg.Engine.Options(),
		MaxImportSize: cfg.Import.MaxFileSize,
		Limiter:       cfg.Import.Limiter(),
		Store:         store,
	})

	restored, err := service.Load(ctx)
	if err != nil {
		slog.Error("failed to restore dataset", "error", err)
		os.Exit(1)
	}
	status := service.Status()
	slog.Info("dataset ready", "restored", restored, "units", status.Units, "driver", cfg.Storage.Driver)

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	autosaveDone := make(chan struct{})
	if cfg.Autosave.Enabled {
		go func() {
			defer close(autosaveDone)
			service.StartAutosave(jobCtx, cfg.Autosave.Scheduler())
		}()
	} else {
		close(autosaveDone)
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Imports already past the limiter still hold the write lock briefly;
		// let them land before the final save.
		if active := service.Limiter().ActiveCount(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			}
		}

		cancelJobs()
		<-autosaveDone
		if !cfg.Autosave.Enabled {
			if err := service.Save(shutdownCtx); err != nil {
				slog.Error("final save failed", "error", err)
			}
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		<-autosaveDone
		os.Exit(1)
	}
	<-shutdownDone
	slog.Info("server stopped")
}
