package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockboard/app/api"
	"stockboard/app/cfg"
	"stockboard/app/database"
	"stockboard/app/dataset"
	"stockboard/app/loader"
	"stockboard/app/news"
	"stockboard/app/screener"
	"stockboard/app/stock"
	"stockboard/app/tasks"
	"stockboard/app/updater"
)

func main() {
	// Optional .env file for local development.
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was requested.
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Stockboard server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := dataset.NewConfigCache(appCfg.DatasetsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load dataset configurations", "dir", appCfg.DatasetsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Dataset configurations loaded", "dir", appCfg.DatasetsDir, "count", configCache.GetConfigCount())

	stockRepo := database.NewStockRepository(db)
	newsRepo := database.NewNewsRepository(db)

	httpClient := &http.Client{Timeout: 60 * time.Second}

	datasetLoader := loader.NewLoader(httpClient, appCfg.UserAgent)
	screenerClient := screener.NewClient(httpClient, appCfg.UserAgent)
	stockUpdater := updater.New(stockRepo, screenerClient, appCfg.DataDir)
	newsFetcher := news.NewFetcher(httpClient, appCfg.UserAgent)
	contentExtractor := news.NewContentExtractor()

	tables := stock.NewTables()

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(configCache, stockRepo, newsRepo, tables,
		datasetLoader, newsFetcher, contentExtractor, stockUpdater)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(tables, configCache, stockRepo, newsRepo,
		datasetLoader, stockUpdater, scheduler)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
