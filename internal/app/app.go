// Package app initializes and runs the main application service.
// It configures logging, storage, the stats provider client and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/linktrack/internal/config"
	"github.com/patric-chuzhbe/linktrack/internal/db/jsondb"
	"github.com/patric-chuzhbe/linktrack/internal/db/memorystorage"
	"github.com/patric-chuzhbe/linktrack/internal/db/postgresdb"
	"github.com/patric-chuzhbe/linktrack/internal/db/storage"
	"github.com/patric-chuzhbe/linktrack/internal/logger"
	"github.com/patric-chuzhbe/linktrack/internal/models"
	"github.com/patric-chuzhbe/linktrack/internal/plausible"
	"github.com/patric-chuzhbe/linktrack/internal/refresher"
	"github.com/patric-chuzhbe/linktrack/internal/router"
	"github.com/patric-chuzhbe/linktrack/internal/service"
	"github.com/patric-chuzhbe/linktrack/internal/syncer"
)

// App encapsulates the configuration, HTTP handler, storage backend and the
// optional background refresher needed to run the linktrack service.
type App struct {
	cfg           *config.Config
	db            storage.Storage
	refresher     *refresher.Refresher
	stopRefresher context.CancelFunc
	httpHandler   http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - building the stats client, sync routine and service
// - setting up the router and middleware
// - optionally starting the background refresher
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	statsClient := plausible.New(plausible.Config{
		APIBase:        app.cfg.PlausibleAPIBase,
		SiteID:         app.cfg.PlausibleSiteID,
		APIKey:         app.cfg.PlausibleAPIKey,
		RequestTimeout: app.cfg.StatsRequestTimeout,
	})

	linksSyncer := syncer.New(statsClient, app.db, app.cfg.SyncConcurrencyLimit)
	theService := service.New(app.db, statsClient, linksSyncer, app.cfg.SyncConcurrencyLimit)

	if app.cfg.RefreshInterval > 0 {
		app.refresher = refresher.New(app.db, linksSyncer, app.cfg.RefreshInterval)
		refresherRunCtx, stopRefresher := context.WithCancel(context.Background())
		app.stopRefresher = stopRefresher

		app.refresher.Run(refresherRunCtx)
		app.refresher.ListenErrors(func(err error) {
			logger.Log.Warnln("background refresh pass failed:", zap.Error(err))
		})
	}

	app.httpHandler = router.New(theService)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		if a.stopRefresher != nil {
			a.stopRefresher()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
