// Package app initializes and runs the main application service.
// It configures logging, storage, authentication, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/RussellAbraham/tinyapp/internal/auth"
	"github.com/RussellAbraham/tinyapp/internal/config"
	"github.com/RussellAbraham/tinyapp/internal/db/jsondb"
	"github.com/RussellAbraham/tinyapp/internal/db/memorystorage"
	"github.com/RussellAbraham/tinyapp/internal/db/postgresdb"
	"github.com/RussellAbraham/tinyapp/internal/db/storage"
	"github.com/RussellAbraham/tinyapp/internal/ipchecker"
	"github.com/RussellAbraham/tinyapp/internal/logger"
	"github.com/RussellAbraham/tinyapp/internal/models"
	"github.com/RussellAbraham/tinyapp/internal/router"
	"github.com/RussellAbraham/tinyapp/internal/service"
	"github.com/RussellAbraham/tinyapp/internal/visits"
)

// App encapsulates the configuration, HTTP handler, storage backend and the
// background visit tracker needed to run the URL shortener.
type App struct {
	cfg               *config.Config
	db                storage.Storage
	visitsTracker     *visits.Tracker
	stopVisitsTracker context.CancelFunc
	httpHandler       http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - starting the background visit tracker
// - setting up the router and middleware
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

	authCookieSigningSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.AuthCookieSigningSecretKey)
	if err != nil {
		return nil, err
	}

	app.visitsTracker = visits.New(
		app.db,
		app.cfg.VisitChannelCapacity,
		app.cfg.DelayBetweenVisitFlushes,
	)
	visitsTrackerRunCtx, stopVisitsTracker := context.WithCancel(context.Background())
	app.stopVisitsTracker = stopVisitsTracker

	app.visitsTracker.Run(visitsTrackerRunCtx)
	app.visitsTracker.ListenErrors(func(err error) {
		logger.Log.Debugln("Error passed from the `app.visitsTracker.ListenErrors()`:", zap.Error(err))
	})

	ipChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.httpHandler, err = router.New(
		service.New(app.db, app.visitsTracker, app.cfg.ShortURLBase),
		auth.New(
			app.db,
			app.cfg.AuthCookieName,
			authCookieSigningSecretKey,
			app.cfg.SessionTTL,
		),
		ipChecker,
	)
	if err != nil {
		return nil, err
	}

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
		a.stopVisitsTracker()
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
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

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
