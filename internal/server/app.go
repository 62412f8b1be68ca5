// Package server wires the notes server: storage backend, note service, REST
// API and the gRPC health endpoint, and runs them until the context ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/httpapi"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophnotes/internal/server/grpc"
)

// Test seams for the storage constructors.
var (
	openPostgres = func(ctx context.Context, dsn string) (repomanager.Store, error) {
		return repomanager.OpenPostgres(ctx, dsn)
	}
	openMongo = func(ctx context.Context, uri, db string) (repomanager.Store, error) {
		return repomanager.OpenMongo(ctx, uri, db)
	}
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	store      repomanager.Store
	httpServer *http.Server
	grpcServer *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	logger.Info(ctx, "storage ready", "driver", c.StorageDriver)

	return newApp(c, logger, store), nil
}

func openStore(ctx context.Context, c *config.Config) (repomanager.Store, error) {
	switch c.StorageDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, c.DatabaseDSN)
	case config.DriverMongo:
		return openMongo(ctx, c.MongoURI, c.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}

func newApp(c *config.Config, logger logging.Logger, store repomanager.Store) *App {
	notes := services.NewNoteService(store, logger)
	handler := httpapi.NewHandler(notes, store, logger)

	return &App{
		config: c,
		logger: logger,
		store:  store,
		httpServer: &http.Server{
			Addr:         c.EndpointAddrHTTP,
			Handler:      handler.Routes(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, store, c.HealthCheckInterval),
	}
}

// Run serves until ctx is cancelled or one of the servers fails, then shuts
// everything down and closes the storage.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info(gctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)
		if err := app.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info(gctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		return app.httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := app.grpcServer.Run(gctx); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return app.grpcServer.WatchHealth(gctx)
	})

	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	err = multierr.Append(err, app.store.Close(closeCtx))

	app.logger.Info(ctx, "app stopped")
	return err
}
