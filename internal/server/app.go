// Package server wires the todokeeper server together: storage and
// migrations, the auth components, the services, the JSON API and the gRPC
// health endpoint. It also owns signal handling and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/rest"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"

	gs "github.com/dmitrijs2005/todokeeper/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	accounts *services.AccountService
	tasks    *services.TaskService
	gate     *auth.Gate
}

// NewApp validates c, connects to the database, applies pending migrations
// and builds every component. Connection and migration failures are retried
// within the configured storage budget.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.New(c.LogFormat, logOut)

	hasher := auth.NewPasswordHasher(c.BcryptCost)

	tokens, err := auth.NewTokenService(c.SecretKey, c.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token service init error: %w", err)
	}

	google, err := auth.NewGoogleVerifier(ctx, c.GoogleClientID)
	if err != nil {
		return nil, fmt.Errorf("google verifier init error: %w", err)
	}

	db, err := sql.Open(repomanager.DriverName, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	retrier := dbx.NewRetrier(c.StorageRetryAttempts, c.StorageRetryDelay)
	rm := repomanager.NewPostgresRepositoryManager()

	err = retrier.Do(ctx, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		return rm.RunMigrations(ctx, db)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		accounts: services.NewAccountService(db, rm, retrier, hasher, tokens, google),
		tasks:    services.NewTaskService(db, rm, retrier),
		gate:     auth.NewGate(tokens),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := rest.NewServer(app.config.EndpointAddrHTTP, app.logger, app.accounts, app.tasks, app.gate, app.db, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger, app.db, gs.DefaultProbeInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run starts both servers and blocks until a signal arrives, ctx is
// cancelled or either server fails. The first server error is returned.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		record(app.startHTTPServer(ctx, cancelFunc))
	}()
	go func() {
		defer wg.Done()
		record(app.startGRPCServer(ctx, cancelFunc))
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}

	app.logger.Info(ctx, "App stopped")

	return firstErr
}
