// Package rest serves the JSON API over HTTP: account registration and
// login, profile management and the owner-scoped to-do list.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/go-playground/validator/v10"
)

// AccountAPI is the account side of the service layer.
type AccountAPI interface {
	CreateLocal(ctx context.Context, email, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	LoginFederated(ctx context.Context, providerToken string) (*services.FederatedLogin, error)
	GetWithTasks(ctx context.Context, id int64) (*models.Account, error)
	UpdateProfile(ctx context.Context, id int64, upd models.AccountUpdate) (*models.Account, error)
	Delete(ctx context.Context, id int64) error
}

// TaskAPI is the task side of the service layer.
type TaskAPI interface {
	Create(ctx context.Context, ownerID int64, in models.TaskCreate) (*models.Task, error)
	List(ctx context.Context, ownerID int64, skip, limit int) ([]*models.Task, error)
	Update(ctx context.Context, ownerID, id int64, upd models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id int64) (*models.Task, error)
}

// Authenticator resolves an Authorization header to an account id.
type Authenticator interface {
	Authenticate(header string) (int64, error)
}

// Pinger reports storage liveness for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	address         string
	logger          logging.Logger
	accounts        AccountAPI
	tasks           TaskAPI
	gate            Authenticator
	pinger          Pinger
	validate        *validator.Validate
	shutdownTimeout time.Duration
	handler         http.Handler
}

func NewServer(address string, l logging.Logger, accounts AccountAPI, tasks TaskAPI, gate Authenticator, pinger Pinger, shutdownTimeout time.Duration) *Server {
	s := &Server{
		address:         address,
		logger:          l.With("module", "http_server"),
		accounts:        accounts,
		tasks:           tasks,
		gate:            gate,
		pinger:          pinger,
		validate:        newValidator(),
		shutdownTimeout: shutdownTimeout,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-done
}
