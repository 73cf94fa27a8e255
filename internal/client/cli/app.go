package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/client/api"
	"github.com/dmitrijs2005/todokeeper/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// apiClient is the part of api.Client the commands use.
type apiClient interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, email, password string) (*api.Account, error)
	Login(ctx context.Context, email, password string) error
	Logout()
	LoggedIn() bool
	Me(ctx context.Context) (*api.Account, error)
	UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*api.Account, error)
	DeleteAccount(ctx context.Context) error
	CreateTask(ctx context.Context, title string, description *string) (*api.Task, error)
	ListTasks(ctx context.Context, skip, limit int) ([]api.Task, error)
	UpdateTask(ctx context.Context, id int64, upd api.TaskUpdate) (*api.Task, error)
	DeleteTask(ctx context.Context, id int64) (*api.Task, error)
}

type App struct {
	config   *config.Config
	api      apiClient
	reader   *bufio.Reader
	out      io.Writer
	userName string

	mu   sync.Mutex
	mode Mode
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    api.NewClient(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// checkOnline pings the server once and updates the mode.
func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Run blocks in the REPL until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to todokeeper CLI (type 'help' for commands)")

	a.checkOnline(ctx)
	if a.config.OnlineCheckInterval > 0 {
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
