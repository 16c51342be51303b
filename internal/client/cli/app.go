package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/config"
	"github.com/dmitrijs2005/gophdrive/internal/client/services"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App is the interactive client. Mode and the drop folder state are
// touched by background goroutines and guarded by mu.
type App struct {
	config *config.Config
	auth   services.AuthService
	files  services.FileService
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer

	mu       sync.Mutex
	mode     Mode
	userName string
	loggedIn bool
	drop     *dropState
}

func NewApp(c *config.Config, auth services.AuthService, files services.FileService, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config: c,
		auth:   auth,
		files:  files,
		logger: logger,
		reader: bufio.NewReader(in),
		out:    &syncWriter{w: out},
	}
}

// syncWriter serializes writes from the REPL and the drop folder printer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Run restores a saved login, starts the background watchers and blocks
// in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer func() {
		a.stopDrop()
		if err := a.auth.Close(ctx); err != nil {
			a.logger.Warn(ctx, "closing client", "error", err)
		}
	}()

	fmt.Fprintln(a.out, "Welcome to GophDrive CLI (type 'help' for commands)")
	a.restore(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) restore(ctx context.Context) {
	user, err := a.auth.Restore(ctx)
	switch {
	case errors.Is(err, services.ErrNoSavedLogin):
		fmt.Fprintln(a.out, "Not logged in. Use 'login' or 'register'.")
		return
	case err != nil:
		a.logger.Warn(ctx, "restoring saved login failed", "error", err)
		fmt.Fprintln(a.out, "Saved login could not be restored:", err)
		return
	}

	a.loginDone(ctx, user)
	fmt.Fprintf(a.out, "Welcome back, %s\n", user)
}

// loginDone records a successful login and starts the configured drop folder.
func (a *App) loginDone(ctx context.Context, user string) {
	a.mu.Lock()
	a.userName = user
	a.loggedIn = true
	a.mu.Unlock()
	a.setMode(ModeOnline)

	if a.config.DropDir != "" {
		if err := a.startDrop(ctx, a.config.DropDir); err != nil {
			fmt.Fprintln(a.out, "Drop folder not started:", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// status is the prompt decoration, e.g. "(alice online)".
func (a *App) status() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.userName
	if a.mode != "" {
		if s != "" {
			s += " "
		}
		s += string(a.mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode between online and offline.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.auth.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
