package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/gophdrive/internal/client/dropzone"
)

type dropState struct {
	dir    string
	cancel context.CancelFunc
	done   chan struct{}
}

// startDrop replaces the running drop folder watcher, if any, with one
// on dir. Results are printed as they arrive.
func (a *App) startDrop(ctx context.Context, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	a.stopDrop()

	results := make(chan dropzone.Result)
	w, err := dropzone.New(abs, a.config.DropIgnore, a.files, a.logger, dropzone.DefaultDelay, results)
	if err != nil {
		return err
	}

	dctx, cancel := context.WithCancel(ctx)
	st := &dropState{dir: abs, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(st.done)
		if err := w.Run(dctx); err != nil {
			a.logger.Error(dctx, "drop folder stopped", "dir", abs, "error", err)
		}
	}()
	go func() {
		for {
			select {
			case r := <-results:
				a.printDropResult(r)
			case <-st.done:
				return
			}
		}
	}()

	a.mu.Lock()
	a.drop = st
	a.mu.Unlock()
	fmt.Fprintln(a.out, "Watching", abs)
	return nil
}

// stopDrop stops the drop folder watcher and waits for it to exit.
func (a *App) stopDrop() {
	a.mu.Lock()
	st := a.drop
	a.drop = nil
	a.mu.Unlock()

	if st == nil {
		return
	}
	st.cancel()
	<-st.done
}

func (a *App) dropDir() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drop == nil {
		return ""
	}
	return a.drop.dir
}

func (a *App) printDropResult(r dropzone.Result) {
	name := filepath.Base(r.Path)
	switch {
	case r.Err != nil:
		fmt.Fprintf(a.out, "\n[drop] %s failed: %v\n", name, r.Err)
	case r.Skipped:
		fmt.Fprintf(a.out, "\n[drop] %s already uploaded\n", name)
	default:
		fmt.Fprintf(a.out, "\n[drop] %s uploaded as %s\n", name, r.FileID)
	}
}
