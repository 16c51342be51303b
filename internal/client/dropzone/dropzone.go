// Package dropzone watches a folder and uploads every regular file that
// settles in it. It is the terminal counterpart of a drag-and-drop area.
package dropzone

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

// IgnoreFileName holds extra ignore globs, one per line, inside the folder.
const IgnoreFileName = ".gophdriveignore"

// DefaultDelay is how long a file must stay quiet before it is uploaded.
const DefaultDelay = 500 * time.Millisecond

// Target receives the settled files.
type Target interface {
	Upload(ctx context.Context, path string, fn transfer.ProgressFunc) (*transfer.UploadResult, error)
	AlreadyUploaded(ctx context.Context, path string) (bool, error)
}

// Result describes one processed file.
type Result struct {
	Path    string
	FileID  string
	Skipped bool
	Err     error
}

// Watcher uploads files dropped into one directory. Subdirectories are
// not descended into.
type Watcher struct {
	dir     string
	ignore  []glob.Glob
	target  Target
	logger  logging.Logger
	delay   time.Duration
	results chan<- Result

	mu     sync.Mutex
	timers map[string]*time.Timer
	queue  chan string
}

// New prepares a watcher for dir. patterns are matched against base names
// together with the lines of IgnoreFileName. results, if not nil, receives
// one Result per processed file and must be drained by the caller.
func New(dir string, patterns []string, target Target, logger logging.Logger, delay time.Duration, results chan<- Result) (*Watcher, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	filePatterns, err := loadIgnoreFile(dir)
	if err != nil {
		return nil, err
	}
	ignore, err := compile(append(append([]string{IgnoreFileName}, patterns...), filePatterns...))
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	return &Watcher{
		dir:     dir,
		ignore:  ignore,
		target:  target,
		logger:  logger.With("dropzone", dir),
		delay:   delay,
		results: results,
		timers:  make(map[string]*time.Timer),
		queue:   make(chan string, 64),
	}, nil
}

// Run watches until ctx is cancelled. Files already in the folder are
// processed first; uploads run one at a time.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()
	defer wg.Wait()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			w.schedule(filepath.Join(w.dir, e.Name()))
		}
	}

	w.logger.Info(ctx, "drop folder watcher started")
	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(ev.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "file watcher error", "error", err)
		}
	}
}

// Ignored reports whether name matches an ignore pattern.
func (w *Watcher) Ignored(name string) bool {
	base := filepath.Base(name)
	for _, g := range w.ignore {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// schedule (re)arms the debounce timer of path.
func (w *Watcher) schedule(path string) {
	if w.Ignored(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Reset(w.delay)
		return
	}
	w.timers[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case w.queue <- path:
		default:
			// Queue full: the file is picked up again on its next write.
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			res := w.process(ctx, path)
			if res == nil || w.results == nil {
				continue
			}
			select {
			case w.results <- *res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// process uploads path unless it vanished, is not a regular file, or was
// uploaded before in its current state. nil means nothing to report.
func (w *Watcher) process(ctx context.Context, path string) *Result {
	st, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !st.Mode().IsRegular()) {
		return nil
	}
	if err != nil {
		return &Result{Path: path, Err: err}
	}

	done, err := w.target.AlreadyUploaded(ctx, path)
	if err != nil {
		return &Result{Path: path, Err: err}
	}
	if done {
		w.logger.Debug(ctx, "already uploaded", "path", path)
		return &Result{Path: path, Skipped: true}
	}

	res, err := w.target.Upload(ctx, path, nil)
	if err != nil {
		w.logger.Warn(ctx, "drop folder upload failed", "path", path, "error", err)
		return &Result{Path: path, Err: err}
	}
	w.logger.Info(ctx, "drop folder upload complete", "path", path, "file_id", res.FileID)
	return &Result{Path: path, FileID: res.FileID}
}

func compile(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func loadIgnoreFile(dir string) ([]string, error) {
	f, err := os.Open(filepath.Join(dir, IgnoreFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, sc.Err()
}
