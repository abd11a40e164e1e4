// SPDX-License-Identifier: MPL-2.0

// Package watch regenerates shader artifacts when sources change.
//
// It monitors the shader source directories and invokes a callback after a
// debounce period. Events within the debounce window are coalesced so the
// callback fires once with the full set of changed file names, and a trigger
// that arrives while a run is in progress is retried after it finishes rather
// than running concurrently.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the delay before firing the onChange callback after the
// last filesystem event. Editors often write then rename a temp file, which
// must coalesce into a single regeneration.
const defaultDebounce = 500 * time.Millisecond

// editorNoise lists file name patterns that never trigger a regeneration,
// regardless of configured excludes.
var editorNoise = []string{
	"*.swp",
	"*.swo",
	"*~",
	"4913",
	"#*#",
	".DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dirs are the directories to watch, relative to BaseDir. They are not
		// watched recursively; shader sources live in a flat directory.
		Dirs []string

		// Exclude holds doublestar patterns matched against file names, with
		// the same meaning as the discovery excludes.
		Exclude []string

		// Debounce is the quiet period after the last event before the callback
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// ClearScreen writes an ANSI clear sequence to Stdout before each
		// callback. No terminal detection is performed.
		ClearScreen bool

		// BaseDir is the generator root. Empty means the current directory.
		BaseDir string

		// OnChange is called with the changed paths, relative to BaseDir.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives progress and error messages; nil discards them.
		Logger *log.Logger
		// Stdout receives the clear-screen sequence; nil means os.Stdout.
		Stdout io.Writer
	}

	// Watcher monitors shader directories and fires a debounced callback when
	// sources change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		logger   *log.Logger
		stdout   io.Writer
		debounce time.Duration
		baseDir  string
		started  atomic.Bool
	}
)

// New creates a Watcher and registers every configured directory. A missing
// directory is an error so a misconfigured shaders_dir is reported up front.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	if len(cfg.Dirs) == 0 {
		return nil, errors.New("watch: no directories to watch")
	}
	for _, pat := range cfg.Exclude {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid exclude pattern %q", pat)
		}
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(editorNoise), cfg.Exclude...),
		logger:   logger,
		stdout:   stdout,
		debounce: debounce,
		baseDir:  absBase,
	}

	for _, dir := range cfg.Dirs {
		abs := filepath.Join(absBase, dir)
		if err := fsw.Add(abs); err != nil {
			fsw.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("watch: add directory %q: %w", abs, err)
		}
	}

	return w, nil
}

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire runs from time.AfterFunc. A trigger that lands while a previous
	// callback is still running re-arms the timer so pending changes are not
	// dropped.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("regeneration still running, deferring")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.ClearScreen {
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}

		w.logger.Info("sources changed", "files", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("regeneration failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if !w.relevant(evt) {
				continue
			}

			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			w.logger.Debug("event", "op", evt.Op.String(), "path", rel)

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// relevant drops attribute-only changes and ignored names.
func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if evt.Op == fsnotify.Chmod {
		return false
	}
	return !w.isIgnored(filepath.Base(evt.Name))
}

// isIgnored reports whether a file name matches an exclude or editor pattern.
func (w *Watcher) isIgnored(name string) bool {
	for _, pat := range w.ignores {
		if matched, err := doublestar.Match(pat, name); err == nil && matched {
			return true
		}
	}
	return false
}

// isFatal reports resource exhaustion, after which the watcher cannot
// recover. fatalErrnos is defined per platform.
func isFatal(err error) bool {
	for _, errno := range fatalErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
