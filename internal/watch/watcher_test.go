// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newSourceDir(t *testing.T) (root, src string) {
	t.Helper()
	root = t.TempDir()
	src = filepath.Join(root, "shaders", "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	return root, src
}

func startWatcher(t *testing.T, w *Watcher) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	return func() {
		cancelCtx()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error: %v", err)
		}
	}
}

// Rapid writes coalesce into a single callback with every changed source.
func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()

	root, src := newSourceDir(t)

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)
	done := make(chan struct{})

	w, err := New(Config{
		BaseDir:  root,
		Dirs:     []string{filepath.Join("shaders", "src")},
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			if calls == 1 {
				close(done)
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)

	for _, name := range []string{"a.vert", "b.frag", "c.comp"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte("#version 450\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(200 * time.Millisecond)
	stop()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("expected 1 debounced callback, got %d", calls)
	}
	for _, name := range []string{"a.vert", "b.frag", "c.comp"} {
		want := filepath.Join("shaders", "src", name)
		if !slices.Contains(collected, want) {
			t.Errorf("expected %q in changed files, got %v", want, collected)
		}
	}
}

// Excluded names and editor swap files never trigger a regeneration.
func TestWatcher_IgnoresExcludedNames(t *testing.T) {
	t.Parallel()

	root, src := newSourceDir(t)
	fired := make(chan []string, 10)

	w, err := New(Config{
		BaseDir:  root,
		Dirs:     []string{filepath.Join("shaders", "src")},
		Exclude:  []string{".*"},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			fired <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	for _, name := range []string{".hidden.vert", "a.vert.swp", "a.vert~"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case changed := <-fired:
		t.Errorf("callback fired for ignored files: %v", changed)
	case <-time.After(400 * time.Millisecond):
	}
}

// A slow callback does not run concurrently with the next trigger.
func TestWatcher_NoOverlappingRuns(t *testing.T) {
	t.Parallel()

	root, src := newSourceDir(t)

	var (
		active  int32
		overlap bool
		mu      sync.Mutex
		runs    int
	)
	second := make(chan struct{})

	w, err := New(Config{
		BaseDir:  root,
		Dirs:     []string{filepath.Join("shaders", "src")},
		Debounce: 30 * time.Millisecond,
		OnChange: func(context.Context, []string) error {
			mu.Lock()
			active++
			if active > 1 {
				overlap = true
			}
			runs++
			n := runs
			mu.Unlock()

			time.Sleep(200 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			if n == 2 {
				close(second)
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	write := func(name string) {
		if err := os.WriteFile(filepath.Join(src, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.vert")
	time.Sleep(100 * time.Millisecond) // first callback is now running
	write("b.frag")

	select {
	case <-second:
	case <-time.After(5 * time.Second):
		t.Fatal("deferred change never regenerated")
	}

	mu.Lock()
	defer mu.Unlock()
	if overlap {
		t.Error("callbacks overlapped")
	}
}

func TestWatcher_CallbackErrorKeepsWatching(t *testing.T) {
	t.Parallel()

	root, src := newSourceDir(t)
	calls := make(chan struct{}, 10)

	w, err := New(Config{
		BaseDir:  root,
		Dirs:     []string{filepath.Join("shaders", "src")},
		Debounce: 30 * time.Millisecond,
		OnChange: func(context.Context, []string) error {
			calls <- struct{}{}
			return fmt.Errorf("compile failed")
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	for i := range 2 {
		if err := os.WriteFile(filepath.Join(src, fmt.Sprintf("s%d.comp", i)), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("callback %d never fired", i+1)
		}
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	root, _ := newSourceDir(t)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"no dirs", Config{BaseDir: root}},
		{"missing dir", Config{BaseDir: root, Dirs: []string{"nope"}}},
		{"bad exclude", Config{BaseDir: root, Dirs: []string{"shaders/src"}, Exclude: []string{"[a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(tt.cfg); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

func TestRun_Twice(t *testing.T) {
	t.Parallel()

	root, _ := newSourceDir(t)
	w, err := New(Config{BaseDir: root, Dirs: []string{filepath.Join("shaders", "src")}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if err := w.Run(ctx); err == nil {
		t.Error("second Run() expected error")
	}
}

func TestRelevant(t *testing.T) {
	t.Parallel()

	w := &Watcher{ignores: append(slices.Clone(editorNoise), ".*")}
	tests := []struct {
		evt  fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/r/a.vert", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/r/a.vert", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "/r/a.vert", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/r/.a.vert", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "/r/a.vert.swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := w.relevant(tt.evt); got != tt.want {
			t.Errorf("relevant(%v) = %v, want %v", tt.evt, got, tt.want)
		}
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	for _, errno := range fatalErrnos {
		if !isFatal(fmt.Errorf("wrapped: %w", errno)) {
			t.Errorf("isFatal(%v) = false", errno)
		}
	}
	if isFatal(errors.New("transient")) {
		t.Error("isFatal(transient) = true")
	}
	if isFatal(syscall.EINTR) {
		t.Error("isFatal(EINTR) = true")
	}
}
