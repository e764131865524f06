package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/apiscan"
)

type recorder struct {
	mu     sync.Mutex
	events []apiscan.Event
}

func (r *recorder) Handle(_ context.Context, ev apiscan.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []apiscan.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]apiscan.Event(nil), r.events...)
}

func newTestWatcher(t *testing.T, root string, h Handler, opts Options) *Watcher {
	t.Helper()
	w, err := New(root, &apiscan.DirSource{Root: root, NoGit: true}, h, opts)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func jsOnly(rel string) bool { return strings.HasSuffix(rel, ".js") }

func TestClassify(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	w := newTestWatcher(t, root, &recorder{}, Options{
		Accept: jsOnly,
		Skip:   func(name string) bool { return name == "node_modules" },
	})

	tests := []struct {
		name   string
		ev     fsnotify.Event
		want   apiscan.EventKind
		wantOK bool
	}{
		{"create file", fsnotify.Event{Name: filepath.Join(root, "a.js"), Op: fsnotify.Create}, apiscan.Created, true},
		{"create other file", fsnotify.Event{Name: filepath.Join(root, "a.txt"), Op: fsnotify.Create}, apiscan.Created, false},
		{"create dir", fsnotify.Event{Name: filepath.Join(root, "sub"), Op: fsnotify.Create}, apiscan.Created, true},
		{"remove", fsnotify.Event{Name: filepath.Join(root, "a.txt"), Op: fsnotify.Remove}, apiscan.Deleted, true},
		{"rename", fsnotify.Event{Name: filepath.Join(root, "b.js"), Op: fsnotify.Rename}, apiscan.Renamed, true},
		{"write", fsnotify.Event{Name: filepath.Join(root, "b.js"), Op: fsnotify.Write}, apiscan.Changed, true},
		{"write other", fsnotify.Event{Name: filepath.Join(root, "b.md"), Op: fsnotify.Write}, apiscan.Changed, false},
		{"chmod", fsnotify.Event{Name: filepath.Join(root, "b.js"), Op: fsnotify.Chmod}, 0, false},
		{"skipped dir", fsnotify.Event{Name: filepath.Join(root, "node_modules", "x.js"), Op: fsnotify.Write}, 0, false},
		{"hidden dir", fsnotify.Event{Name: filepath.Join(root, ".git", "index"), Op: fsnotify.Write}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, _, ok := w.classify(tt.ev)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, kind)
			}
		})
	}
}

func TestRun_WriteDeliversChangedDocument(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.js")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	rec := &recorder{}
	w := newTestWatcher(t, root, rec, Options{Accept: jsOnly, Debounce: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the root.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("// @api func alpha A.\n"), 0o644))

	require.Eventually(t, func() bool {
		for _, ev := range rec.snapshot() {
			if ev.Kind == apiscan.Changed && ev.Document != nil &&
				strings.Contains(ev.Document.Text, "alpha") {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	for _, ev := range rec.snapshot() {
		if ev.Kind == apiscan.Changed {
			assert.Equal(t, path, ev.Document.Path)
			assert.Equal(t, "javascript", ev.Document.LanguageID)
		}
	}

	cancel()
	require.NoError(t, <-done)
}

func TestRun_CreateAndRemoveTriggerRebuild(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	w := newTestWatcher(t, root, rec, Options{Accept: jsOnly, Debounce: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(root, "new.js")
	require.NoError(t, os.WriteFile(path, []byte("// @api func n N.\n"), 0o644))
	require.Eventually(t, func() bool {
		for _, ev := range rec.snapshot() {
			if ev.Kind == apiscan.Created {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		for _, ev := range rec.snapshot() {
			if ev.Kind == apiscan.Deleted {
				return ev.Document == nil
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRun_DrivesEngine(t *testing.T) {
	root := t.TempDir()
	src := &apiscan.DirSource{Root: root, NoGit: true}
	e := apiscan.New(src, apiscan.DefaultConfig(), apiscan.WithRoot(root))
	e.RebuildAll(context.Background())

	w, err := New(root, src, e, Options{Accept: jsOnly, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.js"), []byte("// @api func helper Helps.\n"), 0o644))
	require.Eventually(t, func() bool {
		return e.Query().ByAlias("helper") != nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNew_DefaultsApplied(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), &recorder{}, Options{})
	assert.Equal(t, DefaultDebounce, w.opts.Debounce)
	assert.NotNil(t, w.opts.Logger)
	assert.True(t, w.accept("anything"))
}
