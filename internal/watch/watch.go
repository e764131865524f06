// Package watch turns filesystem notifications into index events: files
// created, removed or renamed trigger a full rebuild, and writes to a file
// trigger an incremental update of that document.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jward/apiscan"
	"github.com/jward/apiscan/internal/syntax"
)

// DefaultDebounce is the quiet period before queued events are delivered.
const DefaultDebounce = 200 * time.Millisecond

// Handler receives index events. *apiscan.Engine satisfies it.
type Handler interface {
	Handle(ctx context.Context, ev apiscan.Event)
}

// Options configures a Watcher.
type Options struct {
	// Accept filters files by path relative to the root. Nil accepts all.
	Accept func(rel string) bool
	// Skip reports whether a directory name should not be watched.
	// Hidden directories are always skipped.
	Skip     func(name string) bool
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher delivers fsnotify events under a root directory to a Handler.
type Watcher struct {
	root    string
	source  apiscan.DocumentSource
	handler Handler
	opts    Options
	fsw     *fsnotify.Watcher
}

// New creates a Watcher for root. Documents for write events are loaded
// through source.
func New(root string, source apiscan.DocumentSource, handler Handler, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{root: root, source: source, handler: handler, opts: opts, fsw: fsw}, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	var (
		structural apiscan.EventKind
		changed    = make(map[string]bool)
		timer      = time.NewTimer(w.opts.Debounce)
	)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			kind, path, ok := w.classify(ev)
			if !ok {
				continue
			}
			if kind == apiscan.Changed {
				changed[path] = true
			} else {
				structural = kind
			}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watch error", "err", err)

		case <-timer.C:
			w.flush(ctx, structural, changed)
			structural = 0
			clear(changed)
		}
	}
}

// flush delivers queued events. A pending rebuild covers every changed
// document, so those are dropped.
func (w *Watcher) flush(ctx context.Context, structural apiscan.EventKind, changed map[string]bool) {
	if structural != 0 {
		w.opts.Logger.Debug("structural change", "kind", structural.String())
		w.handler.Handle(ctx, apiscan.Event{Kind: structural})
		return
	}
	for path := range changed {
		text, err := w.source.LoadText(ctx, path)
		if err != nil {
			w.opts.Logger.Debug("skipping changed file", "path", path, "err", err)
			continue
		}
		w.handler.Handle(ctx, apiscan.Event{
			Kind: apiscan.Changed,
			Document: &apiscan.Document{
				Path:       path,
				LanguageID: syntax.LanguageForFile(path),
				Text:       text,
			},
		})
	}
}

// classify maps a raw notification to an event kind. ok is false for
// events that should be ignored.
func (w *Watcher) classify(ev fsnotify.Event) (kind apiscan.EventKind, path string, ok bool) {
	path = ev.Name
	rel, err := filepath.Rel(w.root, path)
	if err != nil || w.ignoredPath(rel) {
		return 0, "", false
	}

	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.opts.Logger.Warn("watch new directory", "path", path, "err", err)
			}
			return apiscan.Created, path, true
		}
		return apiscan.Created, path, w.accept(rel)
	case ev.Has(fsnotify.Remove):
		return apiscan.Deleted, path, true
	case ev.Has(fsnotify.Rename):
		return apiscan.Renamed, path, true
	case ev.Has(fsnotify.Write):
		return apiscan.Changed, path, w.accept(rel)
	}
	return 0, "", false
}

func (w *Watcher) accept(rel string) bool {
	return w.opts.Accept == nil || w.opts.Accept(rel)
}

// ignoredPath reports whether any directory in rel is hidden or skipped.
func (w *Watcher) ignoredPath(rel string) bool {
	segs := strings.Split(filepath.ToSlash(rel), "/")
	for _, seg := range segs[:len(segs)-1] {
		if w.skipDir(seg) {
			return true
		}
	}
	return false
}

func (w *Watcher) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	return w.opts.Skip != nil && w.opts.Skip(name)
}

// addRecursive adds a directory and all its subdirectories to the watch list.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.opts.Logger.Debug("watch add failed", "path", path, "err", err)
		}
		return nil
	})
}
