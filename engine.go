package apiscan

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jward/apiscan/internal/extract"
	"github.com/jward/apiscan/internal/store"
	"github.com/jward/apiscan/internal/syntax"
)

// Engine owns the annotation Index and keeps it current: full rebuilds from
// a DocumentSource, incremental updates from open documents, and query
// access. Neither update path returns an error; failures are logged and
// degrade to fewer records.
type Engine struct {
	index  *Index
	source DocumentSource
	config ConfigProvider
	logger *slog.Logger

	// root relativizes source paths in suggestion details.
	root        string
	concurrency int

	// snapshot, when set, receives a copy of the index after every write.
	snapshot *store.Store
	snapMu   sync.Mutex

	// generation counts started rebuilds; a rebuild that finishes after a
	// newer one started discards its result.
	generation atomic.Uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRoot sets the workspace root used to show source paths relative to
// it in suggestion details.
func WithRoot(root string) Option {
	return func(e *Engine) {
		e.root = root
	}
}

// WithConcurrency bounds the number of files loaded at once during a full
// rebuild. Values below 1 select runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithSnapshot mirrors the index into a SQLite store after every write.
// The Engine never reads the snapshot back.
func WithSnapshot(s *store.Store) Option {
	return func(e *Engine) {
		e.snapshot = s
	}
}

// New creates an Engine with an empty Index. A nil cfg uses DefaultConfig.
func New(src DocumentSource, cfg ConfigProvider, opts ...Option) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		index:  NewIndex(),
		source: src,
		config: cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.concurrency < 1 {
		e.concurrency = runtime.NumCPU()
	}
	return e
}

// Index returns the Engine's index.
func (e *Engine) Index() *Index {
	return e.index
}

// Query returns a QueryBuilder reading the Engine's index.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{index: e.index, root: e.root}
}

// FileQuery returns the file filter for the current configuration.
func (e *Engine) FileQuery() FileQuery {
	return FileQuery{
		Extensions:     syntax.Extensions(e.config.Languages()),
		ExcludeFolders: e.config.ExcludeFolders(),
	}
}

// RebuildResult summarizes one full rebuild.
type RebuildResult struct {
	Generation uint64
	Discovered int
	Loaded     int
	Skipped    int
	Records    int
	Duration   time.Duration
	// Superseded is set when a newer rebuild started before this one
	// finished, or the context was cancelled; the index was left untouched.
	Superseded bool
}

// UpdateOne re-extracts a single document and merges the result into the
// index, retracting aliases the document no longer declares. A document over
// the size ceiling is ignored and keeps whatever it contributed before.
func (e *Engine) UpdateOne(ctx context.Context, doc Document) {
	if extract.TooLarge(doc.Text) {
		e.logger.Debug("document too large, keeping previous records", "path", doc.Path, "bytes", len(doc.Text))
		return
	}
	fresh := extract.Extract(doc.Text, syntax.Resolve(doc.LanguageID), doc.Path)
	e.index.Merge(doc.Path, fresh)
	e.logger.Debug("document updated",
		"path", doc.Path,
		"language", doc.LanguageID,
		"fallback_syntax", !syntax.Registered(doc.LanguageID),
		"records", len(fresh),
		"total", e.index.Len(),
	)
	e.writeSnapshot()
}

// Handle dispatches an event-source trigger: structural changes rebuild the
// whole index, document opens and edits update that document only.
func (e *Engine) Handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case Created, Deleted, Renamed:
		e.RebuildAll(ctx)
	case Opened, Changed:
		if ev.Document == nil {
			e.logger.Warn("document event without document", "kind", ev.Kind.String())
			return
		}
		e.UpdateOne(ctx, *ev.Document)
	default:
		e.logger.Warn("unknown event kind", "kind", int(ev.Kind))
	}
}

// writeSnapshot mirrors the current index into the snapshot store.
func (e *Engine) writeSnapshot() {
	if e.snapshot == nil {
		return
	}
	e.snapMu.Lock()
	defer e.snapMu.Unlock()
	if err := e.snapshot.ReplaceAnnotations(e.index.Snapshot()); err != nil {
		e.logger.Warn("snapshot write failed", "err", err)
		return
	}
	gen := strconv.FormatUint(e.generation.Load(), 10)
	if err := e.snapshot.SetMetadata(store.MetaGeneration, gen); err != nil {
		e.logger.Warn("snapshot metadata write failed", "key", store.MetaGeneration, "err", err)
	}
	if e.root != "" {
		if err := e.snapshot.SetMetadata(store.MetaRoot, e.root); err != nil {
			e.logger.Warn("snapshot metadata write failed", "key", store.MetaRoot, "err", err)
		}
	}
}
