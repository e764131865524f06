package apiscan

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jward/apiscan/internal/extract"
	"github.com/jward/apiscan/internal/syntax"
)

// fileResult holds one file's extraction output.
type fileResult struct {
	path    string
	records []Annotation
	err     error
}

// RebuildAll re-scans every matching workspace file and replaces the index.
// It runs in three phases:
//
//	Phase A (serial):   Read configuration and discover files.
//	Phase B (parallel): Load and extract each file, bounded by concurrency.
//	Phase C (serial):   Concatenate in path order, dedupe, swap the index.
//
// A file that cannot be loaded contributes nothing and does not stop the
// others. If discovery fails, the index is left as it was.
func (e *Engine) RebuildAll(ctx context.Context) RebuildResult {
	start := time.Now()
	gen := e.generation.Add(1)
	res := RebuildResult{Generation: gen}

	// ---- Phase A: configuration and discovery ----
	q := e.FileQuery()
	paths, err := e.source.FindFiles(ctx, q)
	if err != nil {
		e.logger.Warn("file discovery failed", "include", q.IncludeGlob(), "exclude", q.ExcludeGlob(), "err", err)
		res.Superseded = ctx.Err() != nil
		res.Duration = time.Since(start)
		return res
	}
	// Sorting makes first-seen-wins deterministic across files.
	sort.Strings(paths)
	res.Discovered = len(paths)

	// ---- Phase B: parallel load and extract ----
	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = e.loadFile(gctx, path)
			return nil
		})
	}
	_ = g.Wait()

	// ---- Phase C: serial merge ----
	var all []Annotation
	for _, r := range results {
		if r.err != nil {
			res.Skipped++
			e.logger.Warn("skipping unreadable file", "path", r.path, "err", r.err)
			continue
		}
		res.Loaded++
		all = append(all, r.records...)
	}

	if ctx.Err() != nil {
		res.Superseded = true
		res.Duration = time.Since(start)
		e.logger.Info("rebuild cancelled", "generation", gen, "err", ctx.Err())
		return res
	}

	swapped := e.index.replaceIf(all, func() bool {
		return e.generation.Load() == gen
	})
	res.Duration = time.Since(start)
	if !swapped {
		res.Superseded = true
		e.logger.Info("rebuild superseded", "generation", gen, "duration", res.Duration)
		return res
	}
	res.Records = e.index.Len()
	e.logger.Info("index rebuilt",
		"generation", gen,
		"files", res.Discovered,
		"skipped", res.Skipped,
		"records", res.Records,
		"duration", res.Duration.Round(time.Millisecond),
	)
	e.writeSnapshot()
	return res
}

// loadFile loads one discovered file and extracts its annotations using the
// comment syntax of the language detected from its extension.
func (e *Engine) loadFile(ctx context.Context, path string) fileResult {
	text, err := e.source.LoadText(ctx, path)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	lang := syntax.LanguageForFile(path)
	return fileResult{
		path:    path,
		records: extract.Extract(text, syntax.Resolve(lang), path),
	}
}
