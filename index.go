package apiscan

import "sync"

// Dedupe returns records with every alias kept only at its first
// occurrence, in first-occurrence order. It is idempotent.
func Dedupe(records []Annotation) []Annotation {
	seen := make(map[string]bool, len(records))
	out := make([]Annotation, 0, len(records))
	for _, r := range records {
		if seen[r.Alias] {
			continue
		}
		seen[r.Alias] = true
		out = append(out, r)
	}
	return out
}

// Index is the in-memory annotation index. Aliases are unique within it.
//
// Published slices are never mutated: writers compute a new slice and swap
// it in, so a Snapshot stays valid after later writes.
type Index struct {
	mu      sync.RWMutex
	records []Annotation
	version uint64
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{}
}

// Snapshot returns the current records. Callers must not modify the slice.
func (ix *Index) Snapshot() []Annotation {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.records
}

// Len returns the number of records.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// Version increments on every write.
func (ix *Index) Version() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version
}

// Replace swaps the whole index for the deduplicated records.
func (ix *Index) Replace(records []Annotation) {
	deduped := Dedupe(records)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.records = deduped
	ix.version++
}

// replaceIf swaps in records only when check, evaluated under the write
// lock, returns true.
func (ix *Index) replaceIf(records []Annotation, check func() bool) bool {
	deduped := Dedupe(records)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if !check() {
		return false
	}
	ix.records = deduped
	ix.version++
	return true
}

// Merge folds freshly extracted records for one source document into the
// index. Records that source contributed before are retracted when their
// alias is no longer produced and updated in place when it still is; new
// aliases are appended. A record from another source keeps its alias.
func (ix *Index) Merge(source string, fresh []Annotation) {
	byAlias := make(map[string]Annotation, len(fresh))
	for _, r := range fresh {
		if _, ok := byAlias[r.Alias]; !ok {
			byAlias[r.Alias] = r
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	merged := make([]Annotation, 0, len(ix.records)+len(fresh))
	for _, r := range ix.records {
		if r.Source != source {
			merged = append(merged, r)
			continue
		}
		if nr, ok := byAlias[r.Alias]; ok {
			merged = append(merged, nr)
		}
	}
	merged = append(merged, fresh...)
	ix.records = Dedupe(merged)
	ix.version++
}
