package store

import "time"

// Annotation is one "@api <type> <alias> <description>" tag found in a
// source comment. Alias is the index's dedup key.
type Annotation struct {
	Type        string
	Alias       string
	Description string
	Source      string
}

// Metadata keys written alongside a snapshot.
const (
	MetaGeneration = "generation"
	MetaBuiltAt    = "built_at"
	MetaRoot       = "root"
)

// SnapshotInfo summarizes a stored snapshot.
type SnapshotInfo struct {
	Records    int
	Sources    int
	Generation string
	BuiltAt    time.Time
}
