package apiscan

import "github.com/jward/apiscan/internal/store"

// Public type aliases for internal store types used in the Engine and
// QueryBuilder APIs.

type Annotation = store.Annotation
type Store = store.Store

// Document is one open document as reported by the host: its identity,
// language identifier and current full text.
type Document struct {
	Path       string
	LanguageID string
	Text       string
}

// EventKind is the reason the host is notifying the Engine.
type EventKind int

const (
	// Created, Deleted and Renamed change the set of workspace files and
	// trigger a full rebuild.
	Created EventKind = iota + 1
	Deleted
	Renamed
	// Opened and Changed carry a Document and trigger an incremental update.
	Opened
	Changed
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	case Opened:
		return "opened"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// Event is a trigger delivered by an event source.
type Event struct {
	Kind     EventKind
	Document *Document // set for Opened and Changed
}

// ConfigProvider supplies the scan configuration. It is consulted at the
// start of every full rebuild.
type ConfigProvider interface {
	// Languages lists language names (or literal file extensions) to scan.
	Languages() []string
	// ExcludeFolders lists folder names skipped anywhere in the tree.
	ExcludeFolders() []string
}

// DefaultLanguages and DefaultExcludeFolders apply when no configuration
// overrides them.
var (
	DefaultLanguages      = []string{"javascript", "typescript"}
	DefaultExcludeFolders = []string{"node_modules"}
)

// StaticConfig is a ConfigProvider with fixed values.
type StaticConfig struct {
	Langs    []string
	Excludes []string
}

func (c StaticConfig) Languages() []string      { return c.Langs }
func (c StaticConfig) ExcludeFolders() []string { return c.Excludes }

// DefaultConfig returns a StaticConfig holding the defaults.
func DefaultConfig() StaticConfig {
	return StaticConfig{Langs: DefaultLanguages, Excludes: DefaultExcludeFolders}
}
