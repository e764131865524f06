package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a SQLite snapshot of the annotation index for consumers outside
// the process. The engine only ever writes to it.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the snapshot tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS annotations (
  id              INTEGER PRIMARY KEY,
  ordinal         INTEGER NOT NULL,
  alias           TEXT NOT NULL UNIQUE,
  type            TEXT NOT NULL,
  description     TEXT NOT NULL,
  source          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_annotations_source ON annotations(source);
CREATE INDEX IF NOT EXISTS idx_annotations_type ON annotations(type);
`

// ReplaceAnnotations transactionally swaps the stored snapshot for anns.
// anns must already be deduplicated by alias; the insertion order is kept
// in the ordinal column.
func (s *Store) ReplaceAnnotations(anns []Annotation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace annotations: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM annotations"); err != nil {
		return fmt.Errorf("replace annotations: clear: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO annotations (ordinal, alias, type, description, source) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("replace annotations: prepare: %w", err)
	}
	defer stmt.Close()

	for i, a := range anns {
		if _, err := stmt.Exec(i, a.Alias, a.Type, a.Description, a.Source); err != nil {
			return fmt.Errorf("replace annotations: insert %q: %w", a.Alias, err)
		}
	}
	if _, err := tx.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		MetaBuiltAt, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("replace annotations: built_at: %w", err)
	}
	return tx.Commit()
}

// Annotations returns every stored annotation in snapshot order.
func (s *Store) Annotations() ([]Annotation, error) {
	return s.queryAnnotations(
		"SELECT type, alias, description, source FROM annotations ORDER BY ordinal",
	)
}

// AnnotationsBySource returns the stored annotations contributed by one document.
func (s *Store) AnnotationsBySource(source string) ([]Annotation, error) {
	return s.queryAnnotations(
		"SELECT type, alias, description, source FROM annotations WHERE source = ? ORDER BY ordinal",
		source,
	)
}

// annotationByAlias returns the annotation stored under alias, or nil.
func (s *Store) annotationByAlias(alias string) (*Annotation, error) {
	a := &Annotation{}
	err := s.db.QueryRow(
		"SELECT type, alias, description, source FROM annotations WHERE alias = ?", alias,
	).Scan(&a.Type, &a.Alias, &a.Description, &a.Source)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("annotation by alias: %w", err)
	}
	return a, nil
}

func (s *Store) queryAnnotations(query string, args ...any) ([]Annotation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer rows.Close()
	var anns []Annotation
	for rows.Next() {
		var a Annotation
		if err := rows.Scan(&a.Type, &a.Alias, &a.Description, &a.Source); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		anns = append(anns, a)
	}
	return anns, rows.Err()
}

// SetMetadata stores a key/value pair, overwriting any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// GetMetadata returns the value for key, or "" when it is unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return v, nil
}

// Info summarizes the stored snapshot.
func (s *Store) Info() (SnapshotInfo, error) {
	var info SnapshotInfo
	err := s.db.QueryRow(
		"SELECT COUNT(*), COUNT(DISTINCT source) FROM annotations",
	).Scan(&info.Records, &info.Sources)
	if err != nil {
		return info, fmt.Errorf("snapshot info: %w", err)
	}
	if info.Generation, err = s.GetMetadata(MetaGeneration); err != nil {
		return info, err
	}
	builtAt, err := s.GetMetadata(MetaBuiltAt)
	if err != nil {
		return info, err
	}
	if builtAt != "" {
		info.BuiltAt, _ = time.Parse(time.RFC3339Nano, builtAt)
	}
	return info, nil
}
