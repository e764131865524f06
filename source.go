package apiscan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jward/apiscan/internal/syntax"
)

// ErrBinary is returned by DirSource.LoadText for content that is not text.
var ErrBinary = errors.New("binary content")

// FileQuery selects workspace files: any file whose name ends in one of
// Extensions (all files when empty), outside any folder named in
// ExcludeFolders.
type FileQuery struct {
	Extensions     []string
	ExcludeFolders []string
}

// IncludeGlob renders the extension filter as a brace-expanded glob.
func (q FileQuery) IncludeGlob() string { return syntax.IncludeGlob(q.Extensions) }

// ExcludeGlob renders the folder filter as a glob, or "" for none.
func (q FileQuery) ExcludeGlob() string { return syntax.ExcludeGlob(q.ExcludeFolders) }

// Match reports whether the slash- or OS-separated relative path rel is
// selected by q.
func (q FileQuery) Match(rel string) bool {
	segs := strings.Split(filepath.ToSlash(rel), "/")
	for _, seg := range segs[:len(segs)-1] {
		if q.excluded(seg) {
			return false
		}
	}
	if len(q.Extensions) == 0 {
		return true
	}
	name := segs[len(segs)-1]
	for _, ext := range q.Extensions {
		if strings.HasSuffix(name, "."+ext) {
			return true
		}
	}
	return false
}

func (q FileQuery) excluded(dir string) bool {
	for _, f := range q.ExcludeFolders {
		if dir == f {
			return true
		}
	}
	return false
}

// DocumentSource discovers workspace files and loads their text.
type DocumentSource interface {
	FindFiles(ctx context.Context, q FileQuery) ([]string, error)
	LoadText(ctx context.Context, path string) (string, error)
}

// DirSource is a DocumentSource over a directory tree on disk. Paths it
// returns are absolute.
type DirSource struct {
	Root string
	// NoGit disables git ls-files discovery and always walks the tree.
	NoGit bool
}

// NewDirSource returns a DirSource rooted at the absolute form of root.
func NewDirSource(root string) (*DirSource, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	return &DirSource{Root: abs}, nil
}

// FindFiles lists matching files. If Root is inside a git repository, git
// ls-files is used so .gitignore is respected; otherwise the tree is walked,
// skipping hidden directories.
func (s *DirSource) FindFiles(ctx context.Context, q FileQuery) ([]string, error) {
	if !s.NoGit {
		if paths, err := s.gitListFiles(ctx, q); err == nil {
			return paths, nil
		}
	}
	return s.walkListFiles(ctx, q)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under Root.
func (s *DirSource) gitListFiles(ctx context.Context, q FileQuery) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	// -z: NUL-terminated and unquoted, so non-ASCII names come through as is.
	cmd := exec.CommandContext(ctx, "git", "ls-files", "-z", "--cached", "--others", "--exclude-standard")
	cmd.Dir = s.Root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, rel := range strings.Split(stdout.String(), "\x00") {
		if rel == "" || !q.Match(rel) {
			continue
		}
		paths = append(paths, filepath.Join(s.Root, filepath.FromSlash(rel)))
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used when git is
// not available.
func (s *DirSource) walkListFiles(ctx context.Context, q FileQuery) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.Root {
				return err
			}
			return nil // unreadable entries are skipped, not fatal
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			name := d.Name()
			if path != s.Root && (strings.HasPrefix(name, ".") || q.excluded(name)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return nil
		}
		if q.Match(rel) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// LoadText reads path as text. Content with a NUL byte or invalid UTF-8 is
// rejected with ErrBinary.
func (s *DirSource) LoadText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content) {
		return "", fmt.Errorf("load %s: %w", path, ErrBinary)
	}
	return string(content), nil
}
