// Package config loads scan settings from a TOML file.
//
// Example .apiscan.toml:
//
//	languages = ["javascript", "typescript", "vue"]
//	exclude_folders = ["node_modules", "dist"]
//
// A missing file or a missing key keeps the built-in default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"
)

// FileName is the settings file looked up in a workspace root.
const FileName = ".apiscan.toml"

// Settings is the decoded settings file.
type Settings struct {
	Languages      []string `toml:"languages"`
	ExcludeFolders []string `toml:"exclude_folders"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Languages:      []string{"javascript", "typescript"},
		ExcludeFolders: []string{"node_modules"},
	}
}

// Load decodes path over the defaults. A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Defaults()
	var raw struct {
		Languages      *[]string `toml:"languages"`
		ExcludeFolders *[]string `toml:"exclude_folders"`
	}
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return s, fmt.Errorf("decode %s: unknown keys %v", path, undecoded)
	}
	if raw.Languages != nil {
		s.Languages = *raw.Languages
	}
	if raw.ExcludeFolders != nil {
		s.ExcludeFolders = *raw.ExcludeFolders
	}
	return s, nil
}

// Save writes s to path as TOML.
func Save(path string, s Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// File is a config provider backed by a settings file. Languages re-reads
// the file, so edits apply from the next rebuild on; ExcludeFolders returns
// the value read alongside it. A file that fails to decode keeps the last
// good settings.
type File struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	current Settings
}

// NewFile returns a provider for path, loading it once up front.
func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	f := &File{path: path, logger: logger, current: Defaults()}
	f.reload()
	return f
}

// Path returns the settings file path.
func (f *File) Path() string {
	return f.path
}

func (f *File) reload() Settings {
	s, err := Load(f.path)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.logger.Warn("config reload failed, keeping previous settings", "path", f.path, "err", err)
		return f.current
	}
	f.current = s
	return s
}

// Languages reloads the file and returns the configured languages.
func (f *File) Languages() []string {
	return slices.Clone(f.reload().Languages)
}

// ExcludeFolders returns the folder names from the most recent load.
func (f *File) ExcludeFolders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.current.ExcludeFolders)
}

// Settings returns the most recently loaded settings.
func (f *File) Settings() Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}
