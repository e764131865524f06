package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	s, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoad_OverridesKeys(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), `
languages = ["python", "vue"]
exclude_folders = ["dist", "build"]
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "vue"}, s.Languages)
	assert.Equal(t, []string{"dist", "build"}, s.ExcludeFolders)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), `languages = ["go"]`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, s.Languages)
	assert.Equal(t, []string{"node_modules"}, s.ExcludeFolders)
}

func TestLoad_EmptyListIsExplicit(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), `exclude_folders = []`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, s.ExcludeFolders)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `languages = [`},
		{"wrong type", `languages = "go"`},
		{"unknown key", `langs = ["go"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, t.TempDir(), tt.content))
			require.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), FileName)
	want := Settings{Languages: []string{"ruby"}, ExcludeFolders: []string{"vendor"}}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFile_ReloadsOnLanguages(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, FileName), nil)
	assert.Equal(t, []string{"javascript", "typescript"}, f.Languages())

	writeConfig(t, dir, `
languages = ["php"]
exclude_folders = ["vendor"]
`)
	assert.Equal(t, []string{"php"}, f.Languages())
	assert.Equal(t, []string{"vendor"}, f.ExcludeFolders())
}

func TestFile_BadEditKeepsLastGood(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeConfig(t, dir, `languages = ["go"]`)
	var logs bytes.Buffer
	f := NewFile(filepath.Join(dir, FileName), slog.New(slog.NewTextHandler(&logs, nil)))
	require.Equal(t, []string{"go"}, f.Languages())

	writeConfig(t, dir, `languages = [`)
	assert.Equal(t, []string{"go"}, f.Languages())
	assert.Contains(t, logs.String(), "config reload failed")
}

func TestFile_ReturnsCopies(t *testing.T) {
	t.Parallel()
	f := NewFile(filepath.Join(t.TempDir(), FileName), nil)
	langs := f.Languages()
	langs[0] = "mutated"
	assert.Equal(t, "javascript", f.Languages()[0])
}
