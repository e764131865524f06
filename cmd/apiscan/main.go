package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/apiscan"
	"github.com/jward/apiscan/internal/config"
	"github.com/jward/apiscan/internal/store"
)

var (
	flagConfig    string
	flagFormat    string
	flagVerbose   bool
	flagLanguages string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "apiscan",
	Short:         "Index @api comment annotations and complete against them",
	Long:          "Apiscan scans a workspace for @api annotations in code comments and answers completion queries against the resulting index.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "settings file (default: .apiscan.toml in the scanned directory)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&flagLanguages, "languages", "", "comma-separated languages or extensions, overriding the settings file (e.g. go,vue)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
}

var (
	flagDB   string
	flagNoDB bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Scan a directory and write the annotation snapshot",
	Long:  "Runs a full rebuild over the directory and writes the resulting records to a SQLite snapshot.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagDB, "db", "", "snapshot path (default: .apiscan/index.db relative to repo root)")
	indexCmd.Flags().BoolVar(&flagNoDB, "no-db", false, "skip writing the snapshot")
}

func runIndex(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("index", err)
	}

	var opts []apiscan.Option
	dbPath := ""
	if !flagNoDB {
		dbPath = resolveDBPath(findRepoRoot(targetDir))
		snap, err := openSnapshot(dbPath)
		if err != nil {
			return outputError("index", err)
		}
		defer snap.Close()
		opts = append(opts, apiscan.WithSnapshot(snap))
	}

	engine := newEngine(cmd, targetDir, opts...)
	res := engine.RebuildAll(contextOrBackground(cmd))
	if res.Superseded {
		return outputError("index", fmt.Errorf("indexing %s: interrupted", targetDir))
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Indexed %s in %s (%d files, %d skipped, %d records)\n",
		targetDir, res.Duration.Round(time.Millisecond), res.Loaded, res.Skipped, res.Records)
	if dbPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Database: %s\n", dbPath)
	}

	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command: "index",
		Results: toCLIRebuild(res, dbPath),
	})
}

// newEngine builds an Engine scanning dir with the settings file from
// --config or dir.
func newEngine(cmd *cobra.Command, dir string, opts ...apiscan.Option) *apiscan.Engine {
	logger := newLogger(cmd.ErrOrStderr())
	file := config.NewFile(resolveConfigPath(dir), logger)
	settings := file.Settings()
	logger.Debug("settings loaded",
		"path", file.Path(),
		"languages", settings.Languages,
		"exclude_folders", settings.ExcludeFolders,
	)
	var cfg apiscan.ConfigProvider = file
	if langs := trimArgs(flagLanguages); len(langs) > 0 {
		cfg = languageOverride{ConfigProvider: cfg, langs: langs}
	}
	src := &apiscan.DirSource{Root: dir}
	opts = append([]apiscan.Option{
		apiscan.WithLogger(logger),
		apiscan.WithRoot(dir),
	}, opts...)
	return apiscan.New(src, cfg, opts...)
}

// newLogger returns a text logger at info level, or debug with --verbose.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openSnapshot creates the snapshot directory and opens a migrated store.
func openSnapshot(dbPath string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	snap, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	if err := snap.Migrate(); err != nil {
		snap.Close()
		return nil, fmt.Errorf("migrating snapshot: %w", err)
	}
	return snap, nil
}

// languageOverride replaces the configured languages and keeps the
// excluded folders.
type languageOverride struct {
	apiscan.ConfigProvider
	langs []string
}

func (o languageOverride) Languages() []string { return o.langs }

// resolveTargetDir returns the absolute path of the directory to scan.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the snapshot path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".apiscan", "index.db")
}

// resolveConfigPath returns the settings file from --config or the default
// in dir.
func resolveConfigPath(dir string) string {
	if flagConfig != "" {
		if abs, err := filepath.Abs(flagConfig); err == nil {
			return abs
		}
		return flagConfig
	}
	return filepath.Join(dir, config.FileName)
}

// contextOrBackground guards commands executed without a context in tests.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// trimArgs splits a comma-separated flag value, dropping blanks.
func trimArgs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
