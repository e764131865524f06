package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jward/apiscan"
	"github.com/jward/apiscan/internal/syntax"
	"github.com/jward/apiscan/internal/watch"
)

var completeCmd = &cobra.Command{
	Use:   "complete <file> <line> <col>",
	Short: "List completions at a position in a file",
	Long: "Indexes the repository containing <file>, updates the index from the file's current contents, " +
		"and prints the suggestions at the cursor. Line and column are 0-based; the column is a byte offset.",
	Args: cobra.ExactArgs(3),
	RunE: runComplete,
}

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List every indexed annotation",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Keep the index current while files change",
	Long:  "Indexes the directory, then rebuilds or updates the index on filesystem events until interrupted.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagDB, "db", "", "snapshot path (default: .apiscan/index.db relative to repo root)")
	watchCmd.Flags().BoolVar(&flagNoDB, "no-db", false, "skip writing the snapshot")
}

func runComplete(cmd *cobra.Command, args []string) error {
	file, err := filepath.Abs(args[0])
	if err != nil {
		return outputError("complete", fmt.Errorf("resolving file path %q: %w", args[0], err))
	}
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError("complete", err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError("complete", err)
	}

	ctx := contextOrBackground(cmd)
	root := findRepoRoot(filepath.Dir(file))
	engine := newEngine(cmd, root)
	engine.RebuildAll(ctx)

	src := &apiscan.DirSource{Root: root}
	text, err := src.LoadText(ctx, file)
	if err != nil {
		return outputError("complete", err)
	}
	engine.UpdateOne(ctx, apiscan.Document{
		Path:       file,
		LanguageID: syntax.LanguageForFile(file),
		Text:       text,
	})

	items := engine.Query().Complete(apiscan.CursorAt(text, line, col))
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command: "complete",
		Results: toCLISuggestions(items),
	})
}

func runList(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("list", err)
	}
	engine := newEngine(cmd, targetDir)
	engine.RebuildAll(contextOrBackground(cmd))

	anns := toCLIAnnotations(engine.Query().All(), targetDir)
	total := len(anns)
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command:    "list",
		Results:    anns,
		TotalCount: &total,
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("watch", err)
	}

	var opts []apiscan.Option
	if !flagNoDB {
		snap, err := openSnapshot(resolveDBPath(findRepoRoot(targetDir)))
		if err != nil {
			return outputError("watch", err)
		}
		defer snap.Close()
		opts = append(opts, apiscan.WithSnapshot(snap))
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cmd.ErrOrStderr())
	engine := newEngine(cmd, targetDir, opts...)
	res := engine.RebuildAll(ctx)
	logger.Info("watching", "path", targetDir, "files", res.Loaded, "records", res.Records)

	w, err := watch.New(targetDir, &apiscan.DirSource{Root: targetDir}, engine, watch.Options{
		Accept: func(rel string) bool { return engine.FileQuery().Match(rel) },
		Skip: func(name string) bool {
			return slices.Contains(engine.FileQuery().ExcludeFolders, name)
		},
		Logger: logger,
	})
	if err != nil {
		return outputError("watch", fmt.Errorf("starting watcher: %w", err))
	}
	defer w.Close()

	if err := w.Run(ctx); err != nil {
		return outputError("watch", err)
	}
	return nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}
