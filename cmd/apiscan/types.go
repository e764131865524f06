package main

import (
	"path/filepath"

	"github.com/jward/apiscan"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIAnnotation is a JSON-friendly index record.
type CLIAnnotation struct {
	Alias       string `json:"alias"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// CLIRange is a 0-based replacement range.
type CLIRange struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// CLISuggestion is a JSON-friendly completion item.
type CLISuggestion struct {
	Label         string   `json:"label"`
	InsertText    string   `json:"insert_text"`
	FilterText    string   `json:"filter_text,omitempty"`
	Detail        string   `json:"detail"`
	Documentation string   `json:"documentation"`
	Replace       CLIRange `json:"replace"`
}

// CLIRebuild summarizes an index run.
type CLIRebuild struct {
	Generation uint64 `json:"generation"`
	Discovered int    `json:"discovered"`
	Loaded     int    `json:"loaded"`
	Skipped    int    `json:"skipped"`
	Records    int    `json:"records"`
	DurationMS int64  `json:"duration_ms"`
	Database   string `json:"database,omitempty"`
}

func toCLIAnnotations(anns []apiscan.Annotation, root string) []CLIAnnotation {
	out := make([]CLIAnnotation, len(anns))
	for i, a := range anns {
		src := a.Source
		if rel, err := filepath.Rel(root, a.Source); err == nil && filepath.IsAbs(a.Source) {
			src = filepath.ToSlash(rel)
		}
		out[i] = CLIAnnotation{Alias: a.Alias, Type: a.Type, Description: a.Description, Source: src}
	}
	return out
}

func toCLISuggestions(items []apiscan.Suggestion) []CLISuggestion {
	out := make([]CLISuggestion, len(items))
	for i, s := range items {
		out[i] = CLISuggestion{
			Label:         s.Label,
			InsertText:    s.InsertText,
			FilterText:    s.FilterText,
			Detail:        s.Detail,
			Documentation: s.Documentation,
			Replace: CLIRange{
				StartLine: s.Replace.Start.Line,
				StartCol:  s.Replace.Start.Col,
				EndLine:   s.Replace.End.Line,
				EndCol:    s.Replace.End.Col,
			},
		}
	}
	return out
}

func toCLIRebuild(res apiscan.RebuildResult, dbPath string) CLIRebuild {
	return CLIRebuild{
		Generation: res.Generation,
		Discovered: res.Discovered,
		Loaded:     res.Loaded,
		Skipped:    res.Skipped,
		Records:    res.Records,
		DurationMS: res.Duration.Milliseconds(),
		Database:   dbPath,
	}
}
