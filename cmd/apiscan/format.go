package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// formatAnnotationsText formats CLIAnnotation results as aligned columns.
func formatAnnotationsText(w io.Writer, anns []CLIAnnotation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALIAS\tTYPE\tSOURCE\tDESCRIPTION")
	for _, a := range anns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Alias, a.Type, a.Source, firstLine(a.Description))
	}
	tw.Flush()
}

// formatSuggestionsText formats CLISuggestion results as aligned columns.
func formatSuggestionsText(w io.Writer, items []CLISuggestion) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tDETAIL\tREPLACE")
	for _, s := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d:%d-%d:%d\n", s.Label, s.Detail,
			s.Replace.StartLine, s.Replace.StartCol, s.Replace.EndLine, s.Replace.EndCol)
	}
	tw.Flush()
}

// formatRebuildText formats CLIRebuild as readable text.
func formatRebuildText(w io.Writer, r CLIRebuild) {
	fmt.Fprintf(w, "Generation: %d\n", r.Generation)
	fmt.Fprintf(w, "Files: %d discovered, %d loaded, %d skipped\n", r.Discovered, r.Loaded, r.Skipped)
	fmt.Fprintf(w, "Records: %d\n", r.Records)
	if r.Database != "" {
		fmt.Fprintf(w, "Database: %s\n", r.Database)
	}
}

// firstLine returns s up to its first newline, for single-row display.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

// outputResult writes result to w as JSON, or as text with --format text.
func outputResult(w io.Writer, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputResultText dispatches to the text formatter for the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIAnnotation:
		formatAnnotationsText(w, v)
	case []CLISuggestion:
		formatSuggestionsText(w, v)
	case CLIRebuild:
		formatRebuildText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
