package apiscan

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// QueryBuilder answers completion queries against the current index
// contents. Every query reads one snapshot and never blocks on a rebuild.
type QueryBuilder struct {
	index *Index
	root  string
}

// Position is a 0-based line and byte column in a document.
type Position struct {
	Line int
	Col  int
}

// Range is a half-open span [Start, End) within a document.
type Range struct {
	Start Position
	End   Position
}

// CursorContext is what the presentation layer knows about the cursor:
// the text of its line up to the cursor, and the word under or adjacent to
// it with that word's range.
type CursorContext struct {
	Position   Position
	LinePrefix string
	Word       string
	WordRange  Range
}

// Suggestion is one completion item.
type Suggestion struct {
	Label      string
	InsertText string
	// FilterText is set for trigger completions so editors keep the item
	// visible while "api." is being replaced.
	FilterText string
	Detail     string
	// Documentation is the annotation description, as markdown.
	Documentation string
	Replace       Range
	Annotation    Annotation
}

// triggerRe matches a line prefix ending in the "api." trigger token.
var triggerRe = regexp.MustCompile(`\bapi\.\s*$`)

const triggerToken = "api."

// Complete returns the suggestions for cc. When the line prefix ends in
// "api." every record is returned, each replacing that token. Otherwise the
// records whose alias contains the current word, case-insensitively, are
// returned; an empty word yields none. Results keep index order.
func (q *QueryBuilder) Complete(cc CursorContext) []Suggestion {
	records := q.index.Snapshot()

	if loc := triggerRe.FindStringIndex(cc.LinePrefix); loc != nil {
		replace := Range{
			Start: Position{Line: cc.Position.Line, Col: loc[0]},
			End:   Position{Line: cc.Position.Line, Col: loc[0] + len(triggerToken)},
		}
		out := make([]Suggestion, 0, len(records))
		for _, a := range records {
			s := q.suggestion(a, replace)
			s.FilterText = triggerToken + a.Alias
			out = append(out, s)
		}
		return out
	}

	word := strings.ToLower(cc.Word)
	if word == "" {
		return nil
	}
	var out []Suggestion
	for _, a := range records {
		if strings.Contains(strings.ToLower(a.Alias), word) {
			out = append(out, q.suggestion(a, cc.WordRange))
		}
	}
	return out
}

// All returns every record in index order.
func (q *QueryBuilder) All() []Annotation {
	return q.index.Snapshot()
}

// ByAlias returns the record stored under alias, or nil.
func (q *QueryBuilder) ByAlias(alias string) *Annotation {
	for _, a := range q.index.Snapshot() {
		if a.Alias == alias {
			return &a
		}
	}
	return nil
}

func (q *QueryBuilder) suggestion(a Annotation, replace Range) Suggestion {
	return Suggestion{
		Label:         a.Alias,
		InsertText:    a.Alias,
		Detail:        fmt.Sprintf("Type: %s (%s)", a.Type, q.relative(a.Source)),
		Documentation: a.Description,
		Replace:       replace,
		Annotation:    a,
	}
}

// relative returns path relative to the workspace root when possible.
func (q *QueryBuilder) relative(path string) string {
	if q.root == "" {
		return path
	}
	rel, err := filepath.Rel(q.root, path)
	if err != nil {
		return path
	}
	return rel
}

// CursorAt builds a CursorContext for a 0-based line and byte column in
// text. The column is clamped to the line. The word is the run of word
// characters (letters, digits, underscore) containing or ending at the
// cursor.
func CursorAt(text string, line, col int) CursorContext {
	lines := strings.Split(text, "\n")
	if line < 0 {
		line = 0
	}
	var lineText string
	if line < len(lines) {
		lineText = strings.TrimSuffix(lines[line], "\r")
	}
	col = max(0, min(col, len(lineText)))

	start, end := col, col
	for start > 0 && isWordByte(lineText[start-1]) {
		start--
	}
	for end < len(lineText) && isWordByte(lineText[end]) {
		end++
	}

	pos := Position{Line: line, Col: col}
	return CursorContext{
		Position:   pos,
		LinePrefix: lineText[:col],
		Word:       lineText[start:end],
		WordRange: Range{
			Start: Position{Line: line, Col: start},
			End:   Position{Line: line, Col: end},
		},
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
