package syntax

// Style is one comment form a language supports. It is either a LineStyle
// or a BlockStyle.
type Style interface {
	isStyle()
}

// LineStyle is a comment that runs from Prefix to the end of the line.
type LineStyle struct {
	Prefix string
}

// BlockStyle is a comment delimited by Start and End, possibly spanning lines.
type BlockStyle struct {
	Start string
	End   string
}

func (LineStyle) isStyle()  {}
func (BlockStyle) isStyle() {}

// Syntax is the ordered set of comment styles for one language.
type Syntax struct {
	Styles []Style
}

// Lines returns the line-comment prefixes in registration order.
func (s Syntax) Lines() []string {
	var out []string
	for _, st := range s.Styles {
		if l, ok := st.(LineStyle); ok {
			out = append(out, l.Prefix)
		}
	}
	return out
}

// Blocks returns the block-comment delimiter pairs in registration order.
func (s Syntax) Blocks() []BlockStyle {
	var out []BlockStyle
	for _, st := range s.Styles {
		if b, ok := st.(BlockStyle); ok {
			out = append(out, b)
		}
	}
	return out
}

func lines(prefixes ...string) []Style {
	out := make([]Style, len(prefixes))
	for i, p := range prefixes {
		out[i] = LineStyle{Prefix: p}
	}
	return out
}

func with(styles []Style, more ...Style) Syntax {
	return Syntax{Styles: append(styles, more...)}
}

var (
	cStyle    = BlockStyle{Start: "/*", End: "*/"}
	htmlStyle = BlockStyle{Start: "<!--", End: "-->"}
)

// registry is read-only after package initialization.
var registry = map[Language]Syntax{
	JavaScript:  with(lines("//"), cStyle),
	TypeScript:  with(lines("//"), cStyle),
	Python:      with(lines("#"), BlockStyle{`"""`, `"""`}, BlockStyle{"'''", "'''"}),
	ShellScript: with(lines("#")),
	SQL:         with(lines("--"), cStyle),
	Haskell:     with(lines("--"), BlockStyle{"{-", "-}"}),
	Lua:         with(lines("--")),
	HTML:        with(nil, htmlStyle),
	XML:         with(nil, htmlStyle),
	Cpp:         with(lines("//"), cStyle),
	Java:        with(lines("//"), cStyle),
	CSharp:      with(lines("//"), cStyle),
	Go:          with(lines("//"), cStyle),
	Ruby:        with(lines("#"), BlockStyle{"=begin", "=end"}),
	PHP:         with(lines("//", "#"), cStyle),
	CSS:         with(nil, cStyle),
	Markdown:    with(nil, htmlStyle),
	YAML:        with(lines("#")),
	JSON:        {},
}

// Fallback applies to languages without a registry entry.
var Fallback = with(lines("//", "#", "--", ";"), cStyle, htmlStyle)

// Resolve returns the comment syntax registered for languageID, or Fallback.
func Resolve(languageID string) Syntax {
	if s, ok := registry[Language(languageID)]; ok {
		return s
	}
	return Fallback
}

// Registered reports whether languageID has its own registry entry.
func Registered(languageID string) bool {
	_, ok := registry[Language(languageID)]
	return ok
}
