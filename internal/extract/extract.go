// Package extract finds "@api <type> <alias> <description>" annotations in
// document text using only the document's comment delimiters. It never
// parses the host language.
package extract

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jward/apiscan/internal/store"
	"github.com/jward/apiscan/internal/syntax"
)

// MaxTextLength is the largest document, in characters, that is scanned.
// Longer documents (usually generated or minified) yield no annotations.
const MaxTextLength = 1_000_000

// Compiled patterns keyed by delimiter. The same handful of delimiters
// recur for every file in a rebuild.
var (
	blockPatterns sync.Map // "start\x00end" -> *regexp.Regexp
	linePatterns  sync.Map // prefix -> *regexp.Regexp
)

func blockPattern(b syntax.BlockStyle) *regexp.Regexp {
	key := b.Start + "\x00" + b.End
	if re, ok := blockPatterns.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(
		regexp.QuoteMeta(b.Start) + `\s*@api\s+(\w+)\s+(\w+)\s+((?s:.*?))` + regexp.QuoteMeta(b.End),
	)
	actual, _ := blockPatterns.LoadOrStore(key, re)
	return actual.(*regexp.Regexp)
}

func linePattern(prefix string) *regexp.Regexp {
	if re, ok := linePatterns.Load(prefix); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(
		`^\s*` + regexp.QuoteMeta(prefix) + `\s*@api\s+(\w+)\s+(\w+)\s+(.+)$`,
	)
	actual, _ := linePatterns.LoadOrStore(prefix, re)
	return actual.(*regexp.Regexp)
}

// Extract returns every annotation in text, block comments first and then
// line comments, in the order found. Records are not deduplicated; a line
// matching several configured prefixes is reported once per prefix.
func Extract(text string, syn syntax.Syntax, source string) []store.Annotation {
	if TooLarge(text) {
		return nil
	}

	var anns []store.Annotation
	for _, b := range syn.Blocks() {
		for _, m := range blockPattern(b).FindAllStringSubmatch(text, -1) {
			anns = append(anns, newAnnotation(m, source))
		}
	}

	prefixes := syn.Lines()
	if len(prefixes) == 0 || !strings.Contains(text, "@api") {
		return anns
	}
	res := make([]*regexp.Regexp, len(prefixes))
	for i, p := range prefixes {
		res[i] = linePattern(p)
	}
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "@api") {
			continue
		}
		for _, re := range res {
			if m := re.FindStringSubmatch(line); m != nil {
				anns = append(anns, newAnnotation(m, source))
			}
		}
	}
	return anns
}

// TooLarge reports whether text exceeds MaxTextLength characters.
func TooLarge(text string) bool {
	if len(text) <= MaxTextLength {
		return false
	}
	return utf8.RuneCountInString(text) > MaxTextLength
}

func newAnnotation(m []string, source string) store.Annotation {
	return store.Annotation{
		Type:        m[1],
		Alias:       m[2],
		Description: strings.TrimSpace(m[3]),
		Source:      source,
	}
}
