// Package syntax holds the comment-syntax registry: which line prefixes and
// block delimiters each language uses, plus the file-extension tables used
// to discover and classify workspace files.
package syntax

import (
	"path/filepath"
	"strings"
)

// Language is a canonical language identifier, as reported by editors
// (e.g. "javascript", "shellscript").
type Language string

const (
	JavaScript  Language = "javascript"
	TypeScript  Language = "typescript"
	Python      Language = "python"
	ShellScript Language = "shellscript"
	SQL         Language = "sql"
	Haskell     Language = "haskell"
	Lua         Language = "lua"
	HTML        Language = "html"
	XML         Language = "xml"
	Cpp         Language = "cpp"
	Java        Language = "java"
	CSharp      Language = "csharp"
	Go          Language = "go"
	Ruby        Language = "ruby"
	PHP         Language = "php"
	CSS         Language = "css"
	Markdown    Language = "markdown"
	YAML        Language = "yaml"
	JSON        Language = "json"

	// PlainText has no registry entry and resolves to the fallback syntax.
	PlainText Language = "plaintext"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]Language{
	".js":   JavaScript,
	".jsx":  JavaScript,
	".mjs":  JavaScript,
	".cjs":  JavaScript,
	".ts":   TypeScript,
	".tsx":  TypeScript,
	".mts":  TypeScript,
	".py":   Python,
	".pyi":  Python,
	".sh":   ShellScript,
	".bash": ShellScript,
	".zsh":  ShellScript,
	".sql":  SQL,
	".hs":   Haskell,
	".lua":  Lua,
	".html": HTML,
	".htm":  HTML,
	".xml":  XML,
	".cpp":  Cpp,
	".cc":   Cpp,
	".cxx":  Cpp,
	".hpp":  Cpp,
	".java": Java,
	".cs":   CSharp,
	".go":   Go,
	".rb":   Ruby,
	".php":  PHP,
	".css":  CSS,
	".md":   Markdown,
	".yaml": YAML,
	".yml":  YAML,
	".json": JSON,
}

// languageToExts is the table used to turn configured language names into
// file-match extensions.
var languageToExts = map[Language][]string{
	JavaScript: {"js"},
	TypeScript: {"ts"},
	Python:     {"py"},
	Java:       {"java"},
	Cpp:        {"cpp", "cc", "cxx"},
	CSharp:     {"cs"},
	Go:         {"go"},
	Ruby:       {"rb"},
	PHP:        {"php"},
}

// LanguageForFile returns the language identifier for a file path based on
// its extension. Unrecognized extensions yield PlainText.
func LanguageForFile(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extToLanguage[ext]; ok {
		return string(lang)
	}
	return string(PlainText)
}

// Extensions maps configured language names to file extensions (without the
// leading dot). Names missing from the table are used verbatim, so users can
// list ad hoc extensions such as "vue" alongside language names. Empty
// entries are dropped; duplicates are kept once.
func Extensions(languages []string) []string {
	var exts []string
	seen := make(map[string]bool)
	add := func(ext string) {
		if ext == "" || seen[ext] {
			return
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	for _, lang := range languages {
		if mapped, ok := languageToExts[Language(strings.ToLower(lang))]; ok {
			for _, ext := range mapped {
				add(ext)
			}
			continue
		}
		add(lang)
	}
	return exts
}

// IncludeGlob renders extensions as a brace-expanded glob, e.g.
// "**/*.{js,ts}". With no extensions every file matches.
func IncludeGlob(exts []string) string {
	if len(exts) == 0 {
		return "**/*"
	}
	return "**/*.{" + strings.Join(exts, ",") + "}"
}

// ExcludeGlob renders folder names as a glob matching anything beneath a path
// segment with one of those names. Returns "" when folders is empty.
func ExcludeGlob(folders []string) string {
	if len(folders) == 0 {
		return ""
	}
	return "**/{" + strings.Join(folders, ",") + "}/**"
}
