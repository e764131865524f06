// Package apiscan indexes "@api" annotations written in source comments and
// serves them to editor autocompletion.
//
// An annotation is a comment of the form
//
//	// @api <type> <alias> <description>
//
// in any line-comment or block-comment style the file's language uses.
// Languages without a registered syntax fall back to a generic set of
// delimiters, so no per-language parser is involved.
//
// # Pipeline
//
//  1. Discover: a [DocumentSource] lists workspace files whose extensions
//     match the configured languages, skipping excluded folders.
//  2. Extract: each file's text is scanned for annotations using its
//     language's comment delimiters.
//  3. Index: records are deduplicated by alias, first occurrence winning,
//     and swapped into the [Index] in one step.
//
// # Usage
//
//	src, err := apiscan.NewDirSource("path/to/project")
//	if err != nil { ... }
//	e := apiscan.New(src, apiscan.DefaultConfig(), apiscan.WithRoot(src.Root))
//
//	ctx := context.Background()
//	e.RebuildAll(ctx)
//
//	cc := apiscan.CursorAt(text, line, col)
//	items := e.Query().Complete(cc)
//
// # Keeping the Index Current
//
// [Engine.RebuildAll] re-scans the whole workspace and is meant for
// structural changes (files created, deleted or renamed). [Engine.UpdateOne]
// re-scans one open document and merges it into the existing index,
// dropping aliases the document no longer declares. [Engine.Handle] maps
// [Event] kinds onto the two paths. Overlapping rebuilds are resolved by
// start order: a rebuild that finishes after a newer one started leaves the
// index alone.
//
// # Completion
//
// [QueryBuilder.Complete] has two modes. When the text before the cursor
// ends in "api." every record is offered, each replacing the "api." token.
// Otherwise records whose alias contains the word at the cursor,
// ignoring case, are offered.
package apiscan
