// Package parse turns free-form upstream model text into typed records.
// Every function here is total: malformed input degrades to partial or
// sentinel records instead of an error.
package parse

import "regexp"

var (
	newlineRuns = regexp.MustCompile(`\n+`)
	// Markdown-bold alternative first so "**Label:**" is not cut at its colon.
	labelPrefix = regexp.MustCompile(`^(?:\*\*[^:]+:\*\*|[^:]+:)`)
)

// NormalizeLines collapses every run of newlines into a single newline.
// Other whitespace is left alone, so NormalizeLines(NormalizeLines(s)) == NormalizeLines(s).
func NormalizeLines(text string) string {
	return newlineRuns.ReplaceAllString(text, "\n")
}

// StripLabel removes at most one leading "**Label:**" or "Label:" prefix.
// The remainder is returned untrimmed.
func StripLabel(line string) string {
	loc := labelPrefix.FindStringIndex(line)
	if loc == nil {
		return line
	}
	return line[loc[1]:]
}
