package textsplitter

import (
	"regexp"
	"strings"
)

// sentenceBoundary matches a terminator followed by whitespace. The cut is
// made after the terminator; the whitespace is dropped.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// SplitSentences splits text at sentence terminators followed by
// whitespace, keeping the terminator with its sentence. Sentences are
// trimmed and empties dropped. Terminators inside tokens like "3.14" do
// not split because no whitespace follows them.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for _, m := range sentenceBoundary.FindAllStringIndex(text, -1) {
		sent := strings.TrimSpace(text[start : m[0]+1])
		if sent != "" {
			out = append(out, sent)
		}
		start = m[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// SplitParagraphs splits text on blank lines. Paragraphs are trimmed and
// empties dropped.
func SplitParagraphs(text string) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(para); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
