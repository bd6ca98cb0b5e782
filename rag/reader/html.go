package reader

import (
	"html"
	"regexp"
	"strings"
)

var (
	// Tags whose content carries no visible text.
	htmlStripRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>|<style[^>]*>.*?</style>|<noscript[^>]*>.*?</noscript>|<iframe[^>]*>.*?</iframe>|<svg[^>]*>.*?</svg>`)

	htmlCommentRe = regexp.MustCompile(`<!--[\s\S]*?-->`)
	htmlBodyRe    = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	htmlBlockRe   = regexp.MustCompile(`(?i)</?(?:div|p|br|li|tr|h[1-6]|blockquote|pre)[^>]*>`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	htmlSpaceRe   = regexp.MustCompile(`[ \t]+`)
	htmlBlankRe   = regexp.MustCompile(`\n\s*\n+`)
)

// parseHTML reduces an HTML page to its visible text. Script and style
// blocks and comments are removed, block-level tags become newlines, the
// remaining tags are stripped and entities decoded.
func parseHTML(data []byte) string {
	text := decodeText(data)

	text = htmlStripRe.ReplaceAllString(text, "")
	text = htmlCommentRe.ReplaceAllString(text, "")

	if m := htmlBodyRe.FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}

	text = htmlBlockRe.ReplaceAllString(text, "\n")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	text = htmlSpaceRe.ReplaceAllString(text, " ")
	text = htmlBlankRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
