package narration

import (
	"regexp"
	"strings"
)

var (
	fencedCodeRegex     = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRegex     = regexp.MustCompile("`([^`]*)`")
	markdownLinkRegex   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	bareURLRegex        = regexp.MustCompile(`https?://\S+`)
	headingRegex        = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	emphasisRegex       = regexp.MustCompile(`(\*\*|__|\*|_|~~)`)
	nonSpeakableRegex   = regexp.MustCompile(`[^\p{L}\p{N}\p{P}\p{Z}\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// Normalize rewrites model output into text a speech engine reads cleanly:
// markdown decoration is stripped, code blocks and links become speakable
// placeholders, emoji are dropped and whitespace is collapsed.
func Normalize(text string) string {
	text = replaceCodeBlocks(text)
	text = replaceLinks(text)
	text = stripMarkdown(text)
	text = stripEmojis(text)
	text = collapseWhitespace(text)
	return strings.TrimSpace(text)
}

func replaceCodeBlocks(text string) string {
	text = fencedCodeRegex.ReplaceAllString(text, " code omitted ")
	return inlineCodeRegex.ReplaceAllString(text, "$1")
}

func replaceLinks(text string) string {
	text = markdownLinkRegex.ReplaceAllString(text, "$1")
	return bareURLRegex.ReplaceAllString(text, "a link")
}

func stripMarkdown(text string) string {
	text = headingRegex.ReplaceAllString(text, "")
	return emphasisRegex.ReplaceAllString(text, "")
}

func stripEmojis(text string) string {
	return nonSpeakableRegex.ReplaceAllString(text, "")
}

func collapseWhitespace(text string) string {
	return multipleSpacesRegex.ReplaceAllString(text, " ")
}
