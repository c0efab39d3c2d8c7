package content

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Kind classifies a raw payload so the pipeline can pick a processing
// strategy. Producers do not honor any schema contract, so classification
// is heuristic and must never fail: malformed input falls through to
// KindPlain.
type Kind string

const (
	KindStructured Kind = "structured-data"
	KindMarkup     Kind = "markup"
	KindMarkdown   Kind = "prose-markdown"
	KindPlain      Kind = "prose-plain"
)

// IsProse reports whether the kind is terminal for the normalization loop
func (k Kind) IsProse() bool {
	return k == KindMarkdown || k == KindPlain
}

var (
	markupTagPattern = regexp.MustCompile(`(?i)</?(html|head|body|p|div|span|br|hr|table|thead|tbody|tr|td|th|ul|ol|li|h[1-6]|strong|em|b|i|u|a|img|blockquote|pre|code)(\s[^<>]*)?/?>`)

	// Prose is treated as markdown when any of these markers appear:
	// headings, bold/italic emphasis, fenced code, or paragraph breaks.
	markdownHeadingPattern  = regexp.MustCompile(`(?m)^#{1,6}\s`)
	markdownEmphasisPattern = regexp.MustCompile(`\*\*[^*\n]+\*\*|__[^_\n]+__|(^|\s)\*[^*\n]+\*([\s.,;:]|$)|(^|\s)_[^_\n]+_([\s.,;:]|$)`)
	markdownFencePattern    = regexp.MustCompile("(?m)^```")
)

// Classify assigns a content kind to a raw payload, in priority order:
// structured-data when the outer characters are a matching brace/bracket
// pair and the payload parses as strict JSON, markup when recognizable
// HTML tags are present, then markdown prose, then plain prose.
// Classify has no side effects and never raises on malformed input.
func Classify(raw string) Kind {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return KindPlain
	}

	if hasStructuredDelimiters(trimmed) && json.Valid([]byte(trimmed)) {
		return KindStructured
	}

	if markupTagPattern.MatchString(trimmed) {
		return KindMarkup
	}

	if markdownHeadingPattern.MatchString(trimmed) ||
		markdownEmphasisPattern.MatchString(trimmed) ||
		markdownFencePattern.MatchString(trimmed) ||
		strings.Contains(trimmed, "\n\n") {
		return KindMarkdown
	}

	return KindPlain
}

// hasStructuredDelimiters checks that the payload's outer characters are a
// matching brace or bracket pair
func hasStructuredDelimiters(trimmed string) bool {
	if len(trimmed) < 2 {
		return false
	}
	first := trimmed[0]
	last := trimmed[len(trimmed)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}
