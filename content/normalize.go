package content

import (
	"log"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Normalize turns any raw producer payload into renderable prose.
// Structured-data payloads are unwrapped, markup payloads are converted to
// markdown, and prose passes through unchanged. Normalize is idempotent:
// re-running it over its own output returns the same text.
func Normalize(raw string) string {
	text := raw
	for pass := 0; pass < DefaultMaxUnwrapDepth; pass++ {
		switch Classify(text) {
		case KindStructured:
			unwrapped := Unwrap(text, UnwrapOptions{})
			if unwrapped == text {
				return text
			}
			text = unwrapped

		case KindMarkup:
			markdown, err := htmltomarkdown.ConvertString(text)
			if err != nil || strings.TrimSpace(markdown) == "" {
				// Conversion failure is not fatal; the raw markup is
				// still better output than nothing.
				log.Printf("Warning: markup conversion failed, keeping raw text: %v", err)
				return text
			}
			text = markdown

		default:
			return text
		}
	}
	return text
}
