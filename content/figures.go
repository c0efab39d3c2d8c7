package content

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
)

// FigureReference is an addressable document-evidence callout lifted out of
// prose. The retrieval system occasionally inlines source excerpts directly
// into generated text as a pseudo-JSON list; each entry becomes one
// reference, scoped to a single render and never persisted.
type FigureReference struct {
	ID           string                 `json:"id"`
	ExcerptTitle string                 `json:"excerpt_title"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Keys a figure entry may use for its excerpt title, in priority order.
var figureTitleKeys = []string{"excerpt_title", "title", "excerpt", "name"}

// FigurePlaceholder returns the token substituted into prose for a figure
// id, so renderers can swap in an interactive control without re-parsing.
func FigurePlaceholder(id string) string {
	return "[[figure:" + id + "]]"
}

// ExtractFigures scans prose for inline figure notation: a bracketed list of
// objects carrying an excerpt title and a metadata map. Each entry is lifted
// into a FigureReference and the matched span is replaced with placeholder
// tokens (multi-entry blocks expand to adjacent tokens). A block or entry
// that fails to parse is skipped and logged; extraction continues for all
// other occurrences.
func ExtractFigures(text string) ([]FigureReference, string) {
	figures := make([]FigureReference, 0)
	var out strings.Builder
	next := 1

	i := 0
	for i < len(text) {
		start := findFigureBlockStart(text[i:])
		if start < 0 {
			out.WriteString(text[i:])
			break
		}
		blockStart := i + start

		blockEnd := matchBracketSpan(text, blockStart)
		if blockEnd < 0 {
			// Unterminated block: emit up to and including the bracket
			// and keep scanning after it.
			out.WriteString(text[i : blockStart+1])
			i = blockStart + 1
			continue
		}

		entries, ok := parseFigureEntries(text[blockStart:blockEnd])
		if !ok || len(entries) == 0 {
			// Not figure notation (or wholly malformed): leave the span
			// in place as ordinary prose.
			out.WriteString(text[i:blockEnd])
			i = blockEnd
			continue
		}

		out.WriteString(text[i:blockStart])
		for _, entry := range entries {
			id := strconv.Itoa(next)
			next++
			figures = append(figures, FigureReference{
				ID:           id,
				ExcerptTitle: entry.title,
				Metadata:     entry.metadata,
			})
			out.WriteString(FigurePlaceholder(id))
		}
		i = blockEnd
	}

	return figures, out.String()
}

// findFigureBlockStart returns the offset of the next "[" that opens a
// list-of-objects span, or -1.
func findFigureBlockStart(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' {
			continue
		}
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case ' ', '\t', '\n', '\r':
				continue
			case '{':
				return i
			}
			break
		}
	}
	return -1
}

// matchBracketSpan walks from the opening bracket at start to its matching
// close, string-aware, and returns the index just past it. Returns -1 when
// the span never closes.
func matchBracketSpan(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

type figureEntry struct {
	title    string
	metadata map[string]interface{}
}

// parseFigureEntries decodes a candidate span defensively. It returns ok
// only when the span is a JSON list of objects and at least one entry
// carries a recognizable excerpt title; a malformed entry inside an
// otherwise valid list is skipped, not fatal.
func parseFigureEntries(span string) ([]figureEntry, bool) {
	var rawEntries []json.RawMessage
	if err := json.Unmarshal([]byte(span), &rawEntries); err != nil {
		return nil, false
	}

	entries := make([]figureEntry, 0, len(rawEntries))
	for idx, raw := range rawEntries {
		var obj map[string]interface{}
		if err := json.Unmarshal(raw, &obj); err != nil {
			log.Printf("Warning: skipping malformed figure entry %d: %v", idx, err)
			continue
		}

		title := ""
		for _, key := range figureTitleKeys {
			if s, ok := obj[key].(string); ok && s != "" {
				title = s
				break
			}
		}
		if title == "" {
			// An object without a title key is not figure notation.
			continue
		}

		metadata, _ := obj["metadata"].(map[string]interface{})
		if metadata == nil {
			// Fall back to the entry's own fields minus the title keys.
			metadata = make(map[string]interface{})
			for k, v := range obj {
				if !isFigureTitleKey(k) {
					metadata[k] = v
				}
			}
		}

		entries = append(entries, figureEntry{title: title, metadata: metadata})
	}

	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

func isFigureTitleKey(key string) bool {
	for _, k := range figureTitleKeys {
		if k == key {
			return true
		}
	}
	return false
}
