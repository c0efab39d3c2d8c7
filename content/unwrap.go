package content

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DefaultWrapperFields is the priority-ordered list of field names searched
// for human-readable text inside a structured payload. The order is ranked
// by observed frequency in workflow engine output, not by any contract.
var DefaultWrapperFields = []string{"response", "content", "markdown", "message", "text", "data"}

// DefaultMaxUnwrapDepth bounds recursion into nested wrapper shapes.
// Guards against cyclic or pathological payloads; past the cap the raw
// extracted string is returned as-is.
const DefaultMaxUnwrapDepth = 5

// UnwrapOptions tunes the extraction heuristics without code changes.
// The zero value selects the package defaults.
type UnwrapOptions struct {
	Fields   []string
	MaxDepth int
}

func (o UnwrapOptions) withDefaults() UnwrapOptions {
	if len(o.Fields) == 0 {
		o.Fields = DefaultWrapperFields
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxUnwrapDepth
	}
	return o
}

// Unwrap extracts the human-readable text from a structured-data payload.
// It never fails and never returns empty output unless the input was empty:
// when no known wrapper shape matches, the fallback is a pretty-printed dump
// of the parsed value, and unparseable input is returned unchanged.
func Unwrap(raw string, opts UnwrapOptions) string {
	return unwrapDepth(raw, opts.withDefaults(), 0)
}

func unwrapDepth(raw string, opts UnwrapOptions, depth int) string {
	if depth >= opts.MaxDepth {
		return raw
	}

	trimmed := strings.TrimSpace(raw)
	if Classify(trimmed) != KindStructured {
		return raw
	}

	var value interface{}
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		// Classify already validated the JSON, so this should not happen;
		// fall through to the raw payload rather than fail.
		return raw
	}

	extracted := extractText(value, opts)
	if strings.TrimSpace(extracted) == "" {
		return raw
	}

	// The pretty-dump fallback reproduces its input; stop at the fixpoint.
	if extracted == trimmed {
		return extracted
	}

	// The extracted value may itself be a wrapped payload.
	if Classify(extracted) == KindStructured {
		return unwrapDepth(extracted, opts, depth+1)
	}

	return extracted
}

// extractText applies the wrapper-shape heuristics to a parsed JSON value.
func extractText(value interface{}, opts UnwrapOptions) string {
	switch v := value.(type) {
	case string:
		return v

	case []interface{}:
		// A bare list joins each element's own extracted text with a
		// blank-line separator.
		parts := make([]string, 0, len(v))
		for _, element := range v {
			if text := extractText(element, opts); strings.TrimSpace(text) != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n\n")

	case map[string]interface{}:
		// 1. Priority fields at the top level
		for _, field := range opts.Fields {
			if s, ok := v[field].(string); ok && s != "" {
				return s
			}
		}

		// 2. One level of nesting inside any object-valued field,
		// iterated in sorted key order for determinism
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			nested, ok := v[k].(map[string]interface{})
			if !ok {
				continue
			}
			for _, field := range opts.Fields {
				if s, ok := nested[field].(string); ok && s != "" {
					return s
				}
			}
		}

		// 3. A list under a priority field joins member text
		for _, field := range opts.Fields {
			if list, ok := v[field].([]interface{}); ok {
				if text := extractText(list, opts); strings.TrimSpace(text) != "" {
					return text
				}
			}
		}

		// 4. No matching fields: pretty-printed dump of the object
		return prettyDump(v)

	case nil:
		return ""

	default:
		// Numbers and booleans render as their textual form
		return fmt.Sprintf("%v", v)
	}
}

func prettyDump(value interface{}) string {
	dump, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(dump)
}
