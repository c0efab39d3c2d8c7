package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{"json object", `{"response": "hello"}`, KindStructured},
		{"json array", `[{"a": 1}, {"b": 2}]`, KindStructured},
		{"wrapped payload", "{\"response\": \"# Title\\n\\nBody text.\"}", KindStructured},
		{"truncated json", `{not json`, KindPlain},
		{"braces but invalid", `{"trailing": }`, KindPlain},
		{"html fragment", `<p>Hello <strong>world</strong></p>`, KindMarkup},
		{"full html page", "<html><body><h1>Title</h1></body></html>", KindMarkup},
		{"markdown heading", "# Title\n\nBody text.", KindMarkdown},
		{"markdown emphasis", "This is **important** stuff", KindMarkdown},
		{"fenced code", "```\ncode here\n```", KindMarkdown},
		{"paragraph break only", "First paragraph.\n\nSecond paragraph.", KindMarkdown},
		{"single sentence", "Just a plain sentence.", KindPlain},
		{"empty", "", KindPlain},
		{"whitespace only", "   \n\t  ", KindPlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.raw))
		})
	}
}

func TestClassifyNeverPanics(t *testing.T) {
	inputs := []string{
		"{",
		"}",
		"[",
		`{"a":`,
		"<",
		"<>",
		"#",
		"\x00\x01",
	}
	for _, raw := range inputs {
		assert.NotPanics(t, func() { Classify(raw) }, "input %q", raw)
	}
}

func TestClassifyStructuredRequiresOuterDelimiters(t *testing.T) {
	// Valid JSON scalars without an outer brace/bracket pair are prose.
	assert.Equal(t, KindPlain, Classify(`"a quoted string"`))
	assert.Equal(t, KindPlain, Classify(`42`))
}

func TestKindIsProse(t *testing.T) {
	assert.True(t, KindMarkdown.IsProse())
	assert.True(t, KindPlain.IsProse())
	assert.False(t, KindStructured.IsProse())
	assert.False(t, KindMarkup.IsProse())
}
