package content

import (
	"strings"
	"testing"

	"docchat-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks(n int) []models.SourceChunk {
	chunks := make([]models.SourceChunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, models.SourceChunk{
			ChunkIndex:  i,
			SourceID:    "doc-" + string(rune('a'+i)),
			SourceTitle: "Document " + string(rune('A'+i)),
			SourceType:  "contract",
			Excerpt:     "Excerpt body.",
		})
	}
	return chunks
}

func TestSegmentCitationsTwoMarkers(t *testing.T) {
	text := "See Chunk 1 and Chunk 2 for details."

	segments, citations := SegmentCitations(text, testChunks(2))
	require.Len(t, segments, 5)
	require.Len(t, citations, 2)

	assert.Equal(t, "See ", segments[0].Text)
	assert.Nil(t, segments[0].CitationID)

	assert.Equal(t, "Chunk 1", segments[1].Text)
	require.NotNil(t, segments[1].CitationID)
	assert.Equal(t, 1, *segments[1].CitationID)

	assert.Equal(t, " and ", segments[2].Text)
	assert.Nil(t, segments[2].CitationID)

	assert.Equal(t, "Chunk 2", segments[3].Text)
	require.NotNil(t, segments[3].CitationID)
	assert.Equal(t, 2, *segments[3].CitationID)

	assert.Equal(t, " for details.", segments[4].Text)
	assert.Nil(t, segments[4].CitationID)
}

func TestSegmentCitationsMarkerForms(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"chunk", "Refer to Chunk 1 here."},
		{"chunk hash", "Refer to Chunk #1 here."},
		{"citation", "Refer to Citation 1 here."},
		{"source", "Refer to Source 1 here."},
		{"bracketed", "Refer to [1] here."},
		{"lowercase", "Refer to chunk 1 here."},
	}

	chunks := testChunks(1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, _ := SegmentCitations(tt.text, chunks)
			require.Len(t, segments, 3)
			require.NotNil(t, segments[1].CitationID)
			assert.Equal(t, 1, *segments[1].CitationID)
		})
	}
}

func TestSegmentCitationsOutOfRangeStaysPlain(t *testing.T) {
	text := "Chunk 5 is relevant"

	segments, citations := SegmentCitations(text, testChunks(2))
	require.Len(t, segments, 1)
	assert.Equal(t, text, segments[0].Text)
	assert.Nil(t, segments[0].CitationID)
	assert.Len(t, citations, 2)
}

func TestSegmentCitationsZeroOrdinalStaysPlain(t *testing.T) {
	segments, _ := SegmentCitations("Chunk 0 means nothing.", testChunks(2))
	require.Len(t, segments, 1)
	assert.Nil(t, segments[0].CitationID)
}

func TestSegmentCitationsNoMarkers(t *testing.T) {
	text := "Nothing cited in this answer."

	segments, citations := SegmentCitations(text, testChunks(3))
	require.Len(t, segments, 1)
	assert.Equal(t, text, segments[0].Text)
	assert.Nil(t, segments[0].CitationID)
	assert.Len(t, citations, 3)
}

func TestSegmentCitationsNoChunks(t *testing.T) {
	// With no chunks every ordinal is out of range.
	segments, citations := SegmentCitations("See Chunk 1.", nil)
	require.Len(t, segments, 1)
	assert.Nil(t, segments[0].CitationID)
	assert.Empty(t, citations)
}

func TestSegmentCitationsEmptyText(t *testing.T) {
	segments, _ := SegmentCitations("", testChunks(1))
	require.Len(t, segments, 1)
	assert.Equal(t, "", segments[0].Text)
}

func TestSegmentCitationsAdjacentMarkers(t *testing.T) {
	segments, _ := SegmentCitations("[1][2]", testChunks(2))
	require.Len(t, segments, 2)
	assert.Equal(t, "[1]", segments[0].Text)
	assert.Equal(t, "[2]", segments[1].Text)
	require.NotNil(t, segments[0].CitationID)
	require.NotNil(t, segments[1].CitationID)
}

func TestSegmentCitationsRoundTrip(t *testing.T) {
	texts := []string{
		"See Chunk 1 and Chunk 2 for details.",
		"Mixed [1] and Source #2 and Chunk 9 out of range.",
		"Leading Chunk 1",
		"Chunk 2 trailing text after.",
		"No markers at all.",
	}
	chunks := testChunks(2)
	for _, text := range texts {
		segments, _ := SegmentCitations(text, chunks)
		var b strings.Builder
		for _, seg := range segments {
			b.WriteString(seg.Text)
		}
		assert.Equal(t, text, b.String(), "round trip of %q", text)
	}
}

func TestBuildCitations(t *testing.T) {
	score := 0.87
	chunks := testChunks(2)
	chunks[0].Score = &score

	citations := BuildCitations(chunks)
	require.Len(t, citations, 2)
	assert.Equal(t, 1, citations[0].CitationID)
	assert.Equal(t, 2, citations[1].CitationID)
	assert.Equal(t, "doc-a", citations[0].SourceID)
	assert.Equal(t, "Document A", citations[0].SourceTitle)
	assert.Equal(t, &score, citations[0].Score)
	assert.Nil(t, citations[1].Score)
}

func TestBuildCitationsTruncatesExcerpt(t *testing.T) {
	chunks := testChunks(1)
	chunks[0].Excerpt = strings.Repeat("x", maxCitationExcerptLen+50)

	citations := BuildCitations(chunks)
	require.Len(t, citations, 1)
	assert.Len(t, citations[0].Excerpt, maxCitationExcerptLen+3)
	assert.True(t, strings.HasSuffix(citations[0].Excerpt, "..."))
}
