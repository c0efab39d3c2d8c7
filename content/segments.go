package content

import (
	"regexp"
	"strconv"

	"docchat-backend/models"
)

// MessageSegment is one run of a message's text. Cited segments carry the
// citation id their marker resolved to; concatenating every segment's Text
// reconstructs the input exactly.
type MessageSegment struct {
	Text       string `json:"text"`
	CitationID *int   `json:"citation_id,omitempty"`
}

// Citation binds a 1-based ordinal, stable within one message, to a
// retrieved source chunk.
type Citation struct {
	CitationID  int      `json:"citation_id"`
	SourceID    string   `json:"source_id"`
	SourceTitle string   `json:"source_title"`
	SourceType  string   `json:"source_type"`
	ChunkIndex  int      `json:"chunk_index"`
	Excerpt     string   `json:"excerpt"`
	Score       *float64 `json:"score,omitempty"`
}

// maxCitationExcerptLen caps the excerpt carried on a citation chip.
const maxCitationExcerptLen = 240

// citationMarkerPattern is the versioned marker grammar: "Chunk N",
// "Chunk #N", "Citation N", "Citation #N", "Source N"/"Source #N" and
// bracketed "[N]", case-insensitive. Keep recognition here so new surface
// forms never touch the segmentation algorithm.
var citationMarkerPattern = regexp.MustCompile(`(?i)\b(?:chunk|citation|source)\s*#?\s*(\d+)\b|\[(\d+)\]`)

// SegmentCitations splits message text into alternating plain and cited
// segments. A marker whose ordinal resolves into the supplied chunk list
// closes the current plain segment and opens a cited one holding exactly
// the marker text; out-of-range ordinals are not an error and stay plain
// (the producer may cite a chunk filtered out downstream). When no marker
// matches, the whole text is a single plain segment.
func SegmentCitations(text string, chunks []models.SourceChunk) ([]MessageSegment, []Citation) {
	citations := BuildCitations(chunks)

	matches := citationMarkerPattern.FindAllStringSubmatchIndex(text, -1)

	var segments []MessageSegment
	last := 0
	for _, m := range matches {
		ordinal := markerOrdinal(text, m)
		if ordinal < 1 || ordinal > len(chunks) {
			continue
		}

		if m[0] > last {
			segments = append(segments, MessageSegment{Text: text[last:m[0]]})
		}
		id := ordinal
		segments = append(segments, MessageSegment{Text: text[m[0]:m[1]], CitationID: &id})
		last = m[1]
	}

	if last < len(text) || len(segments) == 0 {
		segments = append(segments, MessageSegment{Text: text[last:]})
	}

	return segments, citations
}

// markerOrdinal pulls the 1-based ordinal out of whichever capture group
// matched.
func markerOrdinal(text string, m []int) int {
	for _, group := range []int{1, 2} {
		lo, hi := m[2*group], m[2*group+1]
		if lo < 0 {
			continue
		}
		n, err := strconv.Atoi(text[lo:hi])
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// BuildCitations derives the citation list for a message from its retrieved
// chunks. Ordinals are assigned by list position, so they line up with the
// markers the producer emitted against the same list.
func BuildCitations(chunks []models.SourceChunk) []Citation {
	citations := make([]Citation, 0, len(chunks))
	for i, chunk := range chunks {
		citations = append(citations, Citation{
			CitationID:  i + 1,
			SourceID:    chunk.SourceID,
			SourceTitle: chunk.SourceTitle,
			SourceType:  chunk.SourceType,
			ChunkIndex:  chunk.ChunkIndex,
			Excerpt:     truncateExcerpt(chunk.Excerpt),
			Score:       chunk.Score,
		})
	}
	return citations
}

func truncateExcerpt(excerpt string) string {
	runes := []rune(excerpt)
	if len(runes) <= maxCitationExcerptLen {
		return excerpt
	}
	return string(runes[:maxCitationExcerptLen]) + "..."
}
