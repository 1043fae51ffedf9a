package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-rag/internal/chunker"
)

// prose builds deterministic text of exactly n characters with a 10-letter
// word every 11 characters and no leading or trailing whitespace.
func prose(t *testing.T, n int) string {
	t.Helper()
	s := strings.Repeat("abcdefghij ", n/11+1)[:n]
	require.False(t, s[0] == ' ' || s[n-1] == ' ', "prose(%d) must not start or end with a space", n)
	return s
}

// paragraphDoc joins count copies of a 598-char paragraph with blank lines,
// yielding 2998 chars for count=5.
func paragraphDoc(t *testing.T, count int) (doc, para string) {
	t.Helper()
	para = prose(t, 598)
	parts := make([]string, count)
	for i := range parts {
		parts[i] = para
	}
	return strings.Join(parts, "\n\n"), para
}

func TestChunkRejectsShortInput(t *testing.T) {
	assert.Empty(t, chunker.Chunk("Short text.", 1200, 200))
	assert.Empty(t, chunker.Chunk("", 1200, 200))
	assert.Empty(t, chunker.Chunk("   \n\n\t  ", 1200, 200))
}

func TestChunkSingletonAtViableFloor(t *testing.T) {
	text := prose(t, 100)
	chunks := chunker.Chunk(text, 1200, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkExactWindowFitsInOneChunk(t *testing.T) {
	text := prose(t, 1200)
	chunks := chunker.Chunk(text, 1200, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkParagraphAlignedWithOverlap(t *testing.T) {
	doc, para := paragraphDoc(t, 5)
	require.Len(t, doc, 2998)

	chunks := chunker.Chunk(doc, 1200, 200)
	require.Len(t, chunks, 4)

	// First cut snaps to the paragraph break just before the window end.
	assert.Equal(t, doc[:1198], chunks[0])

	for i, c := range chunks {
		assert.GreaterOrEqual(t, len(c), chunker.MinChunkSize, "chunk %d too small", i)
		assert.LessOrEqual(t, len(c), 1200, "chunk %d too large", i)
		assert.Contains(t, c, para, "chunk %d lacks a full paragraph", i)
	}

	// Each successor starts with the 200-char tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-200:]
		assert.True(t, strings.HasPrefix(chunks[i], tail), "chunk %d does not overlap chunk %d", i, i-1)
	}
}

func TestChunkSentenceBoundaryFallback(t *testing.T) {
	// No paragraph or line breaks: the cascade falls through to sentence ends.
	sentence := "The admissions information office coordinates every campus visitation for prospective students. "
	text := strings.TrimSpace(strings.Repeat(sentence, 40))

	chunks := chunker.Chunk(text, 1200, 200)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c, "."), "chunk %d should end at a sentence boundary, got %q", i, c[len(c)-20:])
	}
}

func TestChunkWordBoundaryFallback(t *testing.T) {
	// No punctuation or newlines at all: cuts land on spaces.
	text := prose(t, 5000)
	chunks := chunker.Chunk(text, 1200, 200)
	require.Greater(t, len(chunks), 2)
	for i, c := range chunks {
		assert.False(t, strings.HasPrefix(c, " ") || strings.HasSuffix(c, " "), "chunk %d not trimmed", i)
		assert.GreaterOrEqual(t, len(c), chunker.MinChunkSize, "chunk %d too small", i)
		assert.LessOrEqual(t, len(c), 1200, "chunk %d too large", i)
	}
}

func TestChunkTerminatesOnUnbreakableInput(t *testing.T) {
	// A single 5000-char "word": every cascade tier fails, raw cuts apply.
	text := strings.Repeat("a", 5000)
	chunks := chunker.Chunk(text, 1200, 200)
	require.Len(t, chunks, 5)
	covered := 0
	for _, c := range chunks {
		covered += len(c)
	}
	assert.GreaterOrEqual(t, covered, 5000, "chunks with overlap must cover the input")
}

func TestChunkFiltersNonProseFragments(t *testing.T) {
	// Plenty of characters but never ten consecutive letters.
	text := strings.TrimSpace(strings.Repeat("a b c d e f 123 ", 400))
	assert.Empty(t, chunker.Chunk(text, 1200, 200))
}

func TestChunkDeterministic(t *testing.T) {
	doc, _ := paragraphDoc(t, 5)
	first := chunker.Chunk(doc, 1200, 200)
	second := chunker.Chunk(doc, 1200, 200)
	assert.Equal(t, first, second)
}

func TestChunkReprependsSourceHeader(t *testing.T) {
	header := "Source: https://example.edu/internships"
	doc, _ := paragraphDoc(t, 5)
	text := header + "\n\n" + doc

	chunks := chunker.Chunk(text, 1200, 200)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.True(t, strings.HasPrefix(c, header), "chunk %d lost its attribution header", i)
		// The header prepend may push a chunk slightly past maxChars.
		assert.LessOrEqual(t, len(c), 1200+len(header)+1, "chunk %d too large", i)
	}
}

func TestChunkHeaderSurvivesFilteredLeadingChunk(t *testing.T) {
	// Scraped pages often open with link/nav noise: short words, no prose
	// run. That first chunk gets filtered, and the header must land on
	// whichever chunk becomes first instead.
	header := "Source: https://example.edu/nav"
	nav := strings.TrimSpace(strings.Repeat("Home News Events Info Map ", 43))
	text := header + "\n\n" + nav + "\n\n" + prose(t, 700) + "\n\n" + prose(t, 700)

	chunks := chunker.Chunk(text, 1200, 200)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.True(t, strings.HasPrefix(c, header), "chunk %d lost its attribution header", i)
		body := strings.TrimSpace(strings.TrimPrefix(c, header))
		assert.Regexp(t, "[a-zA-Z]{10,}", body, "chunk %d is pure navigation noise", i)
	}
}

func TestChunkNormalizesWhitespace(t *testing.T) {
	messy := "Several\t\twords   with  uneven\tspacing here.\n\n\n\n\nNext paragraph follows\r\nwith a windows linebreak and trailing characters everywhere."
	chunks := chunker.Chunk(messy, 1200, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Several words with uneven spacing here.\n\nNext paragraph follows\nwith a windows linebreak and trailing characters everywhere.", chunks[0])
}

func TestChunkOverlapAdvancesLessThanChunkLength(t *testing.T) {
	doc, _ := paragraphDoc(t, 5)
	chunks := chunker.Chunk(doc, 1200, 200)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		// A non-empty suffix of chunk i-1 must reappear at the start of
		// chunk i: the window advance is strictly smaller than the chunk.
		overlap := sharedOverlap(chunks[i-1], chunks[i])
		assert.Greater(t, overlap, 0, "chunks %d and %d share no text", i-1, i)
	}
}

func sharedOverlap(prev, next string) int {
	max := len(prev)
	if len(next) < max {
		max = len(next)
	}
	for n := max; n > 0; n-- {
		if strings.HasPrefix(next, prev[len(prev)-n:]) {
			return n
		}
	}
	return 0
}
