// Package chunker splits normalized document text into bounded, overlapping
// segments, preferring semantic boundaries (paragraph, sentence, line, word)
// over raw character cuts.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"campus-rag/internal/models"
)

const (
	// MinChunkSize is the smallest segment worth embedding; anything below
	// it carries no retrievable signal and is dropped rather than emitted.
	MinChunkSize = 400

	// MinDocLength is the viable-document floor. Shorter inputs produce no
	// chunks at all.
	MinDocLength = 100

	DefaultMaxChars = 1200
	DefaultOverlap  = 200
)

// Boundary floors, as percentages of maxChars. Weaker boundary types get
// lower floors since any cut there is better than none.
const (
	paragraphFloorPct = 50
	sentenceFloorPct  = 60
	lineFloorPct      = 70
	wordFloorPct      = 80
)

var (
	collapseSpaces = regexp.MustCompile(`[ \t]+`)
	hugNewline     = regexp.MustCompile(` ?\n ?`)
	collapseBlank  = regexp.MustCompile(`\n{3,}`)

	// At least one run of 10+ consecutive letters, so pure link/formatting
	// fragments never reach the index.
	proseRun = regexp.MustCompile(`[a-zA-Z]{10,}`)
)

// Chunk splits text into overlapping segments of at most maxChars characters
// (a prepended attribution header may push a segment slightly over). It is
// deterministic and pure: the same input always yields the same output.
func Chunk(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChars {
		overlap = maxChars / 2
	}

	t := Normalize(text)
	if len(t) < MinDocLength {
		return nil
	}
	if len(t) <= maxChars {
		return []string{t}
	}

	header := sourceHeader(t)

	var chunks []string
	n := len(t)
	start := 0
	for start < n {
		end := start + maxChars
		final := end >= n
		if final {
			end = n
		} else {
			end = breakPoint(t, start, end, maxChars)
		}
		piece := strings.TrimSpace(t[start:end])
		if len(piece) >= MinChunkSize {
			chunks = append(chunks, piece)
		}
		if final {
			break
		}
		// Target advance is maxChars-overlap, but never less than
		// MinChunkSize: boundary snapping must not stall the window.
		next := end - overlap
		if next < start+MinChunkSize {
			next = start + MinChunkSize
		}
		start = next
	}

	kept := chunks[:0]
	for _, c := range chunks {
		body := c
		if header != "" {
			body = strings.TrimSpace(strings.TrimPrefix(body, header))
		}
		if proseRun.MatchString(body) {
			kept = append(kept, c)
		}
	}
	chunks = kept

	// Every chunk stays independently attributable even when retrieved
	// without its siblings. The first chunk carries the header naturally
	// unless the prose filter dropped it.
	if header != "" {
		for i, c := range chunks {
			if !strings.HasPrefix(c, header) {
				chunks[i] = header + "\n" + c
			}
		}
	}
	return chunks
}

// Normalize collapses runs of spaces and tabs to a single space, runs of 3+
// newlines to a paragraph break, and trims the result. Single and double
// newlines survive so that line and paragraph boundaries remain detectable.
func Normalize(text string) string {
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = collapseSpaces.ReplaceAllString(t, " ")
	t = hugNewline.ReplaceAllString(t, "\n")
	t = collapseBlank.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}

// sourceHeader returns the leading attribution line, if present.
func sourceHeader(t string) string {
	if !strings.HasPrefix(t, models.SourceHeaderPrefix) {
		return ""
	}
	line := t
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		line = t[:i]
	}
	if strings.TrimSpace(strings.TrimPrefix(line, models.SourceHeaderPrefix)) == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

// breakPoint searches backward from the naive window end for the best cut
// under the priority cascade: paragraph break, sentence end, line break,
// word boundary. Each floor is a minimum offset into the window; falling
// through every tier returns the raw cut.
func breakPoint(t string, start, naiveEnd, maxChars int) int {
	window := t[start:naiveEnd]

	if i := strings.LastIndex(window, "\n\n"); i >= maxChars*paragraphFloorPct/100 {
		return start + i
	}

	for j := len(window) - 1; j >= maxChars*sentenceFloorPct/100; j-- {
		if isSentenceEnd(t, start+j, naiveEnd) {
			return start + j + 1
		}
	}

	if i := strings.LastIndexByte(window, '\n'); i >= maxChars*lineFloorPct/100 {
		return start + i
	}

	for j := len(window) - 1; j >= maxChars*wordFloorPct/100; j-- {
		if window[j] == ' ' {
			return start + j
		}
	}

	return naiveEnd
}

// isSentenceEnd reports whether t[pos] terminates a sentence: one of .!?
// followed by whitespace and a capital letter, or sitting at the window end.
func isSentenceEnd(t string, pos, windowEnd int) bool {
	switch t[pos] {
	case '.', '!', '?':
	default:
		return false
	}
	k := pos + 1
	if k >= windowEnd {
		return true
	}
	if t[k] != ' ' && t[k] != '\n' {
		return false
	}
	for k < len(t) && (t[k] == ' ' || t[k] == '\n') {
		k++
	}
	if k >= len(t) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(t[k:])
	return unicode.IsUpper(r)
}
