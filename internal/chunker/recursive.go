// Package chunker splits page text into bounded, overlapping chunks for
// embedding and retrieval.
package chunker

import (
	"strings"
	"unicode/utf8"

	"ragserver/internal/domain"
)

// defaultSeparators orders split boundaries from most to least semantic:
// paragraph, line, sentence, word, then a hard character cut.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveSplitter cuts text at the most semantic boundary that still
// produces pieces within the size limit, falling through the separator list
// before resorting to a hard cut. Splitting is pure and deterministic.
type RecursiveSplitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewRecursiveSplitter creates a splitter with the given maximum chunk length
// and overlap between consecutive chunks, both in characters.
func NewRecursiveSplitter(chunkSize, overlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 2000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &RecursiveSplitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split turns pages into chunks. Pages are split independently so every chunk
// inherits the source and page of exactly one page unit.
func (s *RecursiveSplitter) Split(pages []domain.Page) []domain.Chunk {
	var chunks []domain.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		for _, text := range s.SplitText(page.Content) {
			chunks = append(chunks, domain.Chunk{
				Content: text,
				Source:  page.Source,
				Page:    page.Page,
			})
		}
	}
	return chunks
}

// SplitText splits raw text into pieces of at most chunkSize characters.
func (s *RecursiveSplitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	// Pick the first separator actually present; the empty separator always
	// matches and forces the hard cut.
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}
	if sep == "" {
		return s.hardSplit(text)
	}

	var pieces []string
	for _, part := range strings.Split(text, sep) {
		if part == "" {
			continue
		}
		if len(part) > s.chunkSize {
			pieces = append(pieces, s.split(part, rest)...)
		} else {
			pieces = append(pieces, part)
		}
	}
	return s.merge(pieces, sep)
}

// merge greedily packs pieces back together up to chunkSize, seeding each new
// chunk with the overlap tail of the previous one.
func (s *RecursiveSplitter) merge(pieces []string, sep string) []string {
	var chunks []string
	current := ""
	for _, piece := range pieces {
		if current == "" {
			current = piece
			continue
		}
		if len(current)+len(sep)+len(piece) <= s.chunkSize {
			current += sep + piece
			continue
		}
		chunks = append(chunks, current)
		tail := s.overlapTail(current)
		if tail != "" && len(tail)+len(sep)+len(piece) <= s.chunkSize {
			current = tail + sep + piece
		} else {
			current = piece
		}
	}
	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// hardSplit cuts text into fixed windows stepping by chunkSize-overlap.
func (s *RecursiveSplitter) hardSplit(text string) []string {
	step := s.chunkSize - s.overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end >= len(text) {
			chunks = append(chunks, text[snapRune(text, start):])
			break
		}
		chunks = append(chunks, text[snapRune(text, start):snapRune(text, end)])
	}
	return chunks
}

// overlapTail returns the last overlap characters of text, snapped forward to
// a rune boundary.
func (s *RecursiveSplitter) overlapTail(text string) string {
	if s.overlap == 0 || len(text) <= s.overlap {
		return ""
	}
	return text[snapRune(text, len(text)-s.overlap):]
}

// snapRune moves a byte offset forward to the nearest rune start.
func snapRune(text string, i int) int {
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}
