package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/internal/domain"
)

func TestSplitShortPageSingleChunk(t *testing.T) {
	s := NewRecursiveSplitter(2000, 200)
	pages := []domain.Page{{Content: "short text", Source: "a.txt", Page: "N/A"}}

	chunks := s.Split(pages)

	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Content)
	assert.Equal(t, "a.txt", chunks[0].Source)
	assert.Equal(t, "N/A", chunks[0].Page)
}

func TestSplitHardCut3000Chars(t *testing.T) {
	// 3000 unbroken characters with max 2000 and overlap 200 must yield two
	// chunks, the second starting 200 characters before the first one ends.
	text := strings.Repeat("a", 3000)
	s := NewRecursiveSplitter(2000, 200)

	chunks := s.SplitText(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, text[:2000], chunks[0])
	assert.Equal(t, text[1800:], chunks[1])
}

func TestSplitRespectsMaxSize(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString("word ")
	}
	s := NewRecursiveSplitter(50, 10)

	chunks := s.SplitText(sb.String())

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
}

func TestSplitConsecutiveChunksOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("word ")
	}
	s := NewRecursiveSplitter(50, 10)

	chunks := s.SplitText(sb.String())

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-10:]
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d should start with the last 10 chars of chunk %d", i, i-1)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("x", 30)
	para2 := strings.Repeat("y", 30)
	s := NewRecursiveSplitter(40, 10)

	chunks := s.SplitText(para1 + "\n\n" + para2)

	require.Len(t, chunks, 2)
	assert.Equal(t, para1, chunks[0])
	assert.Equal(t, para2, chunks[1])
}

func TestSplitDeterministic(t *testing.T) {
	pages := []domain.Page{
		{Content: strings.Repeat("lorem ipsum dolor sit amet. ", 300), Source: "a.pdf", Page: "1"},
		{Content: strings.Repeat("b", 4500), Source: "b.txt", Page: "N/A"},
	}
	s := NewRecursiveSplitter(2000, 200)

	first := s.Split(pages)
	second := s.Split(pages)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestSplitMetadataTracesToOnePage(t *testing.T) {
	pages := []domain.Page{
		{Content: strings.Repeat("alpha ", 700), Source: "a.pdf", Page: "1"},
		{Content: strings.Repeat("beta ", 700), Source: "a.pdf", Page: "2"},
	}
	s := NewRecursiveSplitter(2000, 200)

	chunks := s.Split(pages)

	require.Greater(t, len(chunks), 2)
	for _, c := range chunks {
		assert.Equal(t, "a.pdf", c.Source)
		if strings.Contains(c.Content, "alpha") {
			assert.Equal(t, "1", c.Page)
			assert.NotContains(t, c.Content, "beta")
		} else {
			assert.Equal(t, "2", c.Page)
		}
	}
}

func TestSplitSkipsBlankPages(t *testing.T) {
	pages := []domain.Page{
		{Content: "  \n\t ", Source: "blank.txt", Page: "N/A"},
		{Content: "real content", Source: "real.txt", Page: "N/A"},
	}
	s := NewRecursiveSplitter(2000, 200)

	chunks := s.Split(pages)

	require.Len(t, chunks, 1)
	assert.Equal(t, "real.txt", chunks[0].Source)
}
