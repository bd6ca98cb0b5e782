package textsplitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/ragpipe/schema"
)

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("Hello world! How are you? I am fine.")
	assert.Equal(t, []string{"Hello world!", "How are you?", "I am fine."}, got)
}

func TestSplitSentencesKeepsDecimalsTogether(t *testing.T) {
	got := SplitSentences("Pi is 3.14 exactly. Next point.")
	assert.Equal(t, []string{"Pi is 3.14 exactly.", "Next point."}, got)
}

func TestSplitSentencesRepeatedTerminators(t *testing.T) {
	got := SplitSentences("One!!  Two.")
	assert.Equal(t, []string{"One!!", "Two."}, got)
}

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("first\npara\n\n\n\nsecond\n\n  \n\nthird")
	assert.Equal(t, []string{"first\npara", "second", "third"}, got)
}

func TestFixedSizeSplitterWindows(t *testing.T) {
	// 250 chars, no whitespace, so windows survive trimming intact.
	text := strings.Repeat("abcdefghij", 25)
	s := NewFixedSizeSplitter(100, 20)

	chunks := s.SplitText(text)

	require.Len(t, chunks, 3)
	assert.Equal(t, text[0:100], chunks[0])
	assert.Equal(t, text[80:180], chunks[1])
	assert.Equal(t, text[160:250], chunks[2])
	// Consecutive windows share the overlap.
	assert.Equal(t, chunks[0][80:], chunks[1][:20])
}

func TestFixedSizeSplitterSkipsWhitespaceWindows(t *testing.T) {
	text := strings.Repeat("x", 10) + strings.Repeat(" ", 10) + strings.Repeat("y", 5)
	s := NewFixedSizeSplitter(10, 0)

	chunks := s.SplitText(text)

	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("y", 5)}, chunks)
}

func TestFixedSizeSplitterDoesNotStallOnFullOverlap(t *testing.T) {
	text := strings.Repeat("z", 25)
	s := NewFixedSizeSplitter(10, 10)

	chunks := s.SplitText(text)

	assert.Equal(t, []string{
		strings.Repeat("z", 10),
		strings.Repeat("z", 10),
		strings.Repeat("z", 5),
	}, chunks)
}

func TestRecursiveSplitterShortTextSingleChunk(t *testing.T) {
	s := NewRecursiveSplitter(100, 10)
	assert.Equal(t, []string{"tiny text"}, s.SplitText("  tiny text \n"))
	assert.Empty(t, s.SplitText("   \n\t "))
}

func TestRecursiveSplitterPacksParagraphs(t *testing.T) {
	p1 := strings.Repeat("a", 30)
	p2 := strings.Repeat("b", 30)
	p3 := strings.Repeat("c", 30)
	text := p1 + "\n\n" + p2 + "\n\n" + p3

	s := NewRecursiveSplitter(70, 0)
	chunks := s.SplitText(text)

	// p1+p2 fit in 70 together with the separator; p3 does not.
	assert.Equal(t, []string{p1 + "\n\n" + p2, p3}, chunks)
}

func TestRecursiveSplitterRecursesIntoOversizedPart(t *testing.T) {
	lines := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}
	big := strings.Join(lines, "\n")
	text := "intro\n\n" + big

	s := NewRecursiveSplitter(50, 0)
	chunks := s.SplitText(text)

	// The oversized paragraph is split again on newlines.
	assert.Equal(t, []string{"intro", lines[0], lines[1], lines[2]}, chunks)
}

func TestRecursiveSplitterFixedFallbackWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 2500)
	s := NewRecursiveSplitter(1000, 0)

	chunks := s.SplitText(text)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 500)
}

func TestSentenceSplitterPacksSentences(t *testing.T) {
	s := NewSentenceSplitter(9)
	chunks := s.SplitText("One. Two. Three.")
	assert.Equal(t, []string{"One. Two.", "Three."}, chunks)
}

func TestSentenceSplitterKeepsOversizedSentenceWhole(t *testing.T) {
	long := "This sentence is far longer than the budget allows."
	s := NewSentenceSplitter(10)

	chunks := s.SplitText(long + " Ok.")

	assert.Equal(t, []string{long, "Ok."}, chunks)
}

func TestParagraphSplitterOneChunkPerParagraph(t *testing.T) {
	s := NewParagraphSplitter(100)
	chunks := s.SplitText("alpha beta\n\ngamma delta")
	assert.Equal(t, []string{"alpha beta", "gamma delta"}, chunks)
}

func TestParagraphSplitterCascadesOversizedToSentences(t *testing.T) {
	para := "First point here. Second point here. Third point here."
	s := NewParagraphSplitter(40)

	chunks := s.SplitText("short one\n\n" + para)

	assert.Equal(t, []string{
		"short one",
		"First point here. Second point here.",
		"Third point here.",
	}, chunks)
}

func TestForConfigStrategyTable(t *testing.T) {
	cases := map[schema.ChunkingStrategy]interface{}{
		schema.ChunkingFixedSize: &FixedSizeSplitter{},
		schema.ChunkingRecursive: &RecursiveSplitter{},
		schema.ChunkingSentence:  &SentenceSplitter{},
		schema.ChunkingParagraph: &ParagraphSplitter{},
		schema.ChunkingSemantic:  &SemanticSplitter{},
	}
	for strategy, wantType := range cases {
		s, err := ForConfig(schema.ChunkingConfig{Strategy: strategy, ChunkSize: 500, ChunkOverlap: 50}, nil)
		require.NoError(t, err, string(strategy))
		assert.IsType(t, wantType, s, string(strategy))
	}
}

func TestForConfigDefaultsToRecursive(t *testing.T) {
	s, err := ForConfig(schema.ChunkingConfig{ChunkSize: 500}, nil)
	require.NoError(t, err)
	assert.IsType(t, &RecursiveSplitter{}, s)
}

func TestForConfigUnknownStrategy(t *testing.T) {
	_, err := ForConfig(schema.ChunkingConfig{Strategy: "zigzag", ChunkSize: 500}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zigzag")
}

func TestAllStrategiesDropWhitespaceOnlyInput(t *testing.T) {
	for _, strategy := range schema.ChunkingStrategies() {
		s, err := ForConfig(schema.ChunkingConfig{Strategy: strategy, ChunkSize: 100, ChunkOverlap: 10}, nil)
		require.NoError(t, err, string(strategy))

		assert.Empty(t, s.SplitText("  \n\n \t  \n"), string(strategy))
		assert.Empty(t, s.SplitText(""), string(strategy))
	}
}

func TestAllStrategiesPreserveDocumentOrder(t *testing.T) {
	text := "Alpha starts here. Beta follows after. Gamma comes next. Delta closes it."
	for _, strategy := range schema.ChunkingStrategies() {
		s, err := ForConfig(schema.ChunkingConfig{Strategy: strategy, ChunkSize: 40, ChunkOverlap: 5}, nil)
		require.NoError(t, err, string(strategy))

		chunks := s.SplitText(text)
		require.NotEmpty(t, chunks, string(strategy))

		last := -1
		for _, chunk := range chunks {
			require.NotEmpty(t, strings.TrimSpace(chunk), string(strategy))
			idx := strings.Index(text, chunk)
			require.GreaterOrEqual(t, idx, 0, "%s: chunk %q not found in source", strategy, chunk)
			assert.Greater(t, idx, last, "%s: chunks out of order", strategy)
			last = idx
		}
	}
}
