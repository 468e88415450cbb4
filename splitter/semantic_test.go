package splitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns embeddings chosen so that the first two sentence
// groups are near-identical and the third is far away, giving the
// adaptive threshold a clear breakpoint to find.
type fakeEmbedder struct{}

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i := range texts {
		if i < 2 {
			vectors[i] = []float64{1, 0, 0}
		} else {
			vectors[i] = []float64{0, 1, 0}
		}
	}
	return vectors, nil
}

func TestSemanticSplitter_BreaksAtLowSimilarity(t *testing.T) {
	s := NewSemanticSplitter(fakeEmbedder{}, 1024, 0.9)
	s.MinChunkTokens = 1
	s.BufferSize = 0

	text := "Alpha one. Alpha two. Beta three."
	chunks := s.SplitText(text)

	require.Len(t, chunks, 2)
	require.Contains(t, chunks[0], "Alpha")
	require.Contains(t, chunks[1], "Beta")
}

func TestSemanticSplitter_SingleSentenceIsOneChunk(t *testing.T) {
	s := NewSemanticSplitter(fakeEmbedder{}, 1024, 0.5)
	chunks := s.SplitText("Only one sentence here.")
	require.Len(t, chunks, 1)
}

func TestSemanticSplitter_EnforcesHardCeiling(t *testing.T) {
	s := NewSemanticSplitter(fakeEmbedder{}, 3, 0.5)
	s.MinChunkTokens = 0

	text := "Alpha one two three four five. Beta one two three four five."
	chunks := s.SplitText(text)

	for _, c := range chunks {
		require.LessOrEqual(t, s.tokenLength(c), 3)
	}
}
