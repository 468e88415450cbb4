package splitter

import (
	"context"
	"math"
	"strings"
)

// Embedder is the minimal capability the semantic splitter needs: turn a
// batch of sentences into vectors so adjacent ones can be compared. The
// embedding package's clients satisfy this without splitter importing it.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// SemanticSplitter breaks text at points of low similarity between
// adjacent sentences rather than at a fixed token count (spec 4.1's
// embedding-semantic mode). Sentences are grouped into a sliding buffer
// before embedding, then split at breakpoints where the cosine distance
// to the next buffer exceeds an adaptive threshold.
type SemanticSplitter struct {
	// BufferSize is how many sentences on each side are combined before
	// embedding, smoothing out noise from very short sentences.
	BufferSize int
	// BreakpointThreshold caps the adaptive similarity threshold: the
	// effective threshold is min(BreakpointThreshold, mean - 0.5*stddev)
	// of the adjacent similarities, so a boundary whose similarity is
	// above BreakpointThreshold is never a split point.
	BreakpointThreshold float64
	// MinChunkTokens discards breakpoints that would produce a chunk
	// smaller than this, merging the fragment into its neighbor instead.
	MinChunkTokens int
	// MaxChunkTokens hard-caps a chunk; if semantic grouping alone would
	// exceed it, the token-bounded splitter is used to cut it further.
	MaxChunkTokens int

	Tokenizer        Tokenizer
	SentenceSplitter SentenceSplitterStrategy
	Embedder         Embedder
}

// NewSemanticSplitter creates a SemanticSplitter. A zero or negative
// breakpointThreshold falls back to 0.5.
func NewSemanticSplitter(embedder Embedder, maxChunkTokens int, breakpointThreshold float64) *SemanticSplitter {
	if breakpointThreshold <= 0 {
		breakpointThreshold = 0.5
	}
	if maxChunkTokens <= 0 {
		maxChunkTokens = DefaultChunkSize
	}
	return &SemanticSplitter{
		BufferSize:          1,
		BreakpointThreshold: breakpointThreshold,
		MinChunkTokens:      64,
		MaxChunkTokens:      maxChunkTokens,
		Tokenizer:           NewSimpleTokenizer(),
		SentenceSplitter:    NewRegexSplitterStrategy(DefaultChunkingRegex),
		Embedder:            embedder,
	}
}

// SplitText implements TextSplitter by calling SplitTextWithContext with
// a background context; prefer SplitTextWithContext when an embedder
// call might need to be cancelled.
func (s *SemanticSplitter) SplitText(text string) []string {
	chunks, err := s.SplitTextWithContext(context.Background(), text)
	if err != nil {
		// Embedding failure degrades to the token-bounded splitter
		// rather than losing the document entirely.
		return s.fallback(text)
	}
	return chunks
}

// SplitTextWithContext performs the semantic split, returning an error
// if the embedder call fails so callers can decide whether to retry or
// fall back themselves.
func (s *SemanticSplitter) SplitTextWithContext(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sentences := s.SentenceSplitter.Split(text)
	sentences = trimEmpty(sentences)
	if len(sentences) <= 1 {
		return sentences, nil
	}

	groups := s.combineSentences(sentences)

	embeddings, err := s.Embedder.EmbedBatch(ctx, groups)
	if err != nil {
		return nil, err
	}

	distances := make([]float64, 0, len(embeddings)-1)
	for i := 0; i+1 < len(embeddings); i++ {
		sim := cosineSimilarity(embeddings[i], embeddings[i+1])
		distances = append(distances, 1-sim)
	}

	breakpoint := s.adaptiveThreshold(distances)

	var chunks []string
	var cur strings.Builder
	curTokens := 0
	for i, sentence := range sentences {
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(sentence)
		curTokens += s.tokenLength(sentence)

		isBreak := i < len(distances) && distances[i] >= breakpoint
		if isBreak && curTokens >= s.MinChunkTokens {
			chunks = append(chunks, strings.TrimSpace(cur.String()))
			cur.Reset()
			curTokens = 0
		}
	}
	if cur.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(cur.String()))
	}

	return s.enforceCeiling(chunks), nil
}

// combineSentences builds the sliding-window groups that get embedded,
// one per sentence, so the similarity signal isn't dominated by very
// short sentences.
func (s *SemanticSplitter) combineSentences(sentences []string) []string {
	groups := make([]string, len(sentences))
	for i := range sentences {
		lo := i - s.BufferSize
		if lo < 0 {
			lo = 0
		}
		hi := i + s.BufferSize
		if hi >= len(sentences) {
			hi = len(sentences) - 1
		}
		groups[i] = strings.Join(sentences[lo:hi+1], " ")
	}
	return groups
}

// adaptiveThreshold returns the cosine-distance breakpoint matching a
// similarity threshold of min(configured threshold, mean - 0.5*stddev)
// over adjacent-sentence similarities, so a corpus with naturally low
// adjacent-sentence similarity doesn't get over-split. With similarity
// = 1 - distance, that breakpoint is max(1 - threshold,
// mean + 0.5*stddev) over the distances.
func (s *SemanticSplitter) adaptiveThreshold(distances []float64) float64 {
	if len(distances) == 0 {
		return 1 - s.BreakpointThreshold
	}

	var sum float64
	for _, d := range distances {
		sum += d
	}
	mean := sum / float64(len(distances))

	var variance float64
	for _, d := range distances {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(distances))
	stddev := math.Sqrt(variance)

	statistical := mean + 0.5*stddev
	if statistical > 1-s.BreakpointThreshold {
		return statistical
	}
	return 1 - s.BreakpointThreshold
}

// enforceCeiling re-splits any chunk that exceeds MaxChunkTokens using
// the token-bounded sentence splitter, since semantic grouping alone
// gives no hard size guarantee.
func (s *SemanticSplitter) enforceCeiling(chunks []string) []string {
	fallback := NewSentenceSplitter(s.MaxChunkTokens, 0, s.Tokenizer, s.SentenceSplitter)
	var result []string
	for _, c := range chunks {
		if s.tokenLength(c) <= s.MaxChunkTokens {
			result = append(result, c)
			continue
		}
		result = append(result, fallback.SplitText(c)...)
	}
	return result
}

func (s *SemanticSplitter) fallback(text string) []string {
	return s.enforceCeiling([]string{text})
}

func (s *SemanticSplitter) tokenLength(text string) int {
	return len(s.Tokenizer.Encode(text))
}

func trimEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
