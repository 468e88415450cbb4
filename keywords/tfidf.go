package keywords

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// TFIDF scores 1-3-gram terms in a corpus context by classic TF-IDF,
// generalizing embedding.BM25's Fit/tokenize/vocabulary/docFreq shape
// (embedding/bm25.go) from unigram BM25 document scoring to n-gram
// TF-IDF candidate generation for keyword extraction (spec 4.4 step 2).
type TFIDF struct {
	minN, maxN  int
	maxFeatures int
	stopwords   map[string]bool
}

// TFIDFOption configures a TFIDF extractor.
type TFIDFOption func(*TFIDF)

// WithNGramRange sets the inclusive n-gram size range; default 1-3.
func WithNGramRange(minN, maxN int) TFIDFOption {
	return func(t *TFIDF) {
		if minN > 0 && maxN >= minN {
			t.minN, t.maxN = minN, maxN
		}
	}
}

// WithMaxFeatures caps how many top-scoring terms are retained.
func WithMaxFeatures(n int) TFIDFOption {
	return func(t *TFIDF) {
		if n > 0 {
			t.maxFeatures = n
		}
	}
}

// NewTFIDF creates a TFIDF extractor with max_features = 2*maxKeywords,
// matching the default in spec 4.4.
func NewTFIDF(maxKeywords int, opts ...TFIDFOption) *TFIDF {
	t := &TFIDF{
		minN:        1,
		maxN:        3,
		maxFeatures: 2 * maxKeywords,
		stopwords:   englishStopwords(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.maxFeatures <= 0 {
		t.maxFeatures = 10
	}
	return t
}

// Extract scores n-grams of context against the surrounding corpus
// (other document contexts it is built alongside, e.g. sibling leaf
// nodes) and returns the top max_features terms by TF-IDF weight.
func (t *TFIDF) Extract(context string, corpus []string) []ScoredKeyword {
	docs := append([]string{context}, corpus...)
	tokenizedDocs := make([][]string, len(docs))
	for i, doc := range docs {
		tokenizedDocs[i] = t.tokenize(doc)
	}

	docFreq := make(map[string]int)
	for _, tokens := range tokenizedDocs {
		for term := range t.ngramSet(tokens) {
			docFreq[term]++
		}
	}

	numDocs := float64(len(docs))
	targetTokens := tokenizedDocs[0]
	termFreq := make(map[string]int)
	for term := range t.ngramSet(targetTokens) {
		termFreq[term] = t.countOccurrences(targetTokens, term)
	}
	totalTerms := len(targetTokens)

	scored := make([]ScoredKeyword, 0, len(termFreq))
	for term, freq := range termFreq {
		tf := float64(freq) / float64(maxInt(totalTerms, 1))
		idf := math.Log(numDocs/(float64(docFreq[term])+1)) + 1
		scored = append(scored, ScoredKeyword{Term: term, Score: tf * idf, Sources: []string{"tfidf"}})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Term < scored[j].Term
	})
	if len(scored) > t.maxFeatures {
		scored = scored[:t.maxFeatures]
	}
	return scored
}

// ngramSet returns the distinct n-grams (joined by spaces) present in
// tokens across [minN, maxN].
func (t *TFIDF) ngramSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{})
	for n := t.minN; n <= t.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			set[strings.Join(tokens[i:i+n], " ")] = struct{}{}
		}
	}
	return set
}

func (t *TFIDF) countOccurrences(tokens []string, term string) int {
	words := strings.Split(term, " ")
	n := len(words)
	count := 0
	for i := 0; i+n <= len(tokens); i++ {
		if strings.Join(tokens[i:i+n], " ") == term {
			count++
		}
	}
	return count
}

var wordRe = regexp.MustCompile(`[^\w\s-]`)

func (t *TFIDF) tokenize(text string) []string {
	cleaned := wordRe.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !t.stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func englishStopwords() map[string]bool {
	words := []string{
		"a", "an", "the", "and", "or", "but", "in", "on", "at", "to", "for",
		"of", "with", "by", "from", "as", "is", "was", "are", "were", "been",
		"be", "have", "has", "had", "do", "does", "did", "will", "would",
		"could", "should", "may", "might", "must", "shall", "can", "need",
		"this", "that", "these", "those", "i", "you", "he", "she", "it",
		"we", "they", "what", "which", "who", "whom", "when", "where", "why",
		"how", "all", "each", "every", "both", "few", "more", "most", "other",
		"some", "such", "no", "nor", "not", "only", "own", "same", "so",
		"than", "too", "very", "just", "also", "now",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
