package keywords

import (
	"regexp"
	"strings"
)

var (
	// properNounPattern matches capitalized word sequences (one to four
	// words), e.g. "United Nations" or "San Francisco Bay".
	properNounPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3})\b`)
	// kebabCasePattern matches hyphenated identifier-like terms, e.g.
	// "multi-tenant" or "rate-limiter".
	kebabCasePattern = regexp.MustCompile(`\b[a-z]+(?:-[a-z]+)+\b`)
	// acronymPattern matches all-caps acronyms of 2-6 letters.
	acronymPattern = regexp.MustCompile(`\b[A-Z]{2,6}\b`)
)

// EntityExtractor finds candidate keywords via configurable regex
// patterns plus an optional domain term list (spec 4.4 step 3).
type EntityExtractor struct {
	properNoun *regexp.Regexp
	kebabCase  *regexp.Regexp
	acronym    *regexp.Regexp
	domain     map[string]bool
}

// EntityOption configures an EntityExtractor.
type EntityOption func(*EntityExtractor)

// WithDomainTerms adds a fixed vocabulary of domain terms that are
// always surfaced as candidates when present in the text.
func WithDomainTerms(terms []string) EntityOption {
	return func(e *EntityExtractor) {
		for _, t := range terms {
			e.domain[Normalize(t)] = true
		}
	}
}

// WithEntityPatterns overrides the proper-noun, kebab-case, and acronym
// patterns.
func WithEntityPatterns(properNoun, kebabCase, acronym *regexp.Regexp) EntityOption {
	return func(e *EntityExtractor) {
		if properNoun != nil {
			e.properNoun = properNoun
		}
		if kebabCase != nil {
			e.kebabCase = kebabCase
		}
		if acronym != nil {
			e.acronym = acronym
		}
	}
}

// NewEntityExtractor creates an EntityExtractor with the default
// patterns.
func NewEntityExtractor(opts ...EntityOption) *EntityExtractor {
	e := &EntityExtractor{
		properNoun: properNounPattern,
		kebabCase:  kebabCasePattern,
		acronym:    acronymPattern,
		domain:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns candidate entity keywords found in text, each scored
// 1.0 (entity candidates are a binary signal; combined scoring in
// HybridExtractor weights them against TF-IDF/LLM scores).
func (e *EntityExtractor) Extract(text string) []ScoredKeyword {
	seen := make(map[string]struct{})
	var out []ScoredKeyword

	add := func(match, source string) {
		norm := Normalize(match)
		if norm == "" {
			return
		}
		if _, ok := seen[norm]; ok {
			return
		}
		seen[norm] = struct{}{}
		out = append(out, ScoredKeyword{Term: norm, Score: 1.0, Sources: []string{source}})
	}

	for _, m := range e.properNoun.FindAllString(text, -1) {
		add(m, "entity:proper_noun")
	}
	for _, m := range e.kebabCase.FindAllString(text, -1) {
		add(m, "entity:kebab_case")
	}
	for _, m := range e.acronym.FindAllString(text, -1) {
		add(m, "entity:acronym")
	}
	lowered := strings.ToLower(text)
	for term := range e.domain {
		if strings.Contains(lowered, term) {
			add(term, "entity:domain")
		}
	}

	return out
}
