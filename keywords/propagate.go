package keywords

import "sort"

// SynthesizeParentKeywords derives a parent node's keywords from its own
// synthesized terms (TF-IDF/entities over its summary) and its
// children's keyword lists, per spec 4.4's hierarchical propagation
// rule: terms appearing in both the parent's own candidates and at
// least one child are prioritized, then the parent fills remaining
// slots with its own highest-scoring terms, and finally with
// important child-only terms. The result never exceeds 12 terms.
func SynthesizeParentKeywords(ownCandidates []ScoredKeyword, childKeywords [][]string) []string {
	childSet := make(map[string]struct{})
	for _, childTerms := range childKeywords {
		for _, term := range childTerms {
			childSet[Normalize(term)] = struct{}{}
		}
	}

	sorted := make([]ScoredKeyword, len(ownCandidates))
	copy(sorted, ownCandidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	var shared, ownOnly []string
	seen := make(map[string]struct{})
	for _, c := range sorted {
		if _, ok := seen[c.Term]; ok {
			continue
		}
		seen[c.Term] = struct{}{}
		if _, inChild := childSet[c.Term]; inChild {
			shared = append(shared, c.Term)
		} else {
			ownOnly = append(ownOnly, c.Term)
		}
	}

	result := append([]string{}, shared...)
	for _, term := range ownOnly {
		if len(result) >= maxKeywordsPerNode {
			break
		}
		result = append(result, term)
	}

	if len(result) < maxKeywordsPerNode {
		for _, childTerms := range childKeywords {
			for _, term := range childTerms {
				norm := Normalize(term)
				if _, ok := seen[norm]; ok {
					continue
				}
				seen[norm] = struct{}{}
				result = append(result, norm)
				if len(result) >= maxKeywordsPerNode {
					break
				}
			}
			if len(result) >= maxKeywordsPerNode {
				break
			}
		}
	}

	if len(result) > maxKeywordsPerNode {
		result = result[:maxKeywordsPerNode]
	}
	return result
}
