package keywords

import "testing"

func TestEntityExtractor_FindsProperNounsKebabAndAcronyms(t *testing.T) {
	text := "The United Nations met to discuss a multi-tenant NASA project."
	e := NewEntityExtractor()
	results := e.Extract(text)

	terms := make(map[string]bool)
	for _, r := range results {
		terms[r.Term] = true
	}

	// The capitalized sequence starts at the sentence-initial "The".
	if !terms["the united nations"] {
		t.Errorf("expected proper noun 'the united nations', got %+v", results)
	}
	if !terms["multi-tenant"] {
		t.Errorf("expected kebab-case 'multi-tenant', got %+v", results)
	}
	if !terms["nasa"] {
		t.Errorf("expected acronym 'nasa', got %+v", results)
	}
}

func TestEntityExtractor_DomainTermsOnlyWhenPresent(t *testing.T) {
	e := NewEntityExtractor(WithDomainTerms([]string{"kubernetes", "raft consensus"}))

	present := e.Extract("we deployed this on kubernetes last night")
	foundK := false
	for _, r := range present {
		if r.Term == "kubernetes" {
			foundK = true
		}
	}
	if !foundK {
		t.Fatalf("expected domain term 'kubernetes' to be surfaced when present")
	}

	absent := e.Extract("we deployed this on a generic cluster last night")
	for _, r := range absent {
		if r.Term == "kubernetes" {
			t.Fatalf("did not expect 'kubernetes' when absent from text")
		}
	}
}
