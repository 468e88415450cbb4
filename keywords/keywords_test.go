package keywords

import "testing"

func TestNormalizeIsIdempotent(t *testing.T) {
	cases := []string{"  Multi-Tenant, ", "API.", "San Francisco", "already-normal"}
	for _, c := range cases {
		once := Normalize(c)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: once=%q twice=%q", c, once, twice)
		}
	}
}

func TestNormalizeCollapsesWhitespaceAndCase(t *testing.T) {
	if got := Normalize("  San   Francisco  "); got != "san francisco" {
		t.Fatalf("got %q", got)
	}
}
