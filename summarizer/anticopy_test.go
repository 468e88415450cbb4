package summarizer

import "testing"

func TestViolatesAntiCopyGuard_HighOverlap(t *testing.T) {
	context := "The quick brown fox jumps over the lazy dog near the old wooden bridge every single morning without fail this season"
	output := "The quick brown fox jumps over the lazy dog near the old wooden bridge every single morning without fail this season, as observed repeatedly."

	if !ViolatesAntiCopyGuard(output, context) {
		t.Fatalf("expected high n-gram overlap to violate the guard")
	}
}

func TestViolatesAntiCopyGuard_Abstracted(t *testing.T) {
	context := "The quick brown fox jumps over the lazy dog near the old wooden bridge every single morning without fail this season"
	output := "A fox regularly crosses a bridge each morning."

	if ViolatesAntiCopyGuard(output, context) {
		t.Fatalf("expected abstracted short output not to violate the guard")
	}
}

func TestViolatesAntiCopyGuard_LeadingHeading(t *testing.T) {
	if !ViolatesAntiCopyGuard("# Section One", "anything") {
		t.Fatalf("expected leading markdown heading to violate the guard")
	}
}

func TestViolatesAntiCopyGuard_SourceHeaderMarker(t *testing.T) {
	if !ViolatesAntiCopyGuard("Source: quarterly-report.pdf", "anything") {
		t.Fatalf("expected source-header marker to violate the guard")
	}
}

func TestBulletsValid(t *testing.T) {
	if !bulletsValid("- one\n- two\n- three") {
		t.Fatalf("expected properly bulleted text to be valid")
	}
	if bulletsValid("one\ntwo") {
		t.Fatalf("expected non-bulleted text to be invalid")
	}
	if bulletsValid("   \n\n") {
		t.Fatalf("expected blank text to be invalid")
	}
}
