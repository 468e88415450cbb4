package pendingchange

import (
	"testing"
	"time"

	"github.com/kgraptor/engine/conflict"
)

func TestFromOutcome_MapsOutcomeIntoPendingChange(t *testing.T) {
	content := conflict.NewContent{
		Text:   "Redis now requires TLS for session storage.",
		Source: "runbook-v2",
		Analysis: &conflict.Analysis{
			KnowledgeType: "procedure",
			Summary:       "Redis TLS requirement change",
		},
	}
	match := conflict.ExistingMatch{
		NodeID:          7,
		Content:         "Redis handles session storage for the auth service.",
		Source:          "wiki",
		SimilarityScore: 0.87,
	}
	outcome := &conflict.Outcome{
		Recommendation: conflict.RecommendationFlagReview,
		MatchedNodeID:  7,
		Resolution: conflict.Resolution{
			Relationship:   conflict.RelationshipContradicts,
			Recommendation: conflict.RecommendationFlagReview,
			Confidence:     0.6,
			Reasoning:      "conflicting TLS requirement, needs human judgment",
		},
	}

	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	pc := FromOutcome(content, match, outcome, "platform", "infra", "conflict-resolver", now)

	if pc.ID == "" {
		t.Fatalf("expected a non-empty stable id")
	}
	if pc.ChangeType != string(conflict.RelationshipContradicts) {
		t.Fatalf("expected change type %q, got %q", conflict.RelationshipContradicts, pc.ChangeType)
	}
	if pc.Org != "platform" || pc.Team != "infra" {
		t.Fatalf("expected org/team routing tags to carry through, got %+v", pc)
	}
	if pc.ProposedValue.Title != "Redis TLS requirement change" {
		t.Fatalf("expected analyzer summary as title, got %q", pc.ProposedValue.Title)
	}
	if pc.PreviousValue.ExistingNodeID != 7 || pc.PreviousValue.ExistingText != match.Content {
		t.Fatalf("expected previous value to reference the matched node, got %+v", pc.PreviousValue)
	}
	if len(pc.ProposedValue.Evidence) == 0 {
		t.Fatalf("expected a non-empty evidence list")
	}
	if pc.Status != StatusPending {
		t.Fatalf("expected initial status %q, got %q", StatusPending, pc.Status)
	}
}

func TestFromOutcome_FallsBackToTruncatedTextWhenNoAnalysis(t *testing.T) {
	longText := ""
	for i := 0; i < 20; i++ {
		longText += "a long line of new content "
	}
	content := conflict.NewContent{Text: longText}
	match := conflict.ExistingMatch{NodeID: 1, Content: "existing"}
	outcome := &conflict.Outcome{Resolution: conflict.Resolution{Relationship: conflict.RelationshipSupersedes}}

	pc := FromOutcome(content, match, outcome, "org", "team", "bot", time.Now())
	if pc.ProposedValue.Title == longText {
		t.Fatalf("expected title to be truncated when no analysis summary is present")
	}
}
