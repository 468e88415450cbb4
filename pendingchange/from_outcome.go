package pendingchange

import (
	"fmt"
	"time"

	"github.com/kgraptor/engine/conflict"
)

// FromOutcome builds a PendingChange from a conflict.Resolver outcome
// recommending flag_review (spec 4.11 step 4 / 4.13: "transforms a
// resolver output into an external submission"). Callers are
// responsible for only calling this when
// outcome.Recommendation == conflict.RecommendationFlagReview; this
// function does not gate on it itself, so a caller that changes its
// mind about which outcomes warrant review isn't fighting an opinion
// buried in here.
func FromOutcome(content conflict.NewContent, match conflict.ExistingMatch, outcome *conflict.Outcome, org, team, requestedBy string, now time.Time) PendingChange {
	res := outcome.Resolution
	return PendingChange{
		ID:         stableID(match.NodeID, content.Text),
		ChangeType: string(res.Relationship),
		Org:        org,
		Team:       team,
		ProposedValue: ProposedValue{
			Title:      summarizeTitle(content),
			NewContent: content.Text,
			Reasoning:  res.Reasoning,
			Confidence: res.Confidence,
			Evidence:   buildEvidence(content, match, res),
		},
		PreviousValue: PreviousValue{
			ExistingNodeID: match.NodeID,
			ExistingText:   match.Content,
			ExistingSource: match.Source,
		},
		RequestedBy: requestedBy,
		Reason:      res.Reasoning,
		Status:      StatusPending,
		CreatedAt:   now,
	}
}

func summarizeTitle(content conflict.NewContent) string {
	if content.Analysis != nil && content.Analysis.Summary != "" {
		return content.Analysis.Summary
	}
	if len(content.Text) > 80 {
		return content.Text[:80] + "..."
	}
	return content.Text
}

// buildEvidence assembles the human-readable evidence list a reviewer
// sees alongside the proposed edit: the similarity score that matched
// it to the existing node, the relationship the LLM judged between
// them, and (when available) the knowledge type the analyzer assigned
// the new content.
func buildEvidence(content conflict.NewContent, match conflict.ExistingMatch, res conflict.Resolution) []string {
	evidence := []string{
		fmt.Sprintf("similarity to existing node %d: %.3f", match.NodeID, match.SimilarityScore),
		fmt.Sprintf("judged relationship: %s", res.Relationship),
	}
	if content.Analysis != nil && content.Analysis.KnowledgeType != "" {
		evidence = append(evidence, fmt.Sprintf("knowledge type: %s", content.Analysis.KnowledgeType))
	}
	if content.Source != "" {
		evidence = append(evidence, fmt.Sprintf("new content source: %s", content.Source))
	}
	return evidence
}
