// Package conflict implements the conflict resolver (spec 4.11): when a
// newly analyzed chunk is similar to content already stored in the tree,
// it decides whether to skip, replace, merge, add the new content
// alongside the old as a cross-reference, or flag the pair for human
// review — generalizing the teacher's TreeIndexInserter
// (index/tree_inserter.go) similarity-routing logic, which only ever
// chose an insertion parent, into a richer decision with five outcomes
// instead of one.
package conflict

import "time"

// Relationship classifies how new content relates to an existing match.
type Relationship string

const (
	RelationshipDuplicate   Relationship = "duplicate"
	RelationshipSupersedes  Relationship = "supersedes"
	RelationshipContradicts Relationship = "contradicts"
	RelationshipComplements Relationship = "complements"
	RelationshipUnrelated   Relationship = "unrelated"
)

// Recommendation is the action the resolver takes for the highest-
// similarity match.
type Recommendation string

const (
	RecommendationSkip       Recommendation = "skip"
	RecommendationReplace    Recommendation = "replace"
	RecommendationMerge      Recommendation = "merge"
	RecommendationAddAsNew   Recommendation = "add_as_new"
	RecommendationFlagReview Recommendation = "flag_review"
)

// ImportanceAdjustment tells the caller how to rescale importance on
// the existing and new content once a recommendation is applied.
type ImportanceAdjustment struct {
	ExistingMultiplier float64 `json:"existing_multiplier"`
	NewImportance      float64 `json:"new_importance"`
}

// NewContent is the candidate content being considered for insertion.
type NewContent struct {
	Text     string
	Source   string
	Analysis *Analysis
}

// Analysis is the subset of an analyzer.Result the resolver reasons
// about; kept as its own type so this package does not need to import
// analyzer just to read a summary and knowledge type.
type Analysis struct {
	KnowledgeType string
	Summary       string
	Importance    float64
}

// ExistingMatch is one already-stored node similar enough to the new
// content to be worth comparing, as supplied by the caller (spec 4.11:
// "a list of existing similar nodes {id, content, source, updated_at,
// similarity_score}").
type ExistingMatch struct {
	NodeID          int
	Content         string
	Source          string
	UpdatedAt       time.Time
	SimilarityScore float64
}

// Resolution is the structured judgment an LLM call returns for one
// (new content, existing match) pair, matching spec 4.11's
// ConflictResolutionResult.
type Resolution struct {
	Relationship         Relationship         `json:"relationship"`
	Recommendation       Recommendation       `json:"recommendation"`
	Confidence           float64              `json:"confidence"`
	ImportanceAdjustment ImportanceAdjustment `json:"importance_adjustment"`
	Reasoning            string               `json:"reasoning,omitempty"`
	MergedContent        string               `json:"merged_content,omitempty"`
}

// flagReviewFallback is returned when an LLM call fails outright (spec
// 4.11 step 4: "On LLM failure: default to flag_review with a low
// confidence; never silently drop").
func flagReviewFallback(reason string) Resolution {
	return Resolution{
		Relationship:   RelationshipUnrelated,
		Recommendation: RecommendationFlagReview,
		Confidence:     0.1,
		Reasoning:      reason,
	}
}

// Outcome is what the resolver decided to do, after applying the
// winning match's Resolution to the caller's two pieces of content.
type Outcome struct {
	Recommendation Recommendation

	// Existing is set for Replace/Merge: the text and source
	// attribution the existing node should be updated to.
	ExistingText   string
	ExistingSource string

	// ImportanceAdjustment carries the multiplier/new-importance pair
	// the resolution (or, for merge, the winning match's resolution)
	// specified.
	ImportanceAdjustment ImportanceAdjustment

	// MatchedNodeID identifies which existing match the outcome
	// applies to. Zero-value (with Recommendation == AddAsNew) means no
	// match was acted on directly, but CrossReferenceNodeID may still
	// name the nearest match for a "related_to" link.
	MatchedNodeID int

	// CrossReferenceNodeID is set for AddAsNew: the existing node the
	// new content should be linked to via a "related_to" relationship.
	CrossReferenceNodeID int

	Resolution Resolution
	Reasoning  string
}
