package conflict

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kgraptor/engine/llm"
)

// Config configures a Resolver.
type Config struct {
	// SimilarityThreshold drops matches scoring below it before any LLM
	// call is made (spec 4.11 step 1).
	SimilarityThreshold float64
	// MaxRetries bounds how many times a failed per-match LLM call is
	// retried before that match falls back to flag_review.
	MaxRetries uint64
}

func (c Config) maxRetries() uint64 {
	if c.MaxRetries == 0 {
		return 1
	}
	return c.MaxRetries
}

// Resolver decides what to do when new content resembles one or more
// nodes already in the tree, generalizing the teacher's
// TreeIndexInserter similarity routing (index/tree_inserter.go) from a
// single best-parent choice into the five-way decision of spec 4.11.
type Resolver struct {
	llm    llm.StructuredLLM
	cfg    Config
	logger *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a Resolver backed by structured.
func NewResolver(structured llm.StructuredLLM, cfg Config, opts ...Option) *Resolver {
	r := &Resolver{llm: structured, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the full conflict-resolution algorithm (spec 4.11): drop
// matches below the similarity threshold, judge each remaining match
// with an LLM call, then apply the highest-similarity match's
// recommendation. A nil Outcome means there were no matches worth
// judging and the new content should be stored as-is.
func (r *Resolver) Resolve(ctx context.Context, content NewContent, matches []ExistingMatch) (*Outcome, error) {
	kept := r.filterBySimilarity(matches)
	if len(kept) == 0 {
		return nil, nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].SimilarityScore > kept[j].SimilarityScore
	})

	resolutions := make([]Resolution, len(kept))
	for i, match := range kept {
		res, err := r.judge(ctx, content, match)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("conflict resolution fell back to flag_review", zap.Error(err), zap.Int("node_id", match.NodeID))
			res = flagReviewFallback(err.Error())
		}
		resolutions[i] = res
	}

	winner := kept[0]
	winnerResolution := resolutions[0]
	return r.apply(content, winner, winnerResolution), nil
}

// filterBySimilarity drops matches scoring below cfg.SimilarityThreshold
// (spec 4.11 step 1).
func (r *Resolver) filterBySimilarity(matches []ExistingMatch) []ExistingMatch {
	kept := make([]ExistingMatch, 0, len(matches))
	for _, m := range matches {
		if m.SimilarityScore >= r.cfg.SimilarityThreshold {
			kept = append(kept, m)
		}
	}
	return kept
}

// apply translates the winning match's Resolution into a concrete
// Outcome (spec 4.11 step 3's five branches).
func (r *Resolver) apply(content NewContent, match ExistingMatch, res Resolution) *Outcome {
	outcome := &Outcome{
		Recommendation:       res.Recommendation,
		MatchedNodeID:        match.NodeID,
		ImportanceAdjustment: res.ImportanceAdjustment,
		Resolution:           res,
		Reasoning:            res.Reasoning,
	}

	switch res.Recommendation {
	case RecommendationSkip:
		// Discard new content; nothing further to fill in.
	case RecommendationReplace:
		outcome.ExistingText = content.Text
		outcome.ExistingSource = content.Source
	case RecommendationMerge:
		merged := res.MergedContent
		if merged == "" {
			merged = match.Content + "\n\n" + content.Text
		}
		outcome.ExistingText = merged
		outcome.ExistingSource = combineSourceAttribution(match.Source, content.Source)
		outcome.ImportanceAdjustment.ExistingMultiplier = maxFloat(res.ImportanceAdjustment.ExistingMultiplier, res.ImportanceAdjustment.NewImportance)
	case RecommendationAddAsNew:
		outcome.CrossReferenceNodeID = match.NodeID
	case RecommendationFlagReview:
		// Caller is responsible for emitting the Pending Change (spec 4.13).
	}
	return outcome
}

// combineSourceAttribution joins two source identifiers for a merged
// node, skipping duplicates and empties.
func combineSourceAttribution(existing, incoming string) string {
	switch {
	case existing == "" && incoming == "":
		return ""
	case existing == "":
		return incoming
	case incoming == "" || existing == incoming:
		return existing
	default:
		return fmt.Sprintf("%s, %s", existing, incoming)
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// judge issues one structured LLM call comparing content against match,
// retrying up to cfg.maxRetries times on transient failure.
func (r *Resolver) judge(ctx context.Context, content NewContent, match ExistingMatch) (Resolution, error) {
	prompt := buildJudgePrompt(content, match)
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.cfg.maxRetries()), ctx)

	var res Resolution
	err := backoff.Retry(func() error {
		raw, err := r.llm.CompleteStructured(ctx, prompt, conflictResolutionSchemaName, conflictResolutionSchema)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &res)
	}, policy)
	if err != nil {
		return Resolution{}, err
	}
	return res, nil
}

const judgePromptTemplate = `Compare the new content against existing content already stored, and
judge their relationship.

New content (source: %s):
---
%s
---

Existing content (source: %s, last updated %s):
---
%s
---

Similarity score: %.3f
`

func buildJudgePrompt(content NewContent, match ExistingMatch) string {
	return fmt.Sprintf(judgePromptTemplate,
		content.Source, content.Text,
		match.Source, match.UpdatedAt.Format("2006-01-02"), match.Content,
		match.SimilarityScore)
}
