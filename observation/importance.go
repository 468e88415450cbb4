package observation

import (
	"math"
	"time"

	"github.com/kgraptor/engine/schema"
)

// ImportanceUpdater applies the update rule spec 9's open question asks
// the implementer to define: an explicit EWMA with a configurable
// half-life rather than an unspecified scheme. The teacher has no
// importance-scoring analogue to ground this on, so the rule itself is
// this package's own decision, recorded in DESIGN.md; everything else
// about this type (the Option-less constructor, the plain function
// shape) follows the rest of the package.
//
// ImportanceUpdater only computes the new score; calling it on a
// schedule or in response to newly appended Observations is the
// out-of-scope importance-update process spec 4.14 describes — this
// type is what that process would call.
type ImportanceUpdater struct {
	halfLife time.Duration
}

// NewImportanceUpdater creates an ImportanceUpdater with the given
// half-life: the elapsed duration after which a stale score has moved
// half the distance toward the new target.
func NewImportanceUpdater(halfLife time.Duration) *ImportanceUpdater {
	if halfLife <= 0 {
		halfLife = 30 * 24 * time.Hour
	}
	return &ImportanceUpdater{halfLife: halfLife}
}

// Apply updates node's stored importance in place given one
// Observation, using now minus node.UpdatedAt as the elapsed time since
// the score was last touched. query_success nudges importance toward
// 1.0, query_failure toward 0.0, and a teach event applies TeachDelta
// directly, clamped to [0, 1].
func (u *ImportanceUpdater) Apply(node *schema.Node, obs Observation, now time.Time) {
	if node == nil {
		return
	}
	current := node.Importance()

	if obs.Kind == KindTeach {
		node.SetImportance(clamp01(current + obs.TeachDelta))
		return
	}

	target := 0.0
	if obs.Success {
		target = 1.0
	}

	elapsed := now.Sub(node.UpdatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	alpha := 1 - math.Pow(0.5, elapsed.Hours()/u.halfLife.Hours())
	updated := current*(1-alpha) + target*alpha
	node.SetImportance(clamp01(updated))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
