package pendingchange

import (
	"fmt"

	"github.com/google/uuid"
)

// idNamespace scopes the deterministic ids this package mints so they
// never collide with uuid.New()'s random ids minted elsewhere (graph's
// entity ids, notably — see graph/entity.go).
var idNamespace = uuid.MustParse("6f1c6e2e-6e3c-4b8a-9a2d-6c2f6f0a1b2c")

// stableID derives a deterministic change id from the existing node
// and the proposed content, generalizing the random uuid.New().String()
// minting convention used elsewhere in this module (graph/entity.go)
// into a content-derived one: resubmitting the same flag_review
// outcome — say, after a review-service outage — must not mint a new
// id for what is really the same proposed change.
func stableID(existingNodeID int, newContent string) string {
	seed := fmt.Sprintf("%d:%s", existingNodeID, newContent)
	return uuid.NewSHA1(idNamespace, []byte(seed)).String()
}
