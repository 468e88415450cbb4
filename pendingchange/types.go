// Package pendingchange implements the Pending-Change Submitter (spec
// 4.13): it turns a conflict.Resolver's flag_review outcome into an
// external submission for human review — a stable id, org/team
// routing tags, a proposed-value payload, and a fire-and-forget HTTP
// POST to an internal review service that falls back to a local store
// on failure rather than ever blocking ingestion.
package pendingchange

import "time"

// Status is where a PendingChange currently stands.
type Status string

const (
	// StatusPending has not yet been accepted by the review service.
	StatusPending Status = "pending"
	// StatusSubmitted was accepted by the review service.
	StatusSubmitted Status = "submitted"
	// StatusFailedLocal could not reach the review service and was
	// written to the local fallback store instead.
	StatusFailedLocal Status = "failed_local"
)

// ProposedValue is the new content the submitter is asking a human to
// review, plus the reasoning and evidence behind it.
type ProposedValue struct {
	Title      string   `json:"title"`
	NewContent string   `json:"new_content"`
	Reasoning  string   `json:"reasoning"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// PreviousValue points at the existing node the proposed value
// conflicts with, so a reviewer can compare them side by side.
type PreviousValue struct {
	ExistingNodeID int    `json:"existing_node_id"`
	ExistingText   string `json:"existing_text"`
	ExistingSource string `json:"existing_source"`
}

// PendingChange is one out-of-band record produced by the conflict
// resolver (spec GLOSSARY: "an out-of-band record produced by the
// conflict resolver describing a proposed knowledge edit, its
// evidence, and the LLM's reasoning; owned externally after
// emission"). Its JSON tags match the wire body spec 6 names for the
// pending-change review service.
type PendingChange struct {
	ID            string        `json:"id"`
	ChangeType    string        `json:"change_type"`
	Org           string        `json:"org"`
	Team          string        `json:"team"`
	ProposedValue ProposedValue `json:"proposed_value"`
	PreviousValue PreviousValue `json:"previous_value"`
	RequestedBy   string        `json:"requested_by"`
	Reason        string        `json:"reason"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}
