// Package observation implements the append-only observation sink (spec
// 4.14): a log of retrieval successes/failures and teaching events,
// consumed asynchronously by an out-of-scope importance-update process
// that adjusts schema.Node importance scores over time. The sink only
// records; it never reaches back into a tree.Forest to apply an update
// itself.
package observation

import "time"

// Kind distinguishes the three event shapes the sink accepts.
type Kind string

const (
	KindQuerySuccess Kind = "query_success"
	KindQueryFailure Kind = "query_failure"
	KindTeach        Kind = "teach"
)

// NodeRef names one retrieved node well enough for the importance-update
// process to look it back up (tree.Tree.Node(Index) after
// forest.GetTree(TreeID)) without the sink needing to hold a reference
// to the node itself.
type NodeRef struct {
	TreeID string
	Index  int
	Score  float64
}

// Observation is one append-only row. Which fields are populated
// depends on Kind: QuerySuccess/QueryFailure populate Query, Retrieved,
// and Success; Teach populates TeachNode and TeachDelta instead.
type Observation struct {
	ID        string
	Kind      Kind
	Query     string
	Retrieved []NodeRef
	Success   bool

	// Teach event fields (spec glossary "teach_event").
	TeachNode  *NodeRef
	TeachDelta float64
	TeachNote  string

	RecordedAt time.Time
}
