// Package schema defines the core data types shared across the engine:
// tree nodes and the small value types that travel between the
// splitter, embedder, summarizer, and retriever packages.
package schema

import "time"

// KnowledgeType classifies the kind of knowledge a node's text represents.
type KnowledgeType string

const (
	KnowledgeTypeProcedural KnowledgeType = "procedural"
	KnowledgeTypeFactual    KnowledgeType = "factual"
	KnowledgeTypeRelational KnowledgeType = "relational"
	KnowledgeTypeTemporal   KnowledgeType = "temporal"
	KnowledgeTypeSocial     KnowledgeType = "social"
	KnowledgeTypeContextual KnowledgeType = "contextual"
	KnowledgeTypePolicy     KnowledgeType = "policy"
	KnowledgeTypeMeta       KnowledgeType = "meta"
)

// Reserved metadata keys, documented in spec section 3.
const (
	MetaSourceURL     = "source_url"
	MetaRelPath       = "rel_path"
	MetaDocID         = "doc_id"
	MetaCitations     = "citations"
	MetaCitationTotal = "citation_total"
	MetaKnowledgeType = "knowledge_type"
	MetaImportance    = "importance"
	MetaCreatedAt     = "created_at"
	MetaUpdatedAt     = "updated_at"
	MetaValidatedAt   = "validated_at"
)

// OriginalContentRef points at the upstream identity of a leaf's source
// document, for provenance and dedup purposes.
type OriginalContentRef struct {
	DocID      string `json:"doc_id,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
	RelPath    string `json:"rel_path,omitempty"`
	ChunkIndex int    `json:"chunk_index,omitempty"`
}

// Citation is one aggregated provenance entry attached to an interior
// node, counting how many of its descendant leaves came from a source.
type Citation struct {
	SourceURL string `json:"source_url"`
	Count     int    `json:"count"`
}

// Node is one piece of knowledge at some tree layer: canonical text for
// leaves, an LLM-generated abstractive summary for interior nodes.
type Node struct {
	Index      int                  `json:"index"`
	Text       string               `json:"text"`
	Children   []int                `json:"children,omitempty"`
	Embeddings map[string][]float64 `json:"embeddings,omitempty"`
	Keywords   []string             `json:"keywords,omitempty"`
	Metadata   map[string]any       `json:"metadata,omitempty"`

	OriginalContentRef *OriginalContentRef `json:"original_content_ref,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ValidatedAt time.Time `json:"validated_at,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Importance returns the node's stored importance score, defaulting to
// 0.5 when unset.
func (n *Node) Importance() float64 {
	if n.Metadata == nil {
		return 0.5
	}
	if v, ok := n.Metadata[MetaImportance].(float64); ok {
		return v
	}
	return 0.5
}

// SetImportance stores an importance score in metadata.
func (n *Node) SetImportance(v float64) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata[MetaImportance] = v
}

// Clone returns a deep-enough copy of the node for safe mutation by
// callers that must not disturb the tree's stored value.
func (n *Node) Clone() *Node {
	c := *n
	if n.Children != nil {
		c.Children = append([]int(nil), n.Children...)
	}
	if n.Embeddings != nil {
		c.Embeddings = make(map[string][]float64, len(n.Embeddings))
		for k, v := range n.Embeddings {
			c.Embeddings[k] = append([]float64(nil), v...)
		}
	}
	if n.Keywords != nil {
		c.Keywords = append([]string(nil), n.Keywords...)
	}
	if n.Metadata != nil {
		c.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// NodeWithScore pairs a node with a retrieval score, the unit that
// flows through the retriever and reranker pipeline.
type NodeWithScore struct {
	Node  Node    `json:"node"`
	Score float64 `json:"score"`
}

// QueryBundle carries a query string plus whatever the query analyzer
// derived from it, threaded through the retrieval strategies.
type QueryBundle struct {
	QueryString string    `json:"query_string"`
	Embedding   []float64 `json:"embedding,omitempty"`
}
