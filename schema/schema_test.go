package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIsLeaf(t *testing.T) {
	leaf := Node{Index: 0}
	require.True(t, leaf.IsLeaf())

	interior := Node{Index: 1, Children: []int{0, 2}}
	require.False(t, interior.IsLeaf())
}

func TestNodeImportanceDefault(t *testing.T) {
	n := Node{}
	assert.Equal(t, 0.5, n.Importance())

	n.SetImportance(0.9)
	assert.Equal(t, 0.9, n.Importance())
}

func TestNodeCloneIsIndependent(t *testing.T) {
	n := Node{
		Index:      3,
		Children:   []int{1, 2},
		Embeddings: map[string][]float64{"m": {1, 2, 3}},
		Keywords:   []string{"kafka"},
		Metadata:   map[string]any{"source_url": "a"},
	}

	c := n.Clone()
	c.Children[0] = 99
	c.Embeddings["m"][0] = 99
	c.Keywords[0] = "changed"
	c.Metadata["source_url"] = "b"

	assert.Equal(t, 1, n.Children[0])
	assert.Equal(t, 1.0, n.Embeddings["m"][0])
	assert.Equal(t, "kafka", n.Keywords[0])
	assert.Equal(t, "a", n.Metadata["source_url"])
}
