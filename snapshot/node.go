package snapshot

import (
	"fmt"

	"github.com/pbanos/vfdt/feature"
)

/*
Node is a node of a snapshot
*/
type Node struct {
	// An ID to identify the node
	ID string
	// The ID for the parent of the node in the tree,
	// empty for the root
	ParentID string
	// The IDs of the left and right children of a
	// decision node, empty for leaves
	ChildIDs []string
	// The index in the schema of the feature a decision
	// node tests, -1 for leaves
	Attribute int
	// The criterion of a decision node: samples that
	// satisfy it go to the right child and the rest to
	// the left one. Nil for leaves.
	Criterion feature.Criterion
	// The prediction of a leaf, nil for decision nodes
	Prediction *Prediction
}

// IsLeaf returns whether the node is a leaf
func (n *Node) IsLeaf() bool {
	return len(n.ChildIDs) == 0
}

func (n *Node) String() string {
	if n.IsLeaf() {
		return fmt.Sprintf("[%s] %v", n.ID, n.Prediction)
	}
	return fmt.Sprintf("[%s] { %v } %v", n.ID, n.Criterion, n.ChildIDs)
}
