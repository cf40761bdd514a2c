package tree

import (
	"github.com/pbanos/vfdt/feature"
)

// Sides of a decision node. Instances satisfying the
// criterion of a decision node go Right.
const (
	Left  = 0
	Right = 1
)

/*
Node is a node of the tree: either a *Leaf or a *Decision.
*/
type Node interface {
	ID() string
	Depth() int
	info(parentID string) *NodeInfo
}

/*
NodeInfo is a read-only description of a node taken at some point in time.
*/
type NodeInfo struct {
	// An ID to identify the node
	ID string
	// The ID for the parent of the node in the tree,
	// empty for the root
	ParentID string
	// The number of decision nodes above this node
	Depth int
	// Whether the node is a leaf
	Leaf bool
	// The index of the feature a decision node tests,
	// -1 for leaves
	Attribute int
	// The criterion of a decision node, nil for leaves
	Criterion feature.Criterion
	// The IDs of the left and right children of a decision
	// node, empty for leaves
	ChildIDs []string
	// The number of instances of each class a leaf has
	// received, empty for decision nodes
	ClassCounts []int
}

func (l *Leaf) info(parentID string) *NodeInfo {
	return &NodeInfo{
		ID:          l.ID(),
		ParentID:    parentID,
		Depth:       l.depth,
		Leaf:        true,
		Attribute:   -1,
		ClassCounts: l.ClassCounts(),
	}
}

// ChildIDs are set by the traversal, from the same load of
// the child slots it descends into.
func (d *Decision) info(parentID string) *NodeInfo {
	return &NodeInfo{
		ID:        d.ID(),
		ParentID:  parentID,
		Depth:     d.depth,
		Attribute: d.attribute,
		Criterion: d.criterion,
	}
}
