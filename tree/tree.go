package tree

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
)

/*
Tree is a Hoeffding tree: a classification tree grown incrementally from a
stream of labelled instances. It starts as a single leaf and replaces leaves
by decision nodes with two fresh leaves as soon as they gather enough
evidence to choose a split.

A Tree is safe for concurrent use by multiple goroutines. Every node has its
own lock: instances reaching different leaves are processed in parallel.
*/
type Tree struct {
	schema *feature.Schema
	config Config
	lock   sync.RWMutex
	root   Node

	nextID    uint64
	leaves    int64
	decisions int64
	depth     int64
	instances int64
}

/*
Stats summarises the shape of a tree and the number of instances it has
learnt from.
*/
type Stats struct {
	Leaves    int
	Decisions int
	Depth     int
	Instances int64
}

/*
New takes a schema and a configuration and returns a tree consisting of an
empty leaf, or an error matching feature.ErrConfiguration if the
configuration is not valid.
*/
func New(schema *feature.Schema, config Config) (*Tree, error) {
	if schema == nil {
		return nil, errors.Wrap(feature.ErrConfiguration, "no schema")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	t := &Tree{schema: schema, config: config}
	root, err := NewLeaf(schema, config.SplitPoints)
	if err != nil {
		return nil, err
	}
	root.id = t.newID()
	t.root = root
	t.leaves = 1
	return t, nil
}

// Schema returns the schema of the tree
func (t *Tree) Schema() *feature.Schema {
	return t.schema
}

// Config returns the configuration of the tree
func (t *Tree) Config() Config {
	return t.config
}

// Root returns the current root node of the tree
func (t *Tree) Root() Node {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.root
}

// Stats returns the current counts of nodes and instances
func (t *Tree) Stats() Stats {
	return Stats{
		Leaves:    int(atomic.LoadInt64(&t.leaves)),
		Decisions: int(atomic.LoadInt64(&t.decisions)),
		Depth:     int(atomic.LoadInt64(&t.depth)),
		Instances: atomic.LoadInt64(&t.instances),
	}
}

/*
Insert takes an instance and its label, sorts the instance down to a leaf and
adds it to the leaf's statistics. Every GracePeriod instances the leaf checks
whether it should split and, if so, it is replaced by a decision node with two
empty leaves.

It returns an error matching feature.ErrSchemaMismatch if the instance or the
label do not conform to the schema of the tree, in which case the tree is left
untouched, or feature.ErrInvariantViolation if the leaf state is corrupt.
*/
func (t *Tree) Insert(inst feature.Instance, label int) error {
	if err := t.schema.Validate(inst); err != nil {
		return err
	}
	if err := t.schema.ValidateLabel(label); err != nil {
		return err
	}
	for {
		parent, side, leaf, err := t.findLeaf(inst)
		if err != nil {
			return err
		}
		done, err := t.insertInto(parent, side, leaf, inst, label)
		if done {
			return err
		}
	}
}

/*
Predict takes an instance and returns the label with the most instances on
the leaf it reaches, or the smallest label among the tied ones. It returns an
error matching feature.ErrSchemaMismatch if the instance does not conform to
the schema.
*/
func (t *Tree) Predict(inst feature.Instance) (int, error) {
	if err := t.schema.Validate(inst); err != nil {
		return -1, err
	}
	_, _, leaf, err := t.findLeaf(inst)
	if err != nil {
		return -1, err
	}
	return leaf.Predict(), nil
}

/*
PredictDistribution takes an instance and returns the relative frequency of
each class on the leaf it reaches.
*/
func (t *Tree) PredictDistribution(inst feature.Instance) ([]float64, error) {
	if err := t.schema.Validate(inst); err != nil {
		return nil, err
	}
	_, _, leaf, err := t.findLeaf(inst)
	if err != nil {
		return nil, err
	}
	return leaf.Distribution(), nil
}

// Traverse takes a context, bottomup boolean and an
// error-returning function that takes a context and a node
// description as parameters, and goes through the tree running
// the function with the context and every traversed node.
// Traverse will call the function with a parent node before
// calling it for its children if bottomup is false, and
// call it after its children if bottomup is true. Left children
// are traversed before right ones.
// If the given context times out or is cancelled, the context
// error is returned. If the call to the function returns an
// error, the traversing is aborted and the error is returned.
// Otherwise, when the traversing is over, nil is returned.
// Nodes split while the tree is traversed are seen either
// before or after their split.
func (t *Tree) Traverse(ctx context.Context, bottomup bool, f func(context.Context, *NodeInfo) error) error {
	return t.traverse(ctx, t.Root(), "", bottomup, f)
}

func (t *Tree) traverse(ctx context.Context, n Node, parentID string, bottomup bool, f func(context.Context, *NodeInfo) error) error {
	err := ctx.Err()
	if err != nil {
		return err
	}
	ni := n.info(parentID)
	var children []Node
	if d, ok := n.(*Decision); ok {
		left, right := d.Children()
		children = []Node{left, right}
		ni.ChildIDs = []string{left.ID(), right.ID()}
	}
	if !bottomup {
		err = f(ctx, ni)
		if err != nil {
			return err
		}
	}
	for _, child := range children {
		err = t.traverse(ctx, child, ni.ID, bottomup, f)
		if err != nil {
			return err
		}
	}
	if bottomup {
		return f(ctx, ni)
	}
	return nil
}

func (t *Tree) String() string {
	return t.subtreeString(t.Root())
}

func (t *Tree) subtreeString(n Node) string {
	result := fmt.Sprintf("[%s]\n", n.ID())
	d, ok := n.(*Decision)
	if !ok {
		return fmt.Sprintf("%s%v\n", result, n)
	}
	result = fmt.Sprintf("%s{ %v }\n|\n", result, d.criterion)
	left, right := d.Children()
	for i, child := range []Node{left, right} {
		for j, line := range strings.Split(t.subtreeString(child), "\n") {
			if len(line) > 0 {
				if j == 0 {
					result = fmt.Sprintf("%s|__%s\n", result, line)
				} else {
					if i == Right {
						result = fmt.Sprintf("%s   %s\n", result, line)
					} else {
						result = fmt.Sprintf("%s|  %s\n", result, line)
					}
				}
			}
		}
	}
	return result
}

// findLeaf sorts the instance down to a leaf and returns it along with the
// decision node holding it and the side it is on, or a nil decision node
// if the leaf is the root.
func (t *Tree) findLeaf(inst feature.Instance) (*Decision, int, *Leaf, error) {
	var parent *Decision
	var side int
	n := t.Root()
	for {
		switch node := n.(type) {
		case *Leaf:
			return parent, side, node, nil
		case *Decision:
			s, err := node.side(inst)
			if err != nil {
				return nil, 0, nil, err
			}
			parent, side = node, s
			n = node.child(s)
		default:
			return nil, 0, nil, errors.Wrapf(feature.ErrInvariantViolation, "unknown node type %T", n)
		}
	}
}

// insertInto adds the instance to the leaf and splits it if needed. It
// returns false if the leaf had already been replaced, so the instance
// must be sorted down again.
func (t *Tree) insertInto(parent *Decision, side int, leaf *Leaf, inst feature.Instance, label int) (bool, error) {
	leaf.lock.Lock()
	defer leaf.lock.Unlock()
	if leaf.replaced {
		return false, nil
	}
	err := leaf.addInstance(inst, label)
	if err != nil {
		return true, err
	}
	atomic.AddInt64(&t.instances, 1)
	if leaf.n%t.config.GracePeriod != 0 {
		return true, nil
	}
	sd, err := leaf.checkSplit(t.config)
	if err != nil || sd == nil {
		return true, err
	}
	d, err := NewDecision(t.schema, sd.Attribute, sd.Criterion, t.config.SplitPoints)
	if err != nil {
		return true, err
	}
	d.id = t.newID()
	d.depth = leaf.depth
	for _, child := range d.children {
		cl := child.(*Leaf)
		cl.id = t.newID()
		cl.depth = leaf.depth + 1
	}
	if parent == nil {
		t.lock.Lock()
		t.root = d
		t.lock.Unlock()
	} else {
		parent.setChild(side, d)
	}
	leaf.replaced = true
	atomic.AddInt64(&t.decisions, 1)
	atomic.AddInt64(&t.leaves, 1)
	t.updateDepth(int64(leaf.depth + 1))
	return true, nil
}

func (t *Tree) newID() uint64 {
	return atomic.AddUint64(&t.nextID, 1)
}

func (t *Tree) updateDepth(depth int64) {
	for {
		current := atomic.LoadInt64(&t.depth)
		if depth <= current || atomic.CompareAndSwapInt64(&t.depth, current, depth) {
			return
		}
	}
}
