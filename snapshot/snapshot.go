/*
Package snapshot provides frozen, read-only copies of Hoeffding trees kept in
a NodeStore, so they can be serialized, shared through external stores and
used to predict without the statistics of the live tree.
*/
package snapshot

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pbanos/vfdt/dataset"
	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/tree"
	"github.com/pkg/errors"
)

// Snapshot represents a frozen tree. It is composed of a
// NodeStore where all its nodes are stored, the id for the
// root node of the tree and the schema of the instances it
// is able to predict.
type Snapshot struct {
	NodeStore
	RootID string
	Schema *feature.Schema
	// ids of the nodes stored by Take, nil for opened snapshots
	ids map[string]bool
}

// New takes the ID for the root Node, a NodeStore and a schema and
// returns a snapshot composed of the nodes in the NodeStore connected to
// the node with the given root ID.
func New(rootID string, nodeStore NodeStore, schema *feature.Schema) *Snapshot {
	return &Snapshot{NodeStore: nodeStore, RootID: rootID, Schema: schema}
}

/*
Open takes a context, a NodeStore and a schema and returns the snapshot
whose root is set on the store, or an error if the store has no root or
cannot be queried.
*/
func Open(ctx context.Context, nodeStore NodeStore, schema *feature.Schema) (*Snapshot, error) {
	rootID, err := nodeStore.Root(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "retrieving root node id")
	}
	if rootID == "" {
		return nil, errors.New("node store has no root node")
	}
	return New(rootID, nodeStore, schema), nil
}

/*
Take takes a context, a tree and a NodeStore, stores every node of the tree
in the store and returns a snapshot of the tree, or an error if the nodes
cannot be stored. Children are stored before their parents and the root of
the store is set last, so readers of the store never follow a root or a
decision to missing nodes.

The tree may keep learning while the snapshot is taken: every node is
stored as it was when it was reached.
*/
func Take(ctx context.Context, t *tree.Tree, nodeStore NodeStore) (*Snapshot, error) {
	var rootID string
	ids := make(map[string]bool)
	err := t.Traverse(ctx, true, func(ctx context.Context, ni *tree.NodeInfo) error {
		if ni.ParentID == "" {
			rootID = ni.ID
		}
		n := &Node{
			ID:        ni.ID,
			ParentID:  ni.ParentID,
			ChildIDs:  ni.ChildIDs,
			Attribute: ni.Attribute,
			Criterion: ni.Criterion,
		}
		if ni.Leaf {
			n.Prediction = NewPrediction(ni.ClassCounts)
		}
		err := nodeStore.Store(ctx, n)
		if err != nil {
			return errors.Wrapf(err, "storing node %s", n.ID)
		}
		ids[n.ID] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = nodeStore.SetRoot(ctx, rootID)
	if err != nil {
		return nil, errors.Wrapf(err, "setting root node %s", rootID)
	}
	s := New(rootID, nodeStore, t.Schema())
	s.ids = ids
	return s, nil
}

// Predict takes an instance and returns a prediction according to the
// snapshot, or an error if the prediction could not be made. An instance
// that does not conform to the schema produces an error matching
// feature.ErrSchemaMismatch.
func (s *Snapshot) Predict(ctx context.Context, inst feature.Instance) (*Prediction, error) {
	if s == nil {
		return nil, fmt.Errorf("nil snapshot cannot predict samples")
	}
	if err := s.Schema.Validate(inst); err != nil {
		return nil, err
	}
	n, err := s.node(ctx, s.RootID)
	if err != nil {
		return nil, errors.Wrap(err, "predicting sample")
	}
	for !n.IsLeaf() {
		if len(n.ChildIDs) != 2 || n.Criterion == nil || n.Attribute < 0 || n.Attribute >= len(inst) {
			return nil, ErrCannotPredict
		}
		ok, err := n.Criterion.SatisfiedBy(inst[n.Attribute])
		if err != nil {
			return nil, err
		}
		side := tree.Left
		if ok {
			side = tree.Right
		}
		n, err = s.node(ctx, n.ChildIDs[side])
		if err != nil {
			return nil, errors.Wrap(err, "predicting sample")
		}
	}
	if n.Prediction != nil {
		return n.Prediction, nil
	}
	return nil, ErrCannotPredict
}

/*
Test takes a context.Context and a stream of labelled examples and returns
three values:
  - the prediction success rate of the snapshot over the examples
  - the number of failing predictions because of ErrCannotPredict errors or
    examples that do not conform to the schema
  - an error if a prediction could not be made for other reasons or the
    stream could not be read. If this is not nil, the other values will be
    0.0 and 0 respectively
*/
func (s *Snapshot) Test(ctx context.Context, examples dataset.Stream) (float64, int, error) {
	if s == nil {
		return 0.0, 0, nil
	}
	var hits float64
	var count, errCount int
	for {
		e, err := examples.Next(ctx)
		if err == io.EOF {
			break
		}
		count++
		if err == nil && e.Label == dataset.Unlabelled {
			err = errors.Wrapf(feature.ErrSchemaMismatch, "example %d has no label", count)
		}
		var p *Prediction
		if err == nil {
			p, err = s.Predict(ctx, e.Instance)
		}
		if err != nil {
			if err != ErrCannotPredict && !errors.Is(err, feature.ErrSchemaMismatch) {
				return 0.0, 0, err
			}
			errCount++
			continue
		}
		if p.Label() == e.Label {
			hits += 1.0
		}
	}
	if count == 0 {
		return 0.0, 0, nil
	}
	return hits / float64(count), errCount, nil
}

// Traverse takes a context, bottomup boolean and an
// error-returning function that takes a context and a node
// as parameters, and goes through the snapshot running the
// function with the context and every traversed node.
// Traverse will call the function with a parent node before
// calling it for its children if bottomup is false, and
// call it after its children if bottomup is true.
// If the given context times out or is cancelled, the context
// error is returned. If a node cannot be retrieved from the
// snapshot's node store, the obtained error is returned. If the
// call to the function returns an error, the traversing is
// aborted and the error is returned. Otherwise, when the
// traversing is over, nil is returned.
func (s *Snapshot) Traverse(ctx context.Context, bottomup bool, f func(context.Context, *Node) error) error {
	n, err := s.node(ctx, s.RootID)
	if err != nil {
		return err
	}
	return s.traverse(ctx, n, bottomup, f)
}

func (s *Snapshot) traverse(ctx context.Context, n *Node, bottomup bool, f func(context.Context, *Node) error) error {
	err := ctx.Err()
	if err != nil {
		return err
	}
	if !bottomup {
		err = f(ctx, n)
	}
	if err != nil {
		return err
	}
	for _, cID := range n.ChildIDs {
		cn, err := s.node(ctx, cID)
		if err != nil {
			return err
		}
		err = s.traverse(ctx, cn, bottomup, f)
		if err != nil {
			return err
		}
	}
	if bottomup {
		err = f(ctx, n)
	}
	return err
}

/*
Prune takes a context and a previous snapshot sharing the same store and
deletes from the store the nodes of the previous snapshot that are not part
of this one, such as leaves that have been split since it was taken.

Snapshots returned by Take remember the nodes they stored. For any other
snapshot the nodes are found by traversing the store, which no longer
reaches nodes of the previous snapshot whose parents were overwritten.
*/
func (s *Snapshot) Prune(ctx context.Context, previous *Snapshot) error {
	current, err := s.nodeIDs(ctx)
	if err != nil {
		return err
	}
	before, err := previous.nodeIDs(ctx)
	if err != nil {
		return err
	}
	var stale []string
	for id := range before {
		if !current[id] {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	for _, id := range stale {
		err = s.NodeStore.Delete(ctx, id)
		if err != nil {
			return errors.Wrapf(err, "deleting node %s", id)
		}
	}
	return nil
}

func (s *Snapshot) nodeIDs(ctx context.Context) (map[string]bool, error) {
	if s.ids != nil {
		return s.ids, nil
	}
	ids := make(map[string]bool)
	err := s.Traverse(ctx, false, func(ctx context.Context, n *Node) error {
		ids[n.ID] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Snapshot) String() string {
	return s.subtreeString(s.RootID)
}

func (s *Snapshot) subtreeString(nodeID string) string {
	n, err := s.node(context.TODO(), nodeID)
	if err != nil {
		return fmt.Sprintf("ERROR: %s\n", err.Error())
	}
	result := fmt.Sprintf("[%s]\n", nodeID)
	if n.Criterion != nil {
		result = fmt.Sprintf("%s{ %v }\n", result, n.Criterion)
	}
	if n.Prediction != nil {
		result = fmt.Sprintf("%s{ %v }\n", result, n.Prediction)
	}
	if len(n.ChildIDs) > 0 {
		result = fmt.Sprintf("%s|\n", result)
	} else {
		result = fmt.Sprintf("%s \n", result)
	}
	for i, childID := range n.ChildIDs {
		for j, line := range strings.Split(s.subtreeString(childID), "\n") {
			if len(line) > 0 {
				if j == 0 {
					result = fmt.Sprintf("%s|__%s\n", result, line)
				} else {
					if i == len(n.ChildIDs)-1 {
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

func (s *Snapshot) node(ctx context.Context, id string) (*Node, error) {
	n, err := s.NodeStore.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "retrieving node %v", id)
	}
	if n == nil {
		return nil, fmt.Errorf("node %v not found", id)
	}
	return n, nil
}
