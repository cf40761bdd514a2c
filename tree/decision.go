package tree

import (
	"strconv"
	"sync"

	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
)

/*
Decision is a node that routes instances to one of its two children
depending on whether the value of one feature satisfies a criterion:
values satisfying it go to the right child and the rest to the left one.

Continuous features are split with a feature.ContinuousCriterion (value >=
threshold goes right) and discrete features with a feature.DiscreteCriterion
(value equal to the criterion value goes right).

The feature and the criterion never change. The child slots are guarded by
the lock of the node, as a leaf child gets replaced when it splits.
*/
type Decision struct {
	id        uint64
	depth     int
	attribute int
	criterion feature.Criterion
	lock      sync.RWMutex
	children  [2]Node
}

/*
NewDecision takes a schema, the index of a feature, a criterion on that
feature and the number of split points for continuous features, and returns
a decision node with two empty leaves as children. It returns an error
matching feature.ErrConfiguration if the index is out of the schema, the
criterion is not on the feature at that index, or the kind of criterion does
not match the kind of feature.
*/
func NewDecision(schema *feature.Schema, attribute int, c feature.Criterion, splitPoints int) (*Decision, error) {
	if attribute < 0 || attribute >= schema.Len() {
		return nil, errors.Wrapf(feature.ErrConfiguration, "feature index %d out of schema with %d features", attribute, schema.Len())
	}
	if c == nil || c.Feature() != schema.Feature(attribute) {
		return nil, errors.Wrapf(feature.ErrConfiguration, "criterion %v is not on feature %s", c, schema.Feature(attribute).Name())
	}
	switch c.(type) {
	case feature.ContinuousCriterion:
		if _, ok := c.Feature().(*feature.ContinuousFeature); !ok {
			return nil, errors.Wrapf(feature.ErrConfiguration, "threshold criterion on non continuous feature %s", c.Feature().Name())
		}
	case feature.DiscreteCriterion:
		if _, ok := c.Feature().(*feature.DiscreteFeature); !ok {
			return nil, errors.Wrapf(feature.ErrConfiguration, "equality criterion on non discrete feature %s", c.Feature().Name())
		}
	default:
		return nil, errors.Wrapf(feature.ErrConfiguration, "unsupported criterion type %T", c)
	}
	d := &Decision{attribute: attribute, criterion: c}
	for i := range d.children {
		l, err := NewLeaf(schema, splitPoints)
		if err != nil {
			return nil, err
		}
		d.children[i] = l
	}
	return d, nil
}

// ID returns the identifier of the node in its tree
func (d *Decision) ID() string {
	return strconv.FormatUint(d.id, 10)
}

// Depth returns the number of decision nodes above this one
func (d *Decision) Depth() int {
	return d.depth
}

// Attribute returns the index of the feature the node tests
func (d *Decision) Attribute() int {
	return d.attribute
}

// Criterion returns the criterion the node tests
func (d *Decision) Criterion() feature.Criterion {
	return d.criterion
}

// Children returns the current left and right children of the node
func (d *Decision) Children() (Node, Node) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.children[Left], d.children[Right]
}

/*
Route takes an instance and returns the child it should go to. It returns an
error matching feature.ErrTypeMismatch if the value for the feature of the
node is of the wrong type, or feature.ErrSchemaMismatch if the instance has no
value for it.
*/
func (d *Decision) Route(inst feature.Instance) (Node, error) {
	side, err := d.side(inst)
	if err != nil {
		return nil, err
	}
	return d.child(side), nil
}

func (d *Decision) side(inst feature.Instance) (int, error) {
	if d.attribute >= len(inst) {
		return Left, errors.Wrapf(feature.ErrSchemaMismatch, "instance has no value for feature %d", d.attribute)
	}
	ok, err := d.criterion.SatisfiedBy(inst[d.attribute])
	if err != nil {
		return Left, err
	}
	if ok {
		return Right, nil
	}
	return Left, nil
}

func (d *Decision) child(side int) Node {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.children[side]
}

func (d *Decision) setChild(side int, n Node) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.children[side] = n
}
