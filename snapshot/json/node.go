/*
Package json provides the JSON encoding of snapshots, their nodes and the
criteria of their decision nodes.
*/
package json

import (
	"encoding/json"
	"fmt"

	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/snapshot"
	"github.com/pkg/errors"
)

/*
NodeEncodeDecoder is an interface for objects
that allow encoding nodes into slices of
bytes and decoding them back to nodes.
*/
type NodeEncodeDecoder interface {

	//Encode receives a *snapshot.Node
	// and returns a slice of bytes with the node
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(*snapshot.Node) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a *snapshot.Node decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (*snapshot.Node, error)
}

type nodeEncodeDecoder struct {
	CriteriaEncodeDecoder
	schema *feature.Schema
}

type node struct {
	ID         string           `json:"id"`
	ParentID   string           `json:"pId,omitempty"`
	ChildIDs   []string         `json:"cIds,omitempty"`
	Criterion  *json.RawMessage `json:"c,omitempty"`
	Prediction *jsonPrediction  `json:"pred,omitempty"`
}

type jsonPrediction struct {
	Counts []int `json:"counts"`
}

/*
NewNodeEncodeDecoder returns a NodeEncodeDecoder for nodes of snapshots of
trees with the given schema, that uses the given CriteriaEncodeDecoder to
encode/decode the criteria of decision nodes.
*/
func NewNodeEncodeDecoder(ced CriteriaEncodeDecoder, schema *feature.Schema) NodeEncodeDecoder {
	return &nodeEncodeDecoder{ced, schema}
}

func (ned *nodeEncodeDecoder) Encode(n *snapshot.Node) ([]byte, error) {
	jn := &node{
		ID:       n.ID,
		ParentID: n.ParentID,
	}
	if len(n.ChildIDs) > 0 {
		jn.ChildIDs = n.ChildIDs
	}
	if n.Criterion != nil {
		c, err := ned.CriteriaEncodeDecoder.Encode(n.Criterion)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding criterion of node %s", n.ID)
		}
		rc := json.RawMessage(c)
		jn.Criterion = &rc
	}
	if n.Prediction != nil {
		jn.Prediction = &jsonPrediction{Counts: n.Prediction.Counts()}
	}
	return json.Marshal(jn)
}

func (ned *nodeEncodeDecoder) Decode(data []byte) (*snapshot.Node, error) {
	jn := &node{}
	err := json.Unmarshal(data, jn)
	if err != nil {
		return nil, err
	}
	n := &snapshot.Node{ID: jn.ID, ParentID: jn.ParentID, Attribute: -1}
	if n.ID == "" {
		return nil, fmt.Errorf("unmarshalling node: no id")
	}
	if len(jn.ChildIDs) > 0 {
		if len(jn.ChildIDs) != 2 || jn.Criterion == nil {
			return nil, fmt.Errorf("unmarshalling node %v: decision nodes need a criterion and 2 children", n.ID)
		}
		n.ChildIDs = jn.ChildIDs
	}
	if jn.Criterion != nil {
		n.Criterion, err = ned.CriteriaEncodeDecoder.Decode(*jn.Criterion)
		if err != nil {
			return nil, errors.Wrapf(err, "unmarshalling node %v", n.ID)
		}
		i, ok := ned.schema.Index(n.Criterion.Feature().Name())
		if !ok || ned.schema.Feature(i) != n.Criterion.Feature() {
			return nil, errors.Wrapf(feature.ErrSchemaMismatch, "unmarshalling node %v: criterion on feature %s outside the schema", n.ID, n.Criterion.Feature().Name())
		}
		n.Attribute = i
	}
	if jn.Prediction != nil {
		if len(jn.Prediction.Counts) != ned.schema.NumClasses() {
			return nil, errors.Wrapf(feature.ErrSchemaMismatch, "unmarshalling node %v: prediction has %d classes, schema has %d", n.ID, len(jn.Prediction.Counts), ned.schema.NumClasses())
		}
		n.Prediction = snapshot.NewPrediction(jn.Prediction.Counts)
	}
	return n, nil
}
