package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/snapshot"
	"github.com/pkg/errors"
)

/*
NewEncodeDecoder takes a schema and returns the NodeEncodeDecoder for its
snapshots, with criteria encoded by NewCriteriaEncodeDecoder.
*/
func NewEncodeDecoder(schema *feature.Schema) NodeEncodeDecoder {
	return NewNodeEncodeDecoder(NewCriteriaEncodeDecoder(schema.Features()), schema)
}

/*
Write takes a context.Context, a snapshot, a NodeEncodeDecoder and an
io.Writer and serializes the given snapshot as JSON onto the io.Writer.
A snapshot is serialized as a JSON object with the following fields:
  - "rootID": a string with the ID of the node at the root of the tree
  - "label": a string with the name of the feature the tree predicts
  - "classes": an array with the names of the classes, in label order
  - "nodes": an array containing the nodes that can be traversed on the
    snapshot serialized by the given NodeEncodeDecoder.

An error is returned if the snapshot cannot be traversed, serialized or
written onto the io.Writer.
*/
func Write(ctx context.Context, s *snapshot.Snapshot, ned NodeEncodeDecoder, w io.Writer) error {
	err := writeHeader(s, w)
	if err != nil {
		return err
	}
	var i int
	err = s.Traverse(ctx, false, func(ctx context.Context, n *snapshot.Node) error {
		err := writeNode(i, n, ned, w)
		i++
		return err
	})
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(`]}`))
	return err
}

/*
Read takes a context.Context, a NodeStore, a schema, a NodeEncodeDecoder and
an io.Reader, and unmarshals the contents of the io.Reader onto the given
store, returning the snapshot read.
A snapshot is expected to be a JSON object with the fields described for
Write. An error is returned if the JSON cannot be read from the io.Reader,
its label or classes do not match the schema, or its nodes cannot be
unmarshalled or stored.
*/
func Read(ctx context.Context, ns snapshot.NodeStore, schema *feature.Schema, ned NodeEncodeDecoder, r io.Reader) (*snapshot.Snapshot, error) {
	dec := json.NewDecoder(r)
	js := &struct {
		RootID  string             `json:"rootID"`
		Label   string             `json:"label"`
		Classes []string           `json:"classes"`
		Nodes   []*json.RawMessage `json:"nodes"`
	}{}
	err := dec.Decode(js)
	if err != nil {
		return nil, err
	}
	if js.Label != schema.Label().Name() {
		return nil, errors.Wrapf(feature.ErrSchemaMismatch, "snapshot predicts %q, schema label is %q", js.Label, schema.Label().Name())
	}
	classes := schema.Label().AvailableValues()
	if len(js.Classes) != len(classes) {
		return nil, errors.Wrapf(feature.ErrSchemaMismatch, "snapshot has %d classes, schema has %d", len(js.Classes), len(classes))
	}
	for i, c := range js.Classes {
		if c != classes[i] {
			return nil, errors.Wrapf(feature.ErrSchemaMismatch, "snapshot class %d is %q, schema class is %q", i, c, classes[i])
		}
	}
	if js.RootID == "" {
		return nil, fmt.Errorf("no root node id available")
	}
	for _, jn := range js.Nodes {
		if jn == nil {
			return nil, fmt.Errorf("null node")
		}
		n, err := ned.Decode(*jn)
		if err != nil {
			return nil, err
		}
		err = ns.Store(ctx, n)
		if err != nil {
			return nil, err
		}
	}
	err = ns.SetRoot(ctx, js.RootID)
	if err != nil {
		return nil, err
	}
	return snapshot.New(js.RootID, ns, schema), nil
}

func writeHeader(s *snapshot.Snapshot, w io.Writer) error {
	jrootID, err := json.Marshal(s.RootID)
	if err != nil {
		return err
	}
	jLabel, err := json.Marshal(s.Schema.Label().Name())
	if err != nil {
		return err
	}
	jClasses, err := json.Marshal(s.Schema.Label().AvailableValues())
	if err != nil {
		return err
	}
	header := fmt.Sprintf(`{"rootID":%s,"label":%s,"classes":%s,"nodes":[`, jrootID, jLabel, jClasses)
	_, err = w.Write([]byte(header))
	return err
}

func writeNode(i int, n *snapshot.Node, ned NodeEncodeDecoder, w io.Writer) error {
	if i != 0 {
		_, err := w.Write([]byte(","))
		if err != nil {
			return err
		}
	}
	jn, err := ned.Encode(n)
	if err != nil {
		return err
	}
	_, err = w.Write(jn)
	return err
}
