/*
Package mongo provides streams of examples read from the documents of a
MongoDB collection.

Document fields are matched to the features of the schema and its label by
name. Missing fields and null values are undefined, and documents without a
label field are unlabelled.
*/
package mongo

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pbanos/vfdt/dataset"
	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

// DefaultCollection is the name of the collection
// examples are read from when none is given.
const DefaultCollection = "examples"

type stream struct {
	session *mgo.Session
	iter    *mgo.Iter
	schema  *feature.Schema
	doc     int
}

/*
NewStream takes a MongoDB collection, a schema and a query, and returns a
dataset.Stream of the examples in the documents of the collection matching
the query, or an error matching feature.ErrConfiguration if the schema has
names that cannot be document fields.

Documents with values that do not conform to the schema produce an error
matching feature.ErrSchemaMismatch and reading can continue on the next one.
*/
func NewStream(c *mgo.Collection, schema *feature.Schema, query bson.M) (dataset.Stream, error) {
	if err := checkFieldNames(schema); err != nil {
		return nil, err
	}
	return &stream{iter: c.Find(query).Iter(), schema: schema}, nil
}

/*
Dial takes a MongoDB URL, a collection name, a schema and a query, connects
to the default database of the URL and returns the stream of examples obtained
with NewStream on the collection. Closing the stream closes the connection.
*/
func Dial(url, collection string, schema *feature.Schema, query bson.M) (dataset.Stream, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	s, err := NewStream(session.DB("").C(collection), schema, query)
	if err != nil {
		session.Close()
		return nil, err
	}
	s.(*stream).session = session
	return s, nil
}

func (s *stream) Next(ctx context.Context) (*dataset.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc bson.M
	if !s.iter.Next(&doc) {
		if err := s.iter.Err(); err != nil {
			return nil, errors.Wrapf(err, "reading document %d", s.doc+1)
		}
		return nil, io.EOF
	}
	s.doc++
	e, err := s.example(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "document %d", s.doc)
	}
	return e, nil
}

func (s *stream) Close() error {
	err := s.iter.Close()
	if s.session != nil {
		s.session.Close()
	}
	return err
}

func (s *stream) example(doc bson.M) (*dataset.Example, error) {
	inst := make(feature.Instance, s.schema.Len())
	for i, f := range s.schema.Features() {
		var err error
		if _, ok := f.(*feature.ContinuousFeature); ok {
			inst[i], err = continuousValue(f, doc[f.Name()])
		} else {
			inst[i], err = discreteValue(f, doc[f.Name()])
		}
		if err != nil {
			return nil, err
		}
	}
	if err := s.schema.Validate(inst); err != nil {
		return nil, err
	}
	v, ok := doc[s.schema.Label().Name()]
	if !ok || v == nil {
		return &dataset.Example{Instance: inst, Label: dataset.Unlabelled}, nil
	}
	label, err := s.labelValue(v)
	if err != nil {
		return nil, err
	}
	return &dataset.Example{Instance: inst, Label: label}, nil
}

func continuousValue(f feature.Feature, v interface{}) (interface{}, error) {
	switch tv := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return tv, nil
	case int:
		return float64(tv), nil
	case int64:
		return float64(tv), nil
	case string:
		fv, err := strconv.ParseFloat(tv, 64)
		if err != nil {
			return nil, errors.Wrapf(feature.ErrTypeMismatch, "converting %s to float64 for %s", tv, f.Name())
		}
		return fv, nil
	}
	return nil, errors.Wrapf(feature.ErrTypeMismatch, "field %s has unsupported %T value", f.Name(), v)
}

func discreteValue(f feature.Feature, v interface{}) (interface{}, error) {
	switch tv := v.(type) {
	case nil:
		return nil, nil
	case string:
		return tv, nil
	case int, int64, bool:
		return fmt.Sprint(tv), nil
	}
	return nil, errors.Wrapf(feature.ErrTypeMismatch, "field %s has unsupported %T value", f.Name(), v)
}

// labelValue accepts either the name of a class or its position
func (s *stream) labelValue(v interface{}) (int, error) {
	var l int
	switch tv := v.(type) {
	case string:
		return s.schema.LabelIndex(tv)
	case int:
		l = tv
	case int64:
		l = int(tv)
	default:
		return -1, errors.Wrapf(feature.ErrSchemaMismatch, "unsupported %T label value", v)
	}
	if err := s.schema.ValidateLabel(l); err != nil {
		return -1, err
	}
	return l, nil
}

func checkFieldNames(schema *feature.Schema) error {
	names := []string{schema.Label().Name()}
	for _, f := range schema.Features() {
		names = append(names, f.Name())
	}
	for _, name := range names {
		if name == "_id" {
			return errors.Wrapf(feature.ErrConfiguration, "invalid feature name %q: reserved document field", name)
		}
		if strings.ContainsAny(name, ".$") {
			return errors.Wrapf(feature.ErrConfiguration, "invalid feature name %q: contains reserved characters %q or %q", name, ".", "$")
		}
	}
	return nil
}
