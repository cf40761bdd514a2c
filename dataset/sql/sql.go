/*
Package sql provides streams of examples read from the rows of an SQL query.

Columns of the query are matched to the features of the schema and its label
by name. Continuous features accept numeric columns or text holding numbers,
discrete features accept text or integer columns. NULL values are undefined.
Labels are read from text columns as class names. Integer label columns are
read as class names when the schema has a class with that name, and as the
position of the class in the schema otherwise.
*/
package sql

import (
	"context"
	"database/sql"
	"io"
	"strconv"

	"github.com/pbanos/vfdt/dataset"
	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

type stream struct {
	rows    *sql.Rows
	db      *sql.DB
	schema  *feature.Schema
	columns []int
	label   int
	values  []interface{}
	dest    []interface{}
	row     int
}

/*
NewStream takes a context, a database handle, a schema, a query and its
arguments, runs the query and returns a dataset.Stream of the examples in the
resulting rows, or an error if the query fails or its columns do not match
the schema. The context is used for the query and bounds the whole stream.

Rows with values that do not conform to the schema produce an error matching
feature.ErrSchemaMismatch and reading can continue on the next row.
*/
func NewStream(ctx context.Context, db *sql.DB, schema *feature.Schema, query string, args ...interface{}) (dataset.Stream, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying examples")
	}
	s, err := newStream(rows, schema)
	if err != nil {
		return nil, multierr.Append(err, rows.Close())
	}
	return s, nil
}

/*
Open takes a context, a driver name, a data source name, a schema and a query
and its arguments, opens a database with them and returns the stream of
examples obtained with NewStream on it. Closing the stream closes the
database.
*/
func Open(ctx context.Context, driver, dsn string, schema *feature.Schema, query string, args ...interface{}) (dataset.Stream, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", driver)
	}
	s, err := NewStream(ctx, db, schema, query, args...)
	if err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	s.(*stream).db = db
	return s, nil
}

func newStream(rows *sql.Rows, schema *feature.Schema) (*stream, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "listing query columns")
	}
	s := &stream{
		rows:    rows,
		schema:  schema,
		columns: make([]int, schema.Len()),
		label:   -1,
		values:  make([]interface{}, len(names)),
		dest:    make([]interface{}, len(names)),
	}
	for i := range s.columns {
		s.columns[i] = -1
	}
	for c, name := range names {
		s.dest[c] = &s.values[c]
		if name == schema.Label().Name() {
			s.label = c
			continue
		}
		i, ok := schema.Index(name)
		if !ok {
			// columns for other purposes, like ids, are allowed
			continue
		}
		if s.columns[i] != -1 {
			return nil, errors.Wrapf(feature.ErrConfiguration, "repeated column for feature %s", name)
		}
		s.columns[i] = c
	}
	for i, c := range s.columns {
		if c == -1 {
			return nil, errors.Wrapf(feature.ErrConfiguration, "no column for feature %s", schema.Feature(i).Name())
		}
	}
	return s, nil
}

func (s *stream) Next(ctx context.Context) (*dataset.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, errors.Wrapf(err, "reading row %d", s.row+1)
		}
		return nil, io.EOF
	}
	s.row++
	if err := s.rows.Scan(s.dest...); err != nil {
		return nil, errors.Wrapf(err, "scanning row %d", s.row)
	}
	e, err := s.example()
	if err != nil {
		return nil, errors.Wrapf(err, "row %d", s.row)
	}
	return e, nil
}

func (s *stream) Close() error {
	err := s.rows.Close()
	if s.db != nil {
		err = multierr.Append(err, s.db.Close())
	}
	return err
}

func (s *stream) example() (*dataset.Example, error) {
	inst := make(feature.Instance, len(s.columns))
	for i, c := range s.columns {
		f := s.schema.Feature(i)
		var err error
		if _, ok := f.(*feature.ContinuousFeature); ok {
			inst[i], err = continuousValue(f, s.values[c])
		} else {
			inst[i], err = discreteValue(f, s.values[c])
		}
		if err != nil {
			return nil, err
		}
	}
	if err := s.schema.Validate(inst); err != nil {
		return nil, err
	}
	if s.label == -1 {
		return &dataset.Example{Instance: inst, Label: dataset.Unlabelled}, nil
	}
	label, err := s.labelValue(s.values[s.label])
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
	case float32:
		return float64(tv), nil
	case int64:
		return float64(tv), nil
	case []byte:
		return parseFloat(f, string(tv))
	case string:
		return parseFloat(f, tv)
	}
	return nil, errors.Wrapf(feature.ErrTypeMismatch, "column for %s has unsupported %T value", f.Name(), v)
}

func parseFloat(f feature.Feature, v string) (interface{}, error) {
	fv, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, errors.Wrapf(feature.ErrTypeMismatch, "converting %s to float64 for %s", v, f.Name())
	}
	return fv, nil
}

func discreteValue(f feature.Feature, v interface{}) (interface{}, error) {
	switch tv := v.(type) {
	case nil:
		return nil, nil
	case string:
		return tv, nil
	case []byte:
		return string(tv), nil
	case int64:
		return strconv.FormatInt(tv, 10), nil
	case bool:
		return strconv.FormatBool(tv), nil
	}
	return nil, errors.Wrapf(feature.ErrTypeMismatch, "column for %s has unsupported %T value", f.Name(), v)
}

// labelValue accepts the name of a class. An integer that does not
// name a class is taken as the position of one.
func (s *stream) labelValue(v interface{}) (int, error) {
	switch tv := v.(type) {
	case string:
		return s.schema.LabelIndex(tv)
	case []byte:
		return s.schema.LabelIndex(string(tv))
	case int64:
		if l, err := s.schema.LabelIndex(strconv.FormatInt(tv, 10)); err == nil {
			return l, nil
		}
		if tv < 0 || tv >= int64(s.schema.NumClasses()) {
			return -1, errors.Wrapf(feature.ErrSchemaMismatch, "label %d is neither a class name nor a class position", tv)
		}
		return int(tv), nil
	}
	return -1, errors.Wrapf(feature.ErrSchemaMismatch, "unsupported %T label value", v)
}
