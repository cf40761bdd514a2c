/*
Package csv provides streams of examples read from CSV documents and a writer
of examples as CSV.
*/
package csv

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pbanos/vfdt/dataset"
	"github.com/pbanos/vfdt/feature"
	"github.com/pkg/errors"
)

// UndefinedValue is the CSV value for a missing value
const UndefinedValue = "?"

type reader struct {
	r       *csv.Reader
	closer  io.Closer
	schema  *feature.Schema
	columns []int
	label   int
	line    int
}

/*
NewStream takes an io.Reader for a CSV document and a schema and returns a
dataset.Stream of the examples in the document, or an error if its header
cannot be read or does not match the schema.

The header or first row of the CSV content is expected to consist of the names
of the features of the schema, in any order, and optionally the name of the
label. Without a label column the examples are dataset.Unlabelled. The rest of
the rows should consist of valid values for all the columns and/or the '?'
string to indicate an undefined value.

Rows that cannot be parsed or do not conform to the schema produce an error
matching feature.ErrSchemaMismatch and reading can continue on the next row.
*/
func NewStream(r io.Reader, schema *feature.Schema) (dataset.Stream, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	rd := &reader{r: cr, schema: schema, columns: make([]int, schema.Len()), label: -1, line: 1}
	for i := range rd.columns {
		rd.columns[i] = -1
	}
	for c, name := range header {
		if name == schema.Label().Name() {
			rd.label = c
			continue
		}
		i, ok := schema.Index(name)
		if !ok {
			return nil, errors.Wrapf(feature.ErrConfiguration, "parsing header: reference to unknown feature %s", name)
		}
		if rd.columns[i] != -1 {
			return nil, errors.Wrapf(feature.ErrConfiguration, "parsing header: repeated feature %s", name)
		}
		rd.columns[i] = c
	}
	for i, c := range rd.columns {
		if c == -1 {
			return nil, errors.Wrapf(feature.ErrConfiguration, "parsing header: missing feature %s", schema.Feature(i).Name())
		}
	}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd, nil
}

/*
OpenFile takes a filepath string and a schema, opens the file to which the
filepath points to and uses NewStream to return a stream of the examples in
it. If the filepath is "" os.Stdin is used instead. Closing the stream closes
the file.
*/
func OpenFile(filepath string, schema *feature.Schema) (dataset.Stream, error) {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return nil, errors.Wrapf(err, "opening CSV file %s", filepath)
		}
	}
	s, err := NewStream(f, schema)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "parsing CSV file %s", filepath)
	}
	return s, nil
}

func (rd *reader) Next(ctx context.Context) (*dataset.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rd.line++
	row, err := rd.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		if errors.Is(err, csv.ErrFieldCount) {
			return nil, errors.Wrapf(feature.ErrSchemaMismatch, "line %d: %v", rd.line, err)
		}
		return nil, errors.Wrapf(err, "reading line %d", rd.line)
	}
	e, err := rd.parse(row)
	if err != nil {
		return nil, errors.Wrapf(err, "line %d", rd.line)
	}
	return e, nil
}

func (rd *reader) Close() error {
	if rd.closer == nil || rd.closer == os.Stdin {
		return nil
	}
	return rd.closer.Close()
}

func (rd *reader) parse(row []string) (*dataset.Example, error) {
	inst := make(feature.Instance, len(rd.columns))
	for i, c := range rd.columns {
		v := row[c]
		if v == UndefinedValue {
			continue
		}
		if _, ok := rd.schema.Feature(i).(*feature.ContinuousFeature); ok {
			fv, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, errors.Wrapf(feature.ErrTypeMismatch, "converting %s to float64 for %s", v, rd.schema.Feature(i).Name())
			}
			inst[i] = fv
		} else {
			inst[i] = v
		}
	}
	if err := rd.schema.Validate(inst); err != nil {
		return nil, err
	}
	label := dataset.Unlabelled
	if rd.label != -1 {
		var err error
		label, err = rd.schema.LabelIndex(row[rd.label])
		if err != nil {
			return nil, err
		}
	}
	return &dataset.Example{Instance: inst, Label: label}, nil
}

/*
Writer writes examples as CSV rows: a value per feature of its schema
followed by the label name.
*/
type Writer struct {
	w      *csv.Writer
	schema *feature.Schema
	count  int
}

/*
NewWriter takes an io.Writer and a schema and returns a Writer that will
write examples on the io.Writer, after writing a header with the names of
the features and the label.
*/
func NewWriter(writer io.Writer, schema *feature.Schema) (*Writer, error) {
	w := csv.NewWriter(writer)
	record := make([]string, 0, schema.Len()+1)
	for _, f := range schema.Features() {
		record = append(record, f.Name())
	}
	record = append(record, schema.Label().Name())
	err := w.Write(record)
	if err != nil {
		return nil, errors.Wrap(err, "writing CSV header")
	}
	return &Writer{w: w, schema: schema}, nil
}

// Write writes the example as a CSV row
func (cw *Writer) Write(e *dataset.Example) error {
	record := make([]string, 0, len(e.Instance)+1)
	for _, v := range e.Instance {
		switch tv := v.(type) {
		case nil:
			record = append(record, UndefinedValue)
		case float64:
			record = append(record, strconv.FormatFloat(tv, 'g', -1, 64))
		case string:
			record = append(record, tv)
		default:
			return errors.Wrapf(feature.ErrTypeMismatch, "writing CSV row for example %d: unsupported value %v of type %T", cw.count+1, v, v)
		}
	}
	if e.Label == dataset.Unlabelled {
		record = append(record, UndefinedValue)
	} else {
		record = append(record, cw.schema.LabelName(e.Label))
	}
	err := cw.w.Write(record)
	if err != nil {
		return errors.Wrapf(err, "writing CSV row for example %d", cw.count+1)
	}
	cw.count++
	return nil
}

// Count returns the number of examples written
func (cw *Writer) Count() int {
	return cw.count
}

// Flush ensures any pending written operations finish
// before returning. It returns an error if that cannot
// be ensured.
func (cw *Writer) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}
