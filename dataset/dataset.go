/*
Package dataset provides the streams of examples trees learn from and are
tested against.
*/
package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/pbanos/vfdt/feature"
)

// Unlabelled is the label of examples read from sources
// that carry no label, such as instances to predict.
const Unlabelled = -1

/*
Example is an instance of a schema along with its label, the position of its
class in the available values of the schema label.
*/
type Example struct {
	Instance feature.Instance
	Label    int
}

func (e *Example) String() string {
	return fmt.Sprintf("%v -> %d", []interface{}(e.Instance), e.Label)
}

/*
Stream represents a sequence of examples.

Its Next method returns the next example of the stream, or io.EOF once the
stream is exhausted. An error matching feature.ErrSchemaMismatch affects only
the example being read: calling Next again returns the following one. Any
other error is final.

Its Close method frees the resources held by the stream.
*/
type Stream interface {
	Next(context.Context) (*Example, error)
	Close() error
}

type sliceStream struct {
	examples []*Example
	next     int
}

/*
NewSliceStream takes a slice of examples and returns a Stream that goes
through them in order.
*/
func NewSliceStream(examples []*Example) Stream {
	return &sliceStream{examples: examples}
}

func (ss *sliceStream) Next(ctx context.Context) (*Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ss.next >= len(ss.examples) {
		return nil, io.EOF
	}
	e := ss.examples[ss.next]
	ss.next++
	return e, nil
}

func (ss *sliceStream) Close() error {
	return nil
}

/*
ReadAll takes a context and a stream and returns all the examples left on the
stream, or the first error other than io.EOF obtained from it.
*/
func ReadAll(ctx context.Context, s Stream) ([]*Example, error) {
	var result []*Example
	for {
		e, err := s.Next(ctx)
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
}
