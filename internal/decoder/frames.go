package decoder

import (
	"errors"
	"io"
	"iter"

	"github.com/simonhull/imgmeta/internal/types"
)

// ErrFramesClosed is returned by Next after Close.
var ErrFramesClosed = errors.New("frames closed")

// Frames is a lazy sequence of decoded frames. It owns the source stream
// of the decoder it was created from.
type Frames struct {
	src    io.ReadSeeker
	next   func() (*types.Frame, error)
	err    error
	closed bool
}

func newFrames(src io.ReadSeeker, next func() (*types.Frame, error)) *Frames {
	return &Frames{src: src, next: next}
}

// Next returns the next frame, or io.EOF when the sequence is exhausted.
// Errors are sticky.
func (f *Frames) Next() (*types.Frame, error) {
	if f.closed {
		return nil, ErrFramesClosed
	}
	if f.err != nil {
		return nil, f.err
	}
	frame, err := f.next()
	if err != nil {
		f.err = err
		return nil, err
	}
	return frame, nil
}

// All iterates the remaining frames. Iteration stops after the first
// error, which is yielded with a nil frame. io.EOF is not yielded.
func (f *Frames) All() iter.Seq2[*types.Frame, error] {
	return func(yield func(*types.Frame, error) bool) {
		for {
			frame, err := f.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(frame, err) || err != nil {
				return
			}
		}
	}
}

// Collect reads every remaining frame.
func (f *Frames) Collect() ([]*types.Frame, error) {
	var out []*types.Frame
	for frame, err := range f.All() {
		if err != nil {
			return out, err
		}
		out = append(out, frame)
	}
	return out, nil
}

// Close releases the source stream. It is safe to call more than once.
func (f *Frames) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if c, ok := f.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
