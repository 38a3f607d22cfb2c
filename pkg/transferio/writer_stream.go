package transferio

import (
	"io"

	"github.com/sirupsen/logrus"
)

// WriterStream adapts a plain io.Writer to the WriteStream contract, so a
// datastore download can be pumped into an HTTP response, a hash, or any
// other sink. If the writer is also an io.Closer it is closed with the
// stream.
type WriterStream struct {
	eofMark
	w       io.Writer
	written int64
	log     logrus.FieldLogger
	closed  bool
}

var _ WriteStream = (*WriterStream)(nil)

func NewWriterStream(w io.Writer, log logrus.FieldLogger) *WriterStream {
	return &WriterStream{w: w, log: orStandardLogger(log)}
}

func (s *WriterStream) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.written += int64(n)
	return n, err
}

// Written reports the total bytes pushed through the stream.
func (s *WriterStream) Written() int64 {
	return s.written
}

// Close closes the underlying writer when it supports closing. Failures
// are logged and swallowed; closing twice is a no-op.
func (s *WriterStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.log.WithError(err).Debug("closing write sink")
		}
	}
	return nil
}
