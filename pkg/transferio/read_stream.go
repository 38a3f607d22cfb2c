package transferio

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DatastoreReadStream downloads one datastore file over a single HTTP GET.
// Callers must Close (typically via defer) to release the connection;
// Close never returns an error.
type DatastoreReadStream struct {
	eofMark
	body   io.ReadCloser
	size   int64
	log    logrus.FieldLogger
	closed bool
}

var _ ReadStream = (*DatastoreReadStream)(nil)

// NewDatastoreReadStream issues a GET for the datastore file identified by
// params and returns a stream over the response body. The file path is
// percent-escaped in the URL. A non-2xx response or an unsupported scheme
// is a construction error.
func NewDatastoreReadStream(ctx context.Context, params DatastoreParams, log logrus.FieldLogger) (*DatastoreReadStream, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, params.readURL(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building datastore GET request")
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Cookie", CookieHeader(params.Cookies))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "opening datastore GET")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, errors.Errorf("datastore GET returned %s: %s", resp.Status, body)
	}
	return &DatastoreReadStream{
		body: resp.Body,
		size: resp.ContentLength,
		log:  orStandardLogger(log),
	}, nil
}

// ReadChunk returns the next block of the download. The requested size is
// ignored; blocks are ReadChunkSize bytes so they line up with the chunk
// size the producer side writes with, with a short or empty block at end
// of stream. An empty result with a nil error means the download is done.
func (s *DatastoreReadStream) ReadChunk(int) ([]byte, error) {
	buf := make([]byte, ReadChunkSize)
	n, err := io.ReadFull(s.body, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return buf[:n], nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading from datastore")
	}
	return buf, nil
}

// Size returns the Content-Length reported by the datastore, or -1 when
// the response carried no length.
func (s *DatastoreReadStream) Size() int64 {
	return s.size
}

// Close releases the response body. Failures are logged at debug level and
// swallowed; closing twice is a no-op.
func (s *DatastoreReadStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.body.Close(); err != nil {
		s.log.WithError(err).Debug("closing datastore GET response body")
	}
	return nil
}
