package transferio

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DatastoreWriteStream uploads one datastore file over a single streaming
// HTTP PUT. Writes go straight into the request body; nothing is buffered
// beyond what the transport requires, so arbitrarily large images can be
// pushed. Callers must Close (typically via defer) to finish the exchange
// and release the connection; Close never returns an error.
type DatastoreWriteStream struct {
	eofMark
	body   *io.PipeWriter
	done   chan putResult
	log    logrus.FieldLogger
	closed bool
}

type putResult struct {
	resp *http.Response
	err  error
}

var _ WriteStream = (*DatastoreWriteStream)(nil)

// NewDatastoreWriteStream opens a PUT against the datastore file identified
// by params, declaring fileSize as the Content-Length. Headers are on the
// wire before the first Write. The file path goes into the URL verbatim,
// unescaped. An unsupported scheme fails here, before any network activity.
func NewDatastoreWriteStream(ctx context.Context, params DatastoreParams, fileSize int64, log logrus.FieldLogger) (*DatastoreWriteStream, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, params.writeURL(), pr)
	if err != nil {
		return nil, errors.Wrap(err, "building datastore PUT request")
	}
	req.ContentLength = fileSize
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Cookie", CookieHeader(params.Cookies))

	s := &DatastoreWriteStream{
		body: pw,
		done: make(chan putResult, 1),
		log:  orStandardLogger(log),
	}
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			// Unblock any in-flight Write.
			pr.CloseWithError(err)
		}
		s.done <- putResult{resp: resp, err: err}
	}()
	return s, nil
}

// Write streams p onto the open connection, blocking until the transport
// has consumed it. Transport failures are returned as-is; there is no
// retry. The total written should match the declared Content-Length, but
// that is the caller's bargain with the server, not enforced here.
func (s *DatastoreWriteStream) Write(p []byte) (int, error) {
	n, err := s.body.Write(p)
	if err == nil {
		return n, nil
	}
	// The request may already have failed; surface that error instead of
	// the bare closed-pipe one.
	select {
	case res := <-s.done:
		s.done <- res
		if res.err != nil {
			return n, errors.Wrap(res.err, "datastore PUT failed")
		}
	default:
	}
	return n, errors.Wrap(err, "writing to datastore")
}

// Close finishes the upload: the body is terminated, then the server's
// response is read and discarded so it can complete processing and release
// the connection cleanly. Any failure along the way is logged at debug
// level and swallowed, since Close runs on cleanup paths where an escaping
// error would mask the original one. Closing twice is a no-op.
func (s *DatastoreWriteStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.body.Close(); err != nil {
		s.log.WithError(err).Debug("closing datastore PUT request body")
	}
	res := <-s.done
	s.done <- res
	if res.err != nil {
		s.log.WithError(res.err).Debug("reading datastore PUT response during close")
		return nil
	}
	if res.resp.StatusCode >= http.StatusBadRequest {
		s.log.WithField("status", res.resp.Status).Debug("datastore PUT returned error status")
	}
	if _, err := io.Copy(io.Discard, res.resp.Body); err != nil {
		s.log.WithError(err).Debug("draining datastore PUT response")
	}
	if err := res.resp.Body.Close(); err != nil {
		s.log.WithError(err).Debug("closing datastore PUT response body")
	}
	return nil
}
