package transferio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPut struct {
	method     string
	requestURI string
	userAgent  string
	cookie     string
	length     int64
	body       []byte
}

func putRecorder(rec *recordedPut, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.requestURI = r.RequestURI
		rec.userAgent = r.Header.Get("User-Agent")
		rec.cookie = r.Header.Get("Cookie")
		rec.length = r.ContentLength
		rec.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
	}
}

func datastoreParams(ts *httptest.Server, filePath string) DatastoreParams {
	return DatastoreParams{
		Host:       strings.TrimPrefix(ts.URL, "http://"),
		Datacenter: "dc1",
		Datastore:  "ds1",
		FilePath:   filePath,
		Scheme:     "http",
		Cookies:    []*http.Cookie{{Name: "vmware_soap_session", Value: "abc"}},
	}
}

func TestDatastoreWriteStream(t *testing.T) {
	var rec recordedPut
	ts := httptest.NewServer(putRecorder(&rec, http.StatusCreated))
	defer ts.Close()

	data := bytes.Repeat([]byte{0x5a}, 200000)
	s, err := NewDatastoreWriteStream(context.Background(), datastoreParams(ts, "vm1/disk.vmdk"), int64(len(data)), nil)
	require.NoError(t, err)

	// Stream in several writes; none of them should buffer the whole body.
	for off := 0; off < len(data); off += 65536 {
		end := off + 65536
		if end > len(data) {
			end = len(data)
		}
		n, err := s.Write(data[off:end])
		require.NoError(t, err)
		assert.Equal(t, end-off, n)
	}
	require.NoError(t, s.Close())

	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/folder/vm1/disk.vmdk?dcPath=dc1&dsName=ds1", rec.requestURI)
	assert.Equal(t, UserAgent, rec.userAgent)
	assert.Equal(t, "vmware_soap_session=abc", rec.cookie)
	assert.EqualValues(t, len(data), rec.length)
	assert.Equal(t, data, rec.body)
}

func TestWriteStreamRejectsBadScheme(t *testing.T) {
	params := DatastoreParams{Host: "10.0.0.1", Scheme: "ftp"}
	_, err := NewDatastoreWriteStream(context.Background(), params, 10, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported datastore URL scheme")
}

func TestWriteStreamCloseIsIdempotent(t *testing.T) {
	var rec recordedPut
	ts := httptest.NewServer(putRecorder(&rec, http.StatusOK))
	defer ts.Close()

	s, err := NewDatastoreWriteStream(context.Background(), datastoreParams(ts, "x.vmdk"), 3, nil)
	require.NoError(t, err)
	_, err = s.Write([]byte("abc"))
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestWriteStreamCloseSwallowsServerErrors(t *testing.T) {
	var rec recordedPut
	ts := httptest.NewServer(putRecorder(&rec, http.StatusInternalServerError))
	defer ts.Close()

	s, err := NewDatastoreWriteStream(context.Background(), datastoreParams(ts, "x.vmdk"), 3, nil)
	require.NoError(t, err)
	_, err = s.Write([]byte("abc"))
	require.NoError(t, err)

	// The server failed the upload, but close is best-effort cleanup and
	// must not surface that.
	assert.NoError(t, s.Close())
}

func TestWriteStreamSurfacesTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	params := datastoreParams(ts, "x.vmdk")
	ts.Close() // nothing is listening anymore

	s, err := NewDatastoreWriteStream(context.Background(), params, 1<<20, nil)
	require.NoError(t, err)
	defer s.Close()

	// The dial failure lands on a subsequent write.
	var writeErr error
	for i := 0; i < 64 && writeErr == nil; i++ {
		_, writeErr = s.Write(bytes.Repeat([]byte{1}, 16384))
	}
	assert.Error(t, writeErr)
}
