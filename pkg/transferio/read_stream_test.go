package transferio

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatastoreReadStreamChunking(t *testing.T) {
	data := bytes.Repeat([]byte{0xab}, 150000)
	var gotURI, gotAgent, gotCookie string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.RequestURI
		gotAgent = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}))
	defer ts.Close()

	s, err := NewDatastoreReadStream(context.Background(), datastoreParams(ts, "a b/c.vmdk"), nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "/folder/a%20b/c.vmdk?dcPath=dc1&dsName=ds1", gotURI)
	assert.Equal(t, UserAgent, gotAgent)
	assert.Equal(t, "vmware_soap_session=abc", gotCookie)
	assert.EqualValues(t, len(data), s.Size())

	// Requested size is ignored: blocks are always 64 KiB until the tail.
	var got []byte
	for _, want := range []int{65536, 65536, 18928} {
		chunk, err := s.ReadChunk(999999)
		require.NoError(t, err)
		assert.Len(t, chunk, want)
		got = append(got, chunk...)
	}
	assert.Equal(t, data, got)

	// Exhausted: empty result with no error, repeatedly.
	for i := 0; i < 2; i++ {
		chunk, err := s.ReadChunk(1)
		require.NoError(t, err)
		assert.Empty(t, chunk)
	}
}

func TestReadStreamSizeUnknown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flush before writing so no Content-Length is set.
		w.(http.Flusher).Flush()
		w.Write([]byte("some bytes"))
	}))
	defer ts.Close()

	s, err := NewDatastoreReadStream(context.Background(), datastoreParams(ts, "x.vmdk"), nil)
	require.NoError(t, err)
	defer s.Close()

	assert.EqualValues(t, -1, s.Size())

	chunk, err := s.ReadChunk(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("some bytes"), chunk)
}

func TestReadStreamErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such file", http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := NewDatastoreReadStream(context.Background(), datastoreParams(ts, "missing.vmdk"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "no such file")
}

func TestReadStreamRejectsBadScheme(t *testing.T) {
	params := DatastoreParams{Host: "10.0.0.1", Scheme: "gopher"}
	_, err := NewDatastoreReadStream(context.Background(), params, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported datastore URL scheme")
}

func TestReadStreamCloseIsIdempotent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer ts.Close()

	s, err := NewDatastoreReadStream(context.Background(), datastoreParams(ts, "x.vmdk"), nil)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
