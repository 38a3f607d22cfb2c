package transferio

// ReadChunkSize is the block size used by every ReadChunk implementation in
// this package. Callers' requested sizes are ignored so that blocks stay
// aligned with the chunk size the image service produces.
const ReadChunkSize = 64 * 1024

// UserAgent identifies this module on datastore HTTP requests.
const UserAgent = "OpenStack-ESX-Adapter"

// Stream is the minimal file-like contract shared by every transfer
// endpoint. The EOF marker is bookkeeping for upload orchestration running
// above this package; it is independent of transport end-of-stream
// detection and never clears once set.
type Stream interface {
	SetEOF(eof bool)
	EOF() bool
	// Close releases the underlying transport. It is idempotent and safe
	// to defer; stream implementations never propagate cleanup failures.
	Close() error
}

// ReadStream is a source of image data.
type ReadStream interface {
	Stream
	// ReadChunk returns the next block of data. The requested size is
	// advisory at best and ignored by every implementation here. An empty
	// result with a nil error signals end of stream.
	ReadChunk(chunkSize int) ([]byte, error)
	// Size returns the total byte count if known, else -1.
	Size() int64
}

// WriteStream is a sink for image data.
type WriteStream interface {
	Stream
	Write(p []byte) (int, error)
}

// eofMark latches the caller-set EOF marker. Attempts to clear it are
// ignored so the flag can only move forward.
type eofMark struct {
	eof bool
}

func (m *eofMark) SetEOF(eof bool) {
	if eof {
		m.eof = true
	}
}

func (m *eofMark) EOF() bool {
	return m.eof
}
