package transferio

import (
	"io"

	"github.com/pkg/errors"
)

// ChunkIterator is a pull-based lazy sequence of opaque byte chunks,
// typically handed in by the image service client. Next returns io.EOF
// once the sequence is exhausted; chunk boundaries are the producer's.
type ChunkIterator interface {
	Next() ([]byte, error)
}

// ChunkReader adapts a ChunkIterator to the ReadStream contract so upload
// orchestration can drain an image service download like any other source.
// Chunks are consumed strictly in order and never re-emitted.
type ChunkReader struct {
	eofMark
	chunks  ChunkIterator
	drained bool
}

var _ ReadStream = (*ChunkReader)(nil)

func NewChunkReader(chunks ChunkIterator) *ChunkReader {
	return &ChunkReader{chunks: chunks}
}

// ReadChunk advances the sequence and returns the next chunk. The
// requested size is ignored; the producer decided the boundaries. Once the
// sequence is exhausted every call returns an empty result with a nil
// error, never an error.
func (r *ChunkReader) ReadChunk(int) ([]byte, error) {
	if r.drained {
		return nil, nil
	}
	chunk, err := r.chunks.Next()
	if err == io.EOF {
		r.drained = true
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading image chunk")
	}
	return chunk, nil
}

// Size is unknown for an iterator-backed stream.
func (r *ChunkReader) Size() int64 {
	return -1
}

// Close is a no-op kept for the file-like contract; the iterator's owner
// manages its lifetime.
func (r *ChunkReader) Close() error {
	return nil
}

// SliceChunks builds a ChunkIterator over an in-memory chunk list.
func SliceChunks(chunks ...[]byte) ChunkIterator {
	return &sliceChunks{chunks: chunks}
}

type sliceChunks struct {
	chunks [][]byte
}

func (s *sliceChunks) Next() ([]byte, error) {
	if len(s.chunks) == 0 {
		return nil, io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

// ReaderChunks builds a ChunkIterator that cuts r into blocks of at most
// size bytes, for callers whose source is a plain io.Reader rather than an
// image service iterator.
func ReaderChunks(r io.Reader, size int) ChunkIterator {
	return &readerChunks{r: r, size: size}
}

type readerChunks struct {
	r    io.Reader
	size int
}

func (c *readerChunks) Next() ([]byte, error) {
	buf := make([]byte, c.size)
	n, err := io.ReadFull(c.r, buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, io.EOF
	}
	return nil, err
}
