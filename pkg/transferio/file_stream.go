package transferio

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FileReadStream reads a local image file through the same contract as the
// datastore streams, so a transfer can run with a local file on either end.
type FileReadStream struct {
	eofMark
	file   *os.File
	size   int64
	log    logrus.FieldLogger
	closed bool
}

var _ ReadStream = (*FileReadStream)(nil)

func NewFileReadStream(path string, log logrus.FieldLogger) (*FileReadStream, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "stat source file")
	}
	return &FileReadStream{
		file: file,
		size: fi.Size(),
		log:  orStandardLogger(log),
	}, nil
}

// ReadChunk returns the next ReadChunkSize block of the file, short or
// empty at end of file. The requested size is ignored.
func (s *FileReadStream) ReadChunk(int) ([]byte, error) {
	buf := make([]byte, ReadChunkSize)
	n, err := io.ReadFull(s.file, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return buf[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *FileReadStream) Size() int64 {
	return s.size
}

func (s *FileReadStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.file.Close(); err != nil {
		s.log.WithError(err).Debug("closing source file")
	}
	return nil
}

// FileWriteStream writes a downloaded image to a local file.
type FileWriteStream struct {
	eofMark
	file   *os.File
	log    logrus.FieldLogger
	closed bool
}

var _ WriteStream = (*FileWriteStream)(nil)

func NewFileWriteStream(path string, log logrus.FieldLogger) (*FileWriteStream, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileWriteStream{file: file, log: orStandardLogger(log)}, nil
}

func (s *FileWriteStream) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

func (s *FileWriteStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.file.Close(); err != nil {
		s.log.WithError(err).Debug("closing destination file")
	}
	return nil
}
