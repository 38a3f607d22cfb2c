package transferio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCloser struct {
	bytes.Buffer
	closes int
}

func (c *countingCloser) Close() error {
	c.closes++
	return nil
}

func TestWriterStream(t *testing.T) {
	var sink countingCloser
	s := NewWriterStream(&sink, nil)

	n, err := s.Write([]byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, err = s.Write([]byte("world"))
	require.NoError(t, err)

	assert.EqualValues(t, 11, s.Written())
	assert.Equal(t, "hello world", sink.String())

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, sink.closes, "double close must not close the sink twice")
}

func TestWriterStreamPlainWriter(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterStream(&buf, nil)
	_, err := s.Write([]byte("x"))
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
