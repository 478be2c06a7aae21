package pkg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenWriter struct{}

func (bw *brokenWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("broken writer")
}

func TestMultiWriter_Write(t *testing.T) {
	sb1 := &strings.Builder{}
	sb1.WriteString("pre-existing")
	sb2 := &strings.Builder{}

	mw := NewMultiWriter(sb1, sb2)
	require.NotNil(t, mw)

	n, err := mw.Write([]byte("first "))
	require.NoError(t, err)
	assert.Equal(t, 2*len("first "), n)
	n, err = mw.Write([]byte("second"))
	require.NoError(t, err)
	assert.Equal(t, 2*len("second"), n)

	assert.Equal(t, "pre-existingfirst second", sb1.String())
	assert.Equal(t, "first second", sb2.String())
}

func TestMultiWriter_Write_WithError(t *testing.T) {
	sb := &strings.Builder{}
	mw := NewMultiWriter(&brokenWriter{}, sb)

	n, err := mw.Write([]byte("msg"))
	assert.Error(t, err)

	// the healthy writer still received the message
	assert.Equal(t, len("msg"), n)
	assert.Equal(t, "msg", sb.String())
}
