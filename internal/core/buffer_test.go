package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPooledBuffer(t *testing.T) {
	buf := NewPooledBuffer()
	assert.Equal(t, 0, buf.Len())

	_, err := buf.WriteString("osm")
	assert.NoError(t, err)
	assert.Equal(t, "osm", buf.String())

	buf.Close()
	assert.Nil(t, buf.Buffer)

	// a second close must not put the buffer back twice
	buf.Close()

	again := NewPooledBuffer()
	defer again.Close()

	assert.Equal(t, 0, again.Len())
}
