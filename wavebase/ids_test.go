package wavebase

import (
	"math"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestIDGeneratorIsMonotonicFromZero(t *testing.T) {
	var g idGenerator
	assert.Equal(t, g.Next(), uint32(0))
	assert.Equal(t, g.Next(), uint32(1))
	assert.Equal(t, g.Next(), uint32(2))
}

func TestIDGeneratorWrapsOnOverflow(t *testing.T) {
	var g idGenerator
	g.next.Store(math.MaxUint32)
	assert.Equal(t, g.Next(), uint32(math.MaxUint32))
	assert.Equal(t, g.Next(), uint32(0))
	assert.Equal(t, g.Next(), uint32(1))
}
