package vectorstore

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeVector(t *testing.T) {
	vec := []float32{1.5, -0.25}
	buf := encodeVector(vec)
	assert.Len(t, buf, 8)

	got0 := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
	got1 := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
	assert.Equal(t, float32(1.5), got0)
	assert.Equal(t, float32(-0.25), got1)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.2))
	assert.Equal(t, 1.0, clamp01(1.7))
	assert.Equal(t, 0.42, clamp01(0.42))
}
