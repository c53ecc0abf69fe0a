package sound

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResampleInt16SameRate(t *testing.T) {
	in := []int16{1, 2, 3}
	out := ResampleInt16(in, 16000, 16000)

	assert.Equal(t, []int16{1, 2, 3}, out)
	out[0] = 99
	assert.Equal(t, int16(1), in[0], "must not alias the input slice")
}

func TestResampleInt16Downsample(t *testing.T) {
	in := make([]int16, 480)
	for i := range in {
		in[i] = int16(i)
	}

	out := ResampleInt16(in, 48000, 16000)
	assert.Len(t, out, 160)
}

func TestResampleInt16Empty(t *testing.T) {
	assert.Empty(t, ResampleInt16(nil, 48000, 16000))
}

func TestConvertInt16ToInt(t *testing.T) {
	assert.Equal(t, []int{-1, 0, 32767}, ConvertInt16ToInt([]int16{-1, 0, 32767}))
}

func TestConvertIntToFloat32(t *testing.T) {
	out := ConvertIntToFloat32([]int{0, 16384, -32768})
	assert.InDelta(t, 0.0, out[0], 1e-6)
	assert.InDelta(t, 0.5, out[1], 1e-6)
	assert.InDelta(t, -1.0, out[2], 1e-6)
}

func TestCalculateRMS16(t *testing.T) {
	assert.Zero(t, CalculateRMS16(nil))
	assert.InDelta(t, 100.0, CalculateRMS16([]int16{100, -100, 100, -100}), 1e-9)
	assert.Greater(t, CalculateRMS16([]int16{1000, -1000}), CalculateRMS16([]int16{10, -10}))
}
