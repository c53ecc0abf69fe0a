// Package sound holds small PCM helpers for the capture pipeline.
package sound

import "math"

// ResampleInt16 converts PCM samples between sample rates by linear
// interpolation. It copies into a fresh slice.
func ResampleInt16(input []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(input) == 0 {
		out := make([]int16, len(input))
		copy(out, input)
		return out
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(input)) / ratio)
	out := make([]int16, outLen)

	for i := 0; i < outLen; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(input)-1 {
			out[i] = input[len(input)-1]
			continue
		}
		frac := pos - float64(idx)
		sample := float64(input[idx])*(1-frac) + float64(input[idx+1])*frac
		out[i] = int16(sample)
	}
	return out
}

// ConvertInt16ToInt widens samples for go-audio buffers.
func ConvertInt16ToInt(input []int16) []int {
	out := make([]int, len(input))
	for i, s := range input {
		out[i] = int(s)
	}
	return out
}

// ConvertIntToFloat32 normalises samples to [-1, 1) for the VAD.
func ConvertIntToFloat32(input []int) []float32 {
	out := make([]float32, len(input))
	for i, s := range input {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// CalculateRMS16 calculates the root-mean-square of an int16 audio buffer,
// used as a cheap microphone activity gate.
func CalculateRMS16(buffer []int16) float64 {
	if len(buffer) == 0 {
		return 0
	}
	var sumSquares float64
	for _, sample := range buffer {
		val := float64(sample)
		sumSquares += val * val
	}
	return math.Sqrt(sumSquares / float64(len(buffer)))
}
