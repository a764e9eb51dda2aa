package dsp

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Block helpers. All of them work in place and never allocate; slices passed
// together must have equal length.

// Clear zeroes a buffer
func Clear(buffer []float32) {
	vek32.Zeros_Into(buffer, len(buffer))
}

// Add adds src into dst
func Add(dst, src []float32) {
	vek32.Add_Inplace(dst, src)
}

// ApplyGainRamp multiplies buffer by a per-sample gain curve
func ApplyGainRamp(buffer, gains []float32) {
	vek32.Mul_Inplace(buffer, gains)
}

// Peak returns the absolute peak value of a buffer
func Peak(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}
	hi := vek32.Max(buffer)
	lo := vek32.Min(buffer)
	if -lo > hi {
		return -lo
	}
	return hi
}

// RMS returns the root mean square of a buffer
func RMS(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}
	return float32(math.Sqrt(float64(vek32.Dot(buffer, buffer)) / float64(len(buffer))))
}

// Clip hard-limits a buffer to [-limit, limit]
func Clip(buffer []float32, limit float32) {
	for i, x := range buffer {
		if x > limit {
			buffer[i] = limit
		} else if x < -limit {
			buffer[i] = -limit
		}
	}
}
