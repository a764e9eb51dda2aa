package delay

import (
	"fmt"
	"math"

	"github.com/justyntemme/phasey/pkg/dsp/interpolation"
)

// Resampling is a delay line read back at a continuously varying, fractional
// delay length. Changing the length while reading moves the read head faster
// or slower than the write head, which transposes the buffered audio; the
// per-sample change of length is bounded by maxSpeed so the read head glides
// instead of jumping.
//
// The caller pushes exactly one sample per Pop in steady state.
type Resampling struct {
	ring     *Ring
	last     float64
	maxSpeed float64
}

// NewResampling creates a resampling delay line. capacity is the maximum
// delay in samples plus one guard sample. maxSpeed is the largest allowed
// change of delay length per Pop, in samples; 0 disables the limit.
func NewResampling(capacity int, maxSpeed float64) (*Resampling, error) {
	if maxSpeed < 0 || math.IsNaN(maxSpeed) {
		return nil, fmt.Errorf("delay: max speed must be >= 0: %v", maxSpeed)
	}
	ring, err := NewRing(capacity)
	if err != nil {
		return nil, err
	}
	return &Resampling{ring: ring, maxSpeed: maxSpeed}, nil
}

// Push appends one input sample, overwriting the oldest when full.
func (d *Resampling) Push(x float32) {
	d.ring.Push(x)
}

// Pop returns one output sample read target samples behind the write head,
// approaching target no faster than maxSpeed per call. It returns silence
// until enough history has been buffered for the first read.
func (d *Resampling) Pop(target float64) float32 {
	if d.ring.Full() {
		d.ring.Pop()
	}
	n := d.ring.Len()

	if d.last == 0 {
		if float64(n) < math.Ceil(target) {
			return 0
		}
		d.last = target
	}

	delta := target - d.last
	if d.maxSpeed > 0 {
		if delta < -d.maxSpeed {
			delta = -d.maxSpeed
		} else if delta > d.maxSpeed {
			delta = d.maxSpeed
		}
	}

	// One sample is pushed per pop, so growing by one keeps the read index
	// pinned inside the buffered history.
	if d.last+delta > float64(n) {
		delta = 1
		if d.maxSpeed > 0 && delta > d.maxSpeed {
			delta = d.maxSpeed
		}
	}

	next := d.last + delta
	if next > float64(n) {
		next = float64(n)
	} else if next < 0 {
		next = 0
	}
	d.last = next

	if n == 0 {
		return 0
	}

	// An integral length L reads At(n-L+1); fractional lengths blend the two
	// neighbouring integral taps so the output is continuous in length.
	ceil := math.Ceil(next)
	far := clampIndex(n-int(ceil)+1, n)
	near := clampIndex(far+1, n)

	return interpolation.Linear(d.ring.At(far), d.ring.At(near), float32(ceil-next))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// Clear discards buffered history and returns the line to the unprimed state.
func (d *Resampling) Clear() {
	d.ring.Clear()
	d.last = 0
}

// Len returns the number of buffered samples.
func (d *Resampling) Len() int {
	return d.ring.Len()
}

// Cap returns the capacity of the history buffer.
func (d *Resampling) Cap() int {
	return d.ring.Cap()
}

// Last returns the delay length used by the most recent Pop; 0 means unprimed.
func (d *Resampling) Last() float64 {
	return d.last
}

// MaxSpeed returns the slew limit in samples per Pop.
func (d *Resampling) MaxSpeed() float64 {
	return d.maxSpeed
}

// SetMaxSpeed changes the slew limit. Negative values are treated as 0.
func (d *Resampling) SetMaxSpeed(maxSpeed float64) {
	if maxSpeed < 0 {
		maxSpeed = 0
	}
	d.maxSpeed = maxSpeed
}
