// Package delay provides delay lines for pitch-shifting audio effects.
package delay

import "fmt"

// Ring is a fixed-capacity FIFO of samples backed by a circular array.
// Index 0 is the oldest buffered sample, Len()-1 the newest.
// It is not safe for concurrent use; one goroutine both pushes and pops.
type Ring struct {
	buf  []float32
	head int
	n    int
}

// NewRing creates a ring holding at most capacity samples.
func NewRing(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("delay: ring capacity must be > 0: %d", capacity)
	}
	return &Ring{buf: make([]float32, capacity)}, nil
}

// Push appends a sample. When the ring is full the oldest sample is overwritten.
func (r *Ring) Push(x float32) {
	size := len(r.buf)
	if r.n == size {
		r.buf[r.head] = x
		r.head++
		if r.head == size {
			r.head = 0
		}
		return
	}

	tail := r.head + r.n
	if tail >= size {
		tail -= size
	}
	r.buf[tail] = x
	r.n++
}

// Pop removes and returns the oldest sample.
func (r *Ring) Pop() (float32, bool) {
	if r.n == 0 {
		return 0, false
	}
	x := r.buf[r.head]
	r.head++
	if r.head == len(r.buf) {
		r.head = 0
	}
	r.n--
	return x, true
}

// At returns the i-th buffered sample counting from the oldest.
// i must be in [0, Len()).
func (r *Ring) At(i int) float32 {
	idx := r.head + i
	if idx >= len(r.buf) {
		idx -= len(r.buf)
	}
	return r.buf[idx]
}

// Len returns the number of buffered samples.
func (r *Ring) Len() int {
	return r.n
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Full reports whether Len() == Cap().
func (r *Ring) Full() bool {
	return r.n == len(r.buf)
}

// Clear discards all buffered samples without touching the backing array.
func (r *Ring) Clear() {
	r.head = 0
	r.n = 0
}
