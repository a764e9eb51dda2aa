package main

import (
	"encoding/binary"
	"io"
	"math"
)

// float32Reader streams a stereo buffer as interleaved little-endian
// float32 frames.
type float32Reader struct {
	s   stereo
	pos int
}

func (r *float32Reader) Read(p []byte) (int, error) {
	if r.pos >= r.s.Frames() {
		return 0, io.EOF
	}
	n := 0
	for ; r.pos < r.s.Frames() && n+8 <= len(p); r.pos++ {
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(r.s.L[r.pos]))
		binary.LittleEndian.PutUint32(p[n+4:], math.Float32bits(r.s.R[r.pos]))
		n += 8
	}
	return n, nil
}
