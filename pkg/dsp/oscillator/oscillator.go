// Package oscillator provides test-signal generators used as input for
// offline renders.
package oscillator

import (
	"fmt"
	"math"
	"strings"
)

// Waveform selects the shape an Oscillator produces.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
	WaveNoise
)

var waveformNames = [...]string{"sine", "saw", "square", "triangle", "noise"}

// String returns the lower-case waveform name.
func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// ParseWaveform maps a case-insensitive name to a Waveform.
func ParseWaveform(s string) (Waveform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range waveformNames {
		if s == name {
			return Waveform(i), nil
		}
	}
	return WaveSine, fmt.Errorf("oscillator: unknown waveform %q", s)
}

// Oscillator generates periodic waveforms and white noise
type Oscillator struct {
	sampleRate float64
	frequency  float64
	phase      float64
	phaseInc   float64
	waveform   Waveform
	amplitude  float32
	seed       uint32
	noise      uint32
}

// New creates a 440 Hz full-scale sine oscillator.
func New(sampleRate float64) *Oscillator {
	o := &Oscillator{
		sampleRate: sampleRate,
		amplitude:  1,
		seed:       1,
		noise:      1,
	}
	o.SetFrequency(440)
	return o
}

// SetFrequency sets the oscillator frequency
func (o *Oscillator) SetFrequency(freq float64) {
	o.frequency = freq
	o.phaseInc = freq / o.sampleRate
}

// Frequency returns the oscillator frequency.
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// SetWaveform selects the shape Next produces.
func (o *Oscillator) SetWaveform(w Waveform) {
	o.waveform = w
}

// SetAmplitude sets the peak output level.
func (o *Oscillator) SetAmplitude(a float32) {
	o.amplitude = a
}

// SetSeed restarts the noise sequence from seed. Zero is replaced by 1.
func (o *Oscillator) SetSeed(seed uint32) {
	if seed == 0 {
		seed = 1
	}
	o.seed = seed
	o.noise = seed
}

// SetPhase sets the oscillator phase (0-1)
func (o *Oscillator) SetPhase(phase float64) {
	o.phase = phase - math.Floor(phase)
}

// Reset restarts the phase and the noise sequence.
func (o *Oscillator) Reset() {
	o.phase = 0
	o.noise = o.seed
}

// updatePhase advances the phase and wraps it
func (o *Oscillator) updatePhase() {
	o.phase += o.phaseInc
	if o.phase >= 1.0 {
		o.phase -= math.Floor(o.phase)
	}
}

// Sine generates a sine wave sample
func (o *Oscillator) Sine() float32 {
	sample := float32(math.Sin(2.0 * math.Pi * o.phase))
	o.updatePhase()
	return sample
}

// Saw generates a sawtooth wave sample
func (o *Oscillator) Saw() float32 {
	sample := float32(2.0*o.phase - 1.0)
	o.updatePhase()
	return sample
}

// Square generates a square wave sample
func (o *Oscillator) Square() float32 {
	var sample float32 = -1
	if o.phase < 0.5 {
		sample = 1
	}
	o.updatePhase()
	return sample
}

// Triangle generates a triangle wave sample
func (o *Oscillator) Triangle() float32 {
	var sample float32
	if o.phase < 0.5 {
		sample = float32(4.0*o.phase - 1.0)
	} else {
		sample = float32(3.0 - 4.0*o.phase)
	}
	o.updatePhase()
	return sample
}

// Noise generates a uniform white noise sample in [-1, 1] from a
// xorshift32 sequence.
func (o *Oscillator) Noise() float32 {
	x := o.noise
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	o.noise = x
	return float32(x)/(1<<31) - 1
}

// Next returns the next sample of the selected waveform at the set amplitude.
func (o *Oscillator) Next() float32 {
	var s float32
	switch o.waveform {
	case WaveSaw:
		s = o.Saw()
	case WaveSquare:
		s = o.Square()
	case WaveTriangle:
		s = o.Triangle()
	case WaveNoise:
		s = o.Noise()
	default:
		s = o.Sine()
	}
	return s * o.amplitude
}

// Process fills buffer with the selected waveform - no allocations
func (o *Oscillator) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = o.Next()
	}
}
