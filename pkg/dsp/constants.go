// Package dsp provides digital signal processing utilities and algorithms.
package dsp

// Engine limits and defaults shared by the pitch-shift delay core and its hosts.
const (
	// MaxDelayMs is the longest delay a voice can hold, which bounds the
	// lowest reachable pitch.
	MaxDelayMs = 500.0

	// MaxPolyphony is the number of voices in a bank
	MaxPolyphony = 16

	// MaxBlockSize is the largest block processed in one pass; hosts split
	// longer buffers.
	MaxBlockSize = 128

	// DefaultSlewSamples is the largest change of delay length per sample
	DefaultSlewSamples = 2.0

	// PitchBendSmoothingMs is the glide time of the shared pitch-bend smoother
	PitchBendSmoothingMs = 50.0

	// ReferenceNote and ReferenceFreq anchor equal temperament (A4 = 440 Hz)
	ReferenceNote = 69
	ReferenceFreq = 440.0

	// NoteCount is the size of the MIDI note space
	NoteCount = 128
)

// Parameter ranges and defaults
const (
	DefaultDry = 1.0
	DefaultWet = 0.5

	MinAttackMs     = 1.0
	MaxAttackMs     = 500.0
	DefaultAttackMs = 5.0

	MinReleaseMs     = 5.0
	MaxReleaseMs     = 500.0
	DefaultReleaseMs = 5.0

	MaxBendRange     = 24.0
	DefaultBendRange = 2.0

	MaxFeedback     = 1.0
	DefaultFeedback = 0.2

	MaxPortamentoMs     = 5000.0
	DefaultPortamentoMs = 0.0

	// PortamentoSkew is the exponent of the portamento control curve
	PortamentoSkew = 2.0
)

const (
	// Channel counts
	Mono   = 1
	Stereo = 2

	// Common sample rates
	SampleRate44k1 = 44100.0
	SampleRate48k  = 48000.0
	SampleRate96k  = 96000.0

	// Smoothing time for output gain changes
	GainSmoothingMs = 10.0

	// Small values for comparisons
	Epsilon = 1e-6
)

// MaxDelaySamples returns the delay line capacity for a sample rate: the
// maximum delay in samples plus one guard sample.
func MaxDelaySamples(sampleRate float64) int {
	return int(MaxDelayMs/1000*sampleRate) + 1
}
