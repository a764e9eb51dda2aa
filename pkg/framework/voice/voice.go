// Package voice implements pitch-shifting delay voices and the bank that
// routes notes to them.
package voice

import (
	"fmt"
	"math"

	"github.com/justyntemme/phasey/pkg/dsp"
	"github.com/justyntemme/phasey/pkg/dsp/delay"
	"github.com/justyntemme/phasey/pkg/dsp/envelope"
	"github.com/justyntemme/phasey/pkg/framework/param"
)

// targetThreshold is fine enough for delays measured in seconds; the
// shortest note delay is under 0.1 ms.
const targetThreshold = 1e-9

// MidiToSeconds converts a note number to the delay length whose Doppler
// transposition lands on that note, with note 69 at 1/440 s.
func MidiToSeconds(note uint8) float64 {
	return math.Exp2(float64(dsp.ReferenceNote-int(note))/12) / dsp.ReferenceFreq
}

// Voice is one pitch-shifted copy of the input: a stereo pair of resampling
// delay lines read at a length set by the note, shaped by an envelope.
type Voice struct {
	sampleRate float64
	maxDelay   float64 // samples

	note     uint8
	velocity float32

	target *param.Smoother // delay length in seconds
	left   *delay.Resampling
	right  *delay.Resampling
	env    *envelope.Envelope
}

// New creates an idle voice able to delay up to maxDelayMs. slew is the
// largest change of delay length per sample, in samples.
func New(sampleRate, maxDelayMs, slew float64) (*Voice, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("voice: sample rate must be > 0: %v", sampleRate)
	}
	if maxDelayMs <= 0 {
		return nil, fmt.Errorf("voice: max delay must be > 0: %v", maxDelayMs)
	}

	capacity := int(maxDelayMs/1000*sampleRate) + 1
	left, err := delay.NewResampling(capacity, slew)
	if err != nil {
		return nil, fmt.Errorf("voice: left delay: %w", err)
	}
	right, err := delay.NewResampling(capacity, slew)
	if err != nil {
		return nil, fmt.Errorf("voice: right delay: %w", err)
	}

	target := param.NewSmoother(param.ExponentialSmoothing, 0)
	target.SetThreshold(targetThreshold)

	return &Voice{
		sampleRate: sampleRate,
		maxDelay:   float64(capacity - 1),
		target:     target,
		left:       left,
		right:      right,
		env:        envelope.New(),
	}, nil
}

// Play starts a note: the delay length jumps to the note, both delay lines
// forget the previous note and the attack ramp begins.
func (v *Voice) Play(note uint8, velocity float32, attackMs float64) {
	v.note = note
	v.velocity = velocity
	v.target.Reset(MidiToSeconds(note))
	v.left.Clear()
	v.right.Clear()
	v.env.Attack(attackMs, v.sampleRate)
}

// Stop starts the release ramp.
func (v *Voice) Stop(releaseMs float64) {
	v.env.Release(releaseMs, v.sampleRate)
}

// ChangeNote glides a sounding voice to a new note without retriggering.
func (v *Voice) ChangeNote(note uint8, velocity float32) {
	v.note = note
	v.velocity = velocity
	v.env.Legato()
	v.target.SetTarget(MidiToSeconds(note))
}

// SetPortamento sets the glide time used by ChangeNote.
func (v *Voice) SetPortamento(sampleRate, ms float64) {
	v.target.SetSpeedMs(sampleRate, ms)
}

// Read produces one stereo output sample. bend is in semitones.
func (v *Voice) Read(bend float64) (float32, float32) {
	seconds := v.target.Next()

	// A shorter delay reads faster and sounds higher.
	length := seconds * v.sampleRate * math.Exp2(-bend/12)
	if length > v.maxDelay {
		length = v.maxDelay
	} else if length < 1 {
		length = 1
	}

	l := v.left.Pop(length)
	r := v.right.Pop(length)
	a := v.env.Next()
	return l * a, r * a
}

// Push feeds one stereo input sample into the delay lines.
func (v *Voice) Push(l, r float32) {
	v.left.Push(l)
	v.right.Push(r)
}

// IsPlaying reports whether the envelope is still sounding.
func (v *Voice) IsPlaying() bool {
	return v.env.IsPlaying()
}

// Note returns the current note number.
func (v *Voice) Note() uint8 {
	return v.note
}

// Velocity returns the note velocity in [0, 1].
func (v *Voice) Velocity() float32 {
	return v.velocity
}

// Stage returns the envelope stage.
func (v *Voice) Stage() envelope.Stage {
	return v.env.Stage()
}

// TargetSeconds returns the current smoothed delay length in seconds.
func (v *Voice) TargetSeconds() float64 {
	return v.target.Value()
}

// Reset silences the voice immediately and empties its delay lines.
func (v *Voice) Reset() {
	v.env.Reset()
	v.left.Clear()
	v.right.Clear()
}
