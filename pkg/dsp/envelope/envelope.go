// Package envelope provides the linear amplitude envelope used by pitch-shift voices.
package envelope

import "math"

// Stage represents the current envelope stage
type Stage int

const (
	// StageOff is the idle stage; output is silent
	StageOff Stage = iota
	// StageAttack ramps linearly from 0 to 1
	StageAttack
	// StageSustain holds at 1
	StageSustain
	// StageRelease ramps linearly from 1 to 0
	StageRelease
)

// String returns the stage name
func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "off"
	}
}

// Envelope is an attack/sustain/release envelope with straight-line ramps.
// There is no decay stage; sustain is always full scale.
type Envelope struct {
	stage       Stage
	size        int
	samplesLeft int
}

// New creates an envelope in the off stage
func New() *Envelope {
	return &Envelope{}
}

// rampSize converts a ramp time to samples, never less than one.
func rampSize(ms, sampleRate float64) int {
	n := int(math.Ceil(ms / 1000 * sampleRate))
	if n < 1 {
		n = 1
	}
	return n
}

// Attack re-arms the attack ramp from whatever stage the envelope is in
func (e *Envelope) Attack(ms, sampleRate float64) {
	e.stage = StageAttack
	e.size = rampSize(ms, sampleRate)
	e.samplesLeft = e.size
}

// Release starts the release ramp. It does nothing if the envelope is
// already releasing or off.
func (e *Envelope) Release(ms, sampleRate float64) {
	if e.stage == StageRelease || e.stage == StageOff {
		return
	}
	e.stage = StageRelease
	e.size = rampSize(ms, sampleRate)
	e.samplesLeft = e.size
}

// Legato jumps straight to sustain without re-triggering the attack
func (e *Envelope) Legato() {
	e.stage = StageSustain
	e.samplesLeft = 0
}

// Next advances the envelope by one sample and returns its amplitude
func (e *Envelope) Next() float32 {
	switch e.stage {
	case StageAttack:
		e.samplesLeft--
		out := float32(e.size-e.samplesLeft) / float32(e.size)
		if e.samplesLeft <= 0 {
			e.samplesLeft = 0
			e.stage = StageSustain
		}
		return out
	case StageSustain:
		return 1
	case StageRelease:
		e.samplesLeft--
		out := 1 - float32(e.size-e.samplesLeft)/float32(e.size)
		if e.samplesLeft <= 0 {
			e.samplesLeft = 0
			e.stage = StageOff
		}
		return out
	default:
		return 0
	}
}

// IsPlaying reports whether the envelope is in any stage other than off
func (e *Envelope) IsPlaying() bool {
	return e.stage != StageOff
}

// Stage returns the current stage
func (e *Envelope) Stage() Stage {
	return e.stage
}

// Reset forces the envelope off immediately
func (e *Envelope) Reset() {
	e.stage = StageOff
	e.size = 0
	e.samplesLeft = 0
}
