package voice

import (
	"fmt"

	"github.com/justyntemme/phasey/pkg/dsp"
	"github.com/justyntemme/phasey/pkg/framework/param"
	"github.com/justyntemme/phasey/pkg/midi"
)

// FrameParams are the continuous controls sampled once per frame.
type FrameParams struct {
	Dry          float32
	Wet          float32
	Feedback     float32
	BendRange    float64 // semitones at full wheel deflection
	PortamentoMs float64
}

// Settings are the controls read when a note event arrives.
type Settings struct {
	AttackMs  float64
	ReleaseMs float64
	Poly      bool
}

// Bank is a fixed set of voices plus the state shared between them: the
// smoothed pitch wheel and the sustain pedal. It is driven from a single
// goroutine and never allocates after construction.
type Bank struct {
	sampleRate float64
	voices     []*Voice
	bend       *param.Smoother

	sustain     bool
	pending     [dsp.NoteCount]bool
	pendingList [dsp.NoteCount]uint8
	pendingN    int

	dropped int
}

// NewBank creates a bank of polyphony idle voices.
func NewBank(sampleRate float64, polyphony int) (*Bank, error) {
	if polyphony < 1 {
		return nil, fmt.Errorf("voice: polyphony must be >= 1: %d", polyphony)
	}

	voices := make([]*Voice, polyphony)
	for i := range voices {
		v, err := New(sampleRate, dsp.MaxDelayMs, dsp.DefaultSlewSamples)
		if err != nil {
			return nil, err
		}
		voices[i] = v
	}

	bend := param.NewSmoother(param.ExponentialSmoothing, 0)
	bend.SetThreshold(1e-6)
	bend.SetSpeedMs(sampleRate, dsp.PitchBendSmoothingMs)

	return &Bank{
		sampleRate: sampleRate,
		voices:     voices,
		bend:       bend,
	}, nil
}

// NoteOn starts a note. In poly mode it takes the first idle voice and drops
// the note when none is free. In mono mode it glides the first sounding voice
// to the note, or plays it on the first voice if nothing is sounding. It
// reports whether a voice took the note.
func (b *Bank) NoteOn(note, velocity uint8, attackMs float64, poly bool) bool {
	vel := float32(velocity) / 127

	if !poly {
		for _, v := range b.voices {
			if v.IsPlaying() {
				v.ChangeNote(note, vel)
				return true
			}
		}
		b.voices[0].Play(note, vel, attackMs)
		return true
	}

	for _, v := range b.voices {
		if !v.IsPlaying() {
			v.Play(note, vel, attackMs)
			return true
		}
	}
	b.dropped++
	return false
}

// NoteOff releases every sounding voice playing note, or defers the release
// while the sustain pedal is held.
func (b *Bank) NoteOff(note uint8, releaseMs float64) {
	if b.sustain {
		if !b.pending[note&0x7F] {
			b.pending[note&0x7F] = true
			b.pendingList[b.pendingN] = note & 0x7F
			b.pendingN++
		}
		return
	}
	b.stopNote(note, releaseMs)
}

func (b *Bank) stopNote(note uint8, releaseMs float64) {
	for _, v := range b.voices {
		if v.IsPlaying() && v.Note() == note {
			v.Stop(releaseMs)
		}
	}
}

// Sustain sets the pedal state. Lifting the pedal releases each deferred
// note once.
func (b *Bank) Sustain(pressed bool, releaseMs float64) {
	if pressed {
		b.sustain = true
		return
	}

	b.sustain = false
	for i := 0; i < b.pendingN; i++ {
		note := b.pendingList[i]
		b.stopNote(note, releaseMs)
		b.pending[note] = false
	}
	b.pendingN = 0
}

// AllNotesOff releases every sounding voice and forgets deferred releases.
func (b *Bank) AllNotesOff(releaseMs float64) {
	for _, v := range b.voices {
		v.Stop(releaseMs)
	}
	b.clearPending()
}

// PitchBend sets the wheel target in [-1, 1].
func (b *Bank) PitchBend(value float64) {
	b.bend.SetTarget(value)
}

// ProcessEvent routes a MIDI event to the matching bank operation.
func (b *Bank) ProcessEvent(event midi.Event, s Settings) {
	switch e := event.(type) {
	case midi.NoteOnEvent:
		if e.Velocity > 0 {
			b.NoteOn(e.NoteNumber, e.Velocity, s.AttackMs, s.Poly)
		} else {
			b.NoteOff(e.NoteNumber, s.ReleaseMs)
		}
	case midi.NoteOffEvent:
		b.NoteOff(e.NoteNumber, s.ReleaseMs)
	case midi.PitchBendEvent:
		b.PitchBend(e.NormalizedValue())
	case midi.ControlChangeEvent:
		switch e.Controller {
		case midi.CCSustain:
			b.Sustain(e.Pressed(), s.ReleaseMs)
		case midi.CCAllNotesOff:
			b.AllNotesOff(s.ReleaseMs)
		case midi.CCAllSoundOff:
			b.Reset()
		}
	}
}

// Wet advances every sounding voice by one frame and returns the summed
// voice output. Each voice is fed the input plus the wet sum accumulated so
// far, scaled by feedback.
func (b *Bank) Wet(inL, inR float32, p FrameParams) (float32, float32) {
	bend := b.bend.Next() * p.BendRange

	var wetL, wetR float32
	for _, v := range b.voices {
		if !v.IsPlaying() {
			continue
		}
		v.SetPortamento(b.sampleRate, p.PortamentoMs)
		l, r := v.Read(bend)
		wetL += l
		wetR += r
		v.Push(inL+wetL*p.Feedback, inR+wetR*p.Feedback)
	}
	return wetL, wetR
}

// Mix advances one frame and returns input*dry + wet*wetGain.
func (b *Bank) Mix(inL, inR float32, p FrameParams) (float32, float32) {
	wetL, wetR := b.Wet(inL, inR, p)
	return inL*p.Dry + wetL*p.Wet, inR*p.Dry + wetR*p.Wet
}

// Reset silences every voice and clears pedal and wheel state.
func (b *Bank) Reset() {
	for _, v := range b.voices {
		v.Reset()
	}
	b.sustain = false
	b.clearPending()
	b.bend.Reset(0)
}

func (b *Bank) clearPending() {
	for i := 0; i < b.pendingN; i++ {
		b.pending[b.pendingList[i]] = false
	}
	b.pendingN = 0
}

// ActiveCount returns the number of sounding voices.
func (b *Bank) ActiveCount() int {
	count := 0
	for _, v := range b.voices {
		if v.IsPlaying() {
			count++
		}
	}
	return count
}

// Dropped returns how many notes were lost because every voice was busy.
func (b *Bank) Dropped() int {
	return b.dropped
}

// Sustained reports whether the sustain pedal is held.
func (b *Bank) Sustained() bool {
	return b.sustain
}

// PendingCount returns the number of distinct notes awaiting pedal release.
func (b *Bank) PendingCount() int {
	return b.pendingN
}

// Bend returns the current smoothed wheel position.
func (b *Bank) Bend() float64 {
	return b.bend.Value()
}

// Voice returns the voice in slot i.
func (b *Bank) Voice(i int) *Voice {
	return b.voices[i]
}

// Polyphony returns the number of voice slots.
func (b *Bank) Polyphony() int {
	return len(b.voices)
}
