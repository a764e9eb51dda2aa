// Package scene loads offline render descriptions: the input signal, the
// processor parameters and a timed list of performance events.
package scene

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/justyntemme/phasey/pkg/dsp"
	"github.com/justyntemme/phasey/pkg/dsp/oscillator"
	"github.com/justyntemme/phasey/pkg/midi"
	"github.com/justyntemme/phasey/pkg/phasey"
)

// Validation errors. Returned errors wrap one of these.
var (
	ErrInvalidSampleRate = errors.New("scene: invalid sample rate")
	ErrInvalidBlockSize  = errors.New("scene: invalid block size")
	ErrInvalidDuration   = errors.New("scene: invalid duration")
	ErrInvalidInput      = errors.New("scene: invalid input")
	ErrInvalidParam      = errors.New("scene: invalid parameter")
	ErrInvalidEvent      = errors.New("scene: invalid event")
)

// Defaults applied to fields a scene leaves out.
const (
	DefaultSampleRate = dsp.SampleRate48k
	DefaultBlockSize  = 256
	DefaultDuration   = 2.0
	DefaultFrequency  = 220.0
	DefaultAmplitude  = 0.5
	DefaultVelocity   = 100
)

// Scene is a complete offline render description.
type Scene struct {
	SampleRate float64 `yaml:"sample_rate"`
	BlockSize  int     `yaml:"block_size"`
	Duration   float64 `yaml:"duration"` // seconds
	Input      Input   `yaml:"input"`
	Params     Params  `yaml:"params"`
	Events     []Event `yaml:"events"`
}

// Input selects the signal fed to the processor: a WAV file or an
// oscillator.
type Input struct {
	File      string  `yaml:"file"`
	Waveform  string  `yaml:"waveform"`
	Frequency float64 `yaml:"frequency"`
	Amplitude float64 `yaml:"amplitude"`
	Seed      uint32  `yaml:"seed"`
}

// Params holds plain parameter values. Nil fields keep the processor's
// defaults.
type Params struct {
	Dry          *float64 `yaml:"dry"`
	Wet          *float64 `yaml:"wet"`
	AttackMs     *float64 `yaml:"attack_ms"`
	ReleaseMs    *float64 `yaml:"release_ms"`
	BendRange    *float64 `yaml:"bend_range"`
	Feedback     *float64 `yaml:"feedback"`
	Poly         *bool    `yaml:"poly"`
	PortamentoMs *float64 `yaml:"portamento_ms"`
}

// Event is one timed performance action. Exactly one of NoteOn, NoteOff,
// Bend, Sustain or AllNotesOff must be set.
type Event struct {
	At          float64  `yaml:"at"` // seconds from the start
	Channel     uint8    `yaml:"channel"`
	NoteOn      *uint8   `yaml:"note_on"`
	NoteOff     *uint8   `yaml:"note_off"`
	Velocity    *uint8   `yaml:"velocity"`
	Bend        *float64 `yaml:"bend"` // -1..1
	Sustain     *bool    `yaml:"sustain"`
	AllNotesOff bool     `yaml:"all_notes_off"`
}

// Load reads and validates a scene file. A relative input file path is
// resolved against the scene's directory.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Input.File != "" && !filepath.IsAbs(s.Input.File) {
		s.Input.File = filepath.Join(filepath.Dir(path), s.Input.File)
	}
	return s, nil
}

// Decode reads a scene, rejecting unknown fields, fills defaults and
// validates it.
func Decode(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scene
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scene: decode: %w", err)
	}
	s.setDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scene) setDefaults() {
	if s.SampleRate == 0 {
		s.SampleRate = DefaultSampleRate
	}
	if s.BlockSize == 0 {
		s.BlockSize = DefaultBlockSize
	}
	if s.Duration == 0 {
		s.Duration = DefaultDuration
	}
	if s.Input.File == "" {
		if s.Input.Waveform == "" {
			s.Input.Waveform = oscillator.WaveSine.String()
		}
		if s.Input.Frequency == 0 {
			s.Input.Frequency = DefaultFrequency
		}
		if s.Input.Amplitude == 0 {
			s.Input.Amplitude = DefaultAmplitude
		}
	}
	for i := range s.Events {
		if s.Events[i].NoteOn != nil && s.Events[i].Velocity == nil {
			v := uint8(DefaultVelocity)
			s.Events[i].Velocity = &v
		}
	}
}

// Validate checks ranges and event shapes.
func (s *Scene) Validate() error {
	if !(s.SampleRate >= 8000 && s.SampleRate <= 384000) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, s.SampleRate)
	}
	if s.BlockSize < 1 || s.BlockSize > 8192 {
		return fmt.Errorf("%w: %d", ErrInvalidBlockSize, s.BlockSize)
	}
	if !(s.Duration > 0) || math.IsInf(s.Duration, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, s.Duration)
	}
	if err := s.Input.validate(s.SampleRate); err != nil {
		return err
	}
	if err := s.Params.validate(); err != nil {
		return err
	}
	for i, e := range s.Events {
		if err := e.validate(s.Duration); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

func (in Input) validate(sampleRate float64) error {
	if in.File != "" {
		if in.Waveform != "" {
			return fmt.Errorf("%w: file and waveform are exclusive", ErrInvalidInput)
		}
		return nil
	}
	if _, err := oscillator.ParseWaveform(in.Waveform); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if !(in.Frequency > 0 && in.Frequency < sampleRate/2) {
		return fmt.Errorf("%w: frequency %v outside (0, %v)", ErrInvalidInput, in.Frequency, sampleRate/2)
	}
	if !(in.Amplitude > 0 && in.Amplitude <= 1) {
		return fmt.Errorf("%w: amplitude %v outside (0, 1]", ErrInvalidInput, in.Amplitude)
	}
	return nil
}

func (p Params) validate() error {
	check := func(name string, v *float64, lo, hi float64) error {
		if v != nil && !(*v >= lo && *v <= hi) {
			return fmt.Errorf("%w: %s %v outside [%v, %v]", ErrInvalidParam, name, *v, lo, hi)
		}
		return nil
	}
	return errors.Join(
		check("dry", p.Dry, 0, 1),
		check("wet", p.Wet, 0, 1),
		check("attack_ms", p.AttackMs, dsp.MinAttackMs, dsp.MaxAttackMs),
		check("release_ms", p.ReleaseMs, dsp.MinReleaseMs, dsp.MaxReleaseMs),
		check("bend_range", p.BendRange, 0, dsp.MaxBendRange),
		check("feedback", p.Feedback, 0, dsp.MaxFeedback),
		check("portamento_ms", p.PortamentoMs, 0, dsp.MaxPortamentoMs),
	)
}

// Apply sets every parameter the scene names on p.
func (p Params) Apply(proc *phasey.Processor) {
	set := func(id uint32, v *float64) {
		if v != nil {
			proc.SetParameter(id, *v)
		}
	}
	set(phasey.ParamDry, p.Dry)
	set(phasey.ParamWet, p.Wet)
	set(phasey.ParamAttack, p.AttackMs)
	set(phasey.ParamRelease, p.ReleaseMs)
	set(phasey.ParamBendRange, p.BendRange)
	set(phasey.ParamFeedback, p.Feedback)
	set(phasey.ParamPortamento, p.PortamentoMs)
	if p.Poly != nil {
		poly := 0.0
		if *p.Poly {
			poly = 1
		}
		proc.SetParameter(phasey.ParamPoly, poly)
	}
}

func (e Event) validate(duration float64) error {
	kinds := 0
	for _, set := range []bool{e.NoteOn != nil, e.NoteOff != nil, e.Bend != nil, e.Sustain != nil, e.AllNotesOff} {
		if set {
			kinds++
		}
	}
	switch {
	case kinds != 1:
		return fmt.Errorf("%w: need exactly one of note_on, note_off, bend, sustain, all_notes_off", ErrInvalidEvent)
	case !(e.At >= 0 && e.At <= duration):
		return fmt.Errorf("%w: at %v outside [0, %v]", ErrInvalidEvent, e.At, duration)
	case e.Channel > 15:
		return fmt.Errorf("%w: channel %d", ErrInvalidEvent, e.Channel)
	case e.NoteOn != nil && *e.NoteOn > 127, e.NoteOff != nil && *e.NoteOff > 127:
		return fmt.Errorf("%w: note outside 0..127", ErrInvalidEvent)
	case e.Velocity != nil && (*e.Velocity < 1 || *e.Velocity > 127):
		return fmt.Errorf("%w: velocity %d outside 1..127", ErrInvalidEvent, *e.Velocity)
	case e.Bend != nil && !(*e.Bend >= -1 && *e.Bend <= 1):
		return fmt.Errorf("%w: bend %v outside [-1, 1]", ErrInvalidEvent, *e.Bend)
	}
	return nil
}

// Frames returns the render length in frames.
func (s *Scene) Frames() int {
	return int(math.Round(s.Duration * s.SampleRate))
}

// Frame returns the frame an event falls on.
func (s *Scene) Frame(e Event) int {
	return int(math.Round(e.At * s.SampleRate))
}

// Timeline returns the events in time order. Events at the same time keep
// their file order.
func (s *Scene) Timeline() []Event {
	events := slices.Clone(s.Events)
	slices.SortStableFunc(events, func(a, b Event) int {
		return cmp.Compare(a.At, b.At)
	})
	return events
}

// MIDI converts the event to a typed MIDI event at offset.
func (e Event) MIDI(offset int32) midi.Event {
	base := midi.BaseEvent{EventChannel: e.Channel, Offset: offset}
	switch {
	case e.NoteOn != nil:
		vel := uint8(DefaultVelocity)
		if e.Velocity != nil {
			vel = *e.Velocity
		}
		return midi.NoteOnEvent{BaseEvent: base, NoteNumber: *e.NoteOn, Velocity: vel}
	case e.NoteOff != nil:
		return midi.NoteOffEvent{BaseEvent: base, NoteNumber: *e.NoteOff}
	case e.Bend != nil:
		v := math.Round(*e.Bend * 8192)
		return midi.PitchBendEvent{BaseEvent: base, Value: int16(min(max(v, -8192), 8191))}
	case e.Sustain != nil:
		var v uint8
		if *e.Sustain {
			v = 127
		}
		return midi.ControlChangeEvent{BaseEvent: base, Controller: midi.CCSustain, Value: v}
	default:
		return midi.ControlChangeEvent{BaseEvent: base, Controller: midi.CCAllNotesOff}
	}
}

// Oscillator builds the configured input oscillator. It returns nil for a
// file input.
func (s *Scene) Oscillator() *oscillator.Oscillator {
	if s.Input.File != "" {
		return nil
	}
	w, _ := oscillator.ParseWaveform(s.Input.Waveform)
	o := oscillator.New(s.SampleRate)
	o.SetWaveform(w)
	o.SetFrequency(s.Input.Frequency)
	o.SetAmplitude(float32(s.Input.Amplitude))
	if s.Input.Seed != 0 {
		o.SetSeed(s.Input.Seed)
	}
	return o
}
