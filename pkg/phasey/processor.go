// Package phasey is the polyphonic pitch-shifting delay processor: each
// held note replays the input through its own delay line, retuned by the
// note's pitch, and the voices are mixed back with the dry signal.
package phasey

import (
	"fmt"
	"math"

	"github.com/justyntemme/phasey/pkg/dsp"
	"github.com/justyntemme/phasey/pkg/framework/debug"
	"github.com/justyntemme/phasey/pkg/framework/param"
	"github.com/justyntemme/phasey/pkg/framework/plugin"
	"github.com/justyntemme/phasey/pkg/framework/process"
	"github.com/justyntemme/phasey/pkg/framework/voice"
	"github.com/justyntemme/phasey/pkg/midi"
)

// DefaultQueueCapacity is the number of MIDI events one block can carry.
const DefaultQueueCapacity = 512

// Info describes the processor to hosts.
var Info = plugin.Info{
	ID:       "com.justyntemme.phasey",
	Name:     "Phasey",
	Version:  "1.0.0",
	Vendor:   "justyntemme",
	Category: "Fx|Delay|Pitch Shift",
}

var (
	_ plugin.Processor    = (*Processor)(nil)
	_ plugin.MIDIReceiver = (*Processor)(nil)
)

// Processor owns the voice bank, the block's event queue and the
// parameters. HandleMIDI, ProcessAudio and Reset must be called from one
// goroutine; parameter values may be written from any goroutine.
type Processor struct {
	*plugin.BaseProcessor

	log           *debug.Logger
	polyphony     int
	queueCapacity int

	bank  *voice.Bank
	queue *midi.Queue

	dry, wet, feedback *param.SmoothedParameter
	attack, release    *param.Parameter
	bendRange, poly    *param.Parameter
	portamento         *param.Parameter

	// Per-chunk scratch, dsp.MaxBlockSize long
	dryL, dryR []float32
	wetL, wetR []float32
	dryGain    []float32
	wetGain    []float32

	droppedNotes  int
	droppedEvents int
}

// Option configures a Processor.
type Option func(*Processor)

// WithPolyphony sets the number of voices.
func WithPolyphony(n int) Option {
	return func(p *Processor) { p.polyphony = n }
}

// WithLogger sets the logger used outside the audio path.
func WithLogger(l *debug.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// WithQueueCapacity sets how many MIDI events one block can carry.
func WithQueueCapacity(n int) Option {
	return func(p *Processor) { p.queueCapacity = n }
}

// New creates a stereo processor with its parameters registered. Call
// Initialize before processing.
func New(opts ...Option) *Processor {
	p := &Processor{
		BaseProcessor: plugin.NewBaseProcessor(dsp.Stereo, dsp.Stereo),
		log:           debug.Default().WithPrefix("phasey"),
		polyphony:     dsp.MaxPolyphony,
		queueCapacity: DefaultQueueCapacity,
		dryL:          make([]float32, dsp.MaxBlockSize),
		dryR:          make([]float32, dsp.MaxBlockSize),
		wetL:          make([]float32, dsp.MaxBlockSize),
		wetR:          make([]float32, dsp.MaxBlockSize),
		dryGain:       make([]float32, dsp.MaxBlockSize),
		wetGain:       make([]float32, dsp.MaxBlockSize),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.initializeParameters()
	p.OnInitialize(p.initialize)
	p.OnSetActive(p.setActive)
	p.OnReset(p.Reset)
	return p
}

func (p *Processor) initialize(sampleRate float64, maxBlockSize int32) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("phasey: invalid sample rate: %v", sampleRate)
	}
	if maxBlockSize < 1 {
		return fmt.Errorf("phasey: max block size must be >= 1: %d", maxBlockSize)
	}

	bank, err := voice.NewBank(sampleRate, p.polyphony)
	if err != nil {
		return fmt.Errorf("phasey: %w", err)
	}
	p.bank = bank
	p.queue = midi.NewQueue(p.queueCapacity)

	for _, sp := range []*param.SmoothedParameter{p.dry, p.wet, p.feedback} {
		sp.UpdateSampleRate(sampleRate, dsp.GainSmoothingMs)
		sp.Snap()
	}

	p.log.With("sample_rate", sampleRate).
		With("max_block", maxBlockSize).
		With("voices", p.polyphony).
		Infof("initialized")
	return nil
}

func (p *Processor) setActive(active bool) error {
	if p.bank == nil {
		return fmt.Errorf("phasey: SetActive(%t) before Initialize", active)
	}
	if active {
		p.Reset()
		p.droppedNotes = p.bank.Dropped()
		p.droppedEvents = p.queue.Dropped()
		p.log.Debugf("activated")
		return nil
	}

	notes := p.bank.Dropped() - p.droppedNotes
	events := p.queue.Dropped() - p.droppedEvents
	l := p.log.With("dropped_notes", notes).With("dropped_events", events)
	if notes > 0 || events > 0 {
		l.Warnf("deactivated")
	} else {
		l.Debugf("deactivated")
	}
	return nil
}

// Reset silences every voice, discards queued events and snaps the
// smoothed gains to their current values.
func (p *Processor) Reset() {
	if p.bank != nil {
		p.bank.Reset()
	}
	if p.queue != nil {
		p.queue.Clear()
	}
	p.dry.Snap()
	p.wet.Snap()
	p.feedback.Snap()
}

// HandleMIDI decodes a raw channel message and queues it for the next
// block at frame offset. It reports false for messages the processor
// ignores and when the queue is full.
func (p *Processor) HandleMIDI(data [3]byte, offset int32) bool {
	e, ok := midi.Decode(data, offset)
	if !ok {
		return false
	}
	return p.AddEvent(e)
}

// AddEvent queues a decoded event for the next block.
func (p *Processor) AddEvent(e midi.Event) bool {
	if p.queue == nil {
		return false
	}
	return p.queue.Add(e)
}

// ProcessAudio renders one block. Events apply at their frame; events
// offset past the end of the block apply after its last frame. Blocks
// longer than dsp.MaxBlockSize are processed in chunks.
func (p *Processor) ProcessAudio(ctx *process.Context) {
	if !p.IsActive() || p.bank == nil {
		ctx.PassThrough()
		return
	}

	n := ctx.NumSamples()
	inL, inR, outL, outR := ctx.Stereo()
	for start := 0; start < n; start += dsp.MaxBlockSize {
		end := min(start+dsp.MaxBlockSize, n)
		p.processChunk(inL[start:end], inR[start:end], outL[start:end], outR[start:end], int32(start))
	}

	p.applyEvents(math.MaxInt32)
	p.queue.Clear()
}

func (p *Processor) processChunk(inL, inR, outL, outR []float32, offset int32) {
	m := len(inL)
	dryL, dryR := p.dryL[:m], p.dryR[:m]
	wetL, wetR := p.wetL[:m], p.wetR[:m]
	dryGain, wetGain := p.dryGain[:m], p.wetGain[:m]

	// Inputs may alias outputs.
	copy(dryL, inL)
	copy(dryR, inR)

	fp := voice.FrameParams{
		BendRange:    p.bendRange.GetPlainValue(),
		PortamentoMs: p.portamento.GetPlainValue(),
	}
	for i := 0; i < m; i++ {
		p.applyEvents(offset + int32(i))
		dryGain[i] = float32(p.dry.GetSmoothedValue())
		wetGain[i] = float32(p.wet.GetSmoothedValue())
		fp.Feedback = float32(p.feedback.GetSmoothedValue())
		wetL[i], wetR[i] = p.bank.Wet(dryL[i], dryR[i], fp)
	}

	dsp.ApplyGainRamp(dryL, dryGain)
	dsp.ApplyGainRamp(dryR, dryGain)
	dsp.ApplyGainRamp(wetL, wetGain)
	dsp.ApplyGainRamp(wetR, wetGain)
	dsp.Add(dryL, wetL)
	dsp.Add(dryR, wetR)

	copy(outL, dryL)
	copy(outR, dryR)
}

// applyEvents routes every queued event at or before frame to the bank.
func (p *Processor) applyEvents(frame int32) {
	for {
		e, ok := p.queue.Next(frame)
		if !ok {
			return
		}
		p.bank.ProcessEvent(e, p.settings())
	}
}

func (p *Processor) settings() voice.Settings {
	return voice.Settings{
		AttackMs:  p.attack.GetPlainValue(),
		ReleaseMs: p.release.GetPlainValue(),
		Poly:      p.poly.GetPlainValue() >= 0.5,
	}
}

// GetTailSamples returns the longest delay plus the current release time.
func (p *Processor) GetTailSamples() int32 {
	ms := dsp.MaxDelayMs + p.release.GetPlainValue()
	return int32(math.Ceil(ms / 1000 * p.SampleRate()))
}

// Bank returns the voice bank, or nil before Initialize.
func (p *Processor) Bank() *voice.Bank {
	return p.bank
}

// PendingEvents returns the number of events queued for the next block.
func (p *Processor) PendingEvents() int {
	if p.queue == nil {
		return 0
	}
	return p.queue.Len()
}
