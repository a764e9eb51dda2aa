// Package plugin provides the processor contract hosts drive and a base
// implementation that removes the boilerplate from concrete processors.
package plugin

import (
	"io"

	"github.com/justyntemme/phasey/pkg/framework/param"
	"github.com/justyntemme/phasey/pkg/framework/process"
	"github.com/justyntemme/phasey/pkg/framework/state"
)

// Processor handles the actual audio processing
type Processor interface {
	// Initialize is called before processing and whenever the sample rate
	// or maximum block size changes.
	Initialize(sampleRate float64, maxBlockSize int32) error

	// ProcessAudio processes one block. It must not allocate.
	ProcessAudio(ctx *process.Context)

	// GetParameters returns the parameter registry
	GetParameters() *param.Registry

	// SetActive is called when processing starts/stops
	SetActive(active bool) error

	// GetLatencySamples returns the processor's latency in samples
	GetLatencySamples() int32

	// GetTailSamples returns the tail length in samples
	GetTailSamples() int32
}

// MIDIReceiver is implemented by processors that accept raw channel
// messages. offset is the frame within the next block.
type MIDIReceiver interface {
	HandleMIDI(data [3]byte, offset int32) bool
}

// BaseProcessor provides common functionality for audio processors
type BaseProcessor struct {
	params         *param.Registry
	state          *state.Manager
	sampleRate     float64
	maxBlockSize   int32
	inputChannels  int
	outputChannels int
	active         bool

	// Optional callbacks for customization
	onInitialize func(sampleRate float64, maxBlockSize int32) error
	onSetActive  func(active bool) error
	onReset      func()
}

// NewBaseProcessor creates a base processor with the given channel counts.
func NewBaseProcessor(inputChannels, outputChannels int) *BaseProcessor {
	params := param.NewRegistry()
	return &BaseProcessor{
		params:         params,
		state:          state.NewManager(params),
		inputChannels:  inputChannels,
		outputChannels: outputChannels,
	}
}

// Initialize implements the Processor interface
func (b *BaseProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	b.sampleRate = sampleRate
	b.maxBlockSize = maxBlockSize

	if b.onInitialize != nil {
		return b.onInitialize(sampleRate, maxBlockSize)
	}
	return nil
}

// GetParameters implements the Processor interface
func (b *BaseProcessor) GetParameters() *param.Registry {
	return b.params
}

// SetActive implements the Processor interface. Deactivation runs the
// reset callback before the activation callback.
func (b *BaseProcessor) SetActive(active bool) error {
	if !active && b.onReset != nil {
		b.onReset()
	}
	b.active = active

	if b.onSetActive != nil {
		return b.onSetActive(active)
	}
	return nil
}

// IsActive reports the last SetActive state.
func (b *BaseProcessor) IsActive() bool {
	return b.active
}

// GetLatencySamples implements the Processor interface - default no latency
func (b *BaseProcessor) GetLatencySamples() int32 {
	return 0
}

// GetTailSamples implements the Processor interface - default no tail
func (b *BaseProcessor) GetTailSamples() int32 {
	return 0
}

// SampleRate returns the current sample rate
func (b *BaseProcessor) SampleRate() float64 {
	return b.sampleRate
}

// MaxBlockSize returns the maximum block size passed to Initialize.
func (b *BaseProcessor) MaxBlockSize() int32 {
	return b.maxBlockSize
}

// Channels returns the input and output channel counts.
func (b *BaseProcessor) Channels() (in, out int) {
	return b.inputChannels, b.outputChannels
}

// Parameters returns the parameter registry for adding parameters
func (b *BaseProcessor) Parameters() *param.Registry {
	return b.params
}

// SaveState writes the parameter values to w.
func (b *BaseProcessor) SaveState(w io.Writer) error {
	return b.state.Save(w)
}

// LoadState restores parameter values written by SaveState.
func (b *BaseProcessor) LoadState(r io.Reader) error {
	return b.state.Load(r)
}

// State returns the state manager.
func (b *BaseProcessor) State() *state.Manager {
	return b.state
}

// OnInitialize sets a callback for initialization
func (b *BaseProcessor) OnInitialize(fn func(sampleRate float64, maxBlockSize int32) error) {
	b.onInitialize = fn
}

// OnSetActive sets a callback for activation/deactivation
func (b *BaseProcessor) OnSetActive(fn func(active bool) error) {
	b.onSetActive = fn
}

// OnReset sets a callback for when the processor should reset its state
func (b *BaseProcessor) OnReset(fn func()) {
	b.onReset = fn
}
