// Package process provides the per-block processing context handed to a
// processor by its host.
package process

import (
	"github.com/justyntemme/phasey/pkg/dsp"
	"github.com/justyntemme/phasey/pkg/framework/param"
)

// Context carries one block of audio plus parameter access. It never
// allocates after NewContext.
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64

	// Pre-allocated work buffers
	workBuffer []float32
	tempBuffer []float32

	params *param.Registry
}

// NewContext creates a context whose scratch buffers hold maxBlockSize
// samples. Blocks longer than that must be split by the caller.
func NewContext(maxBlockSize int, params *param.Registry) *Context {
	return &Context{
		workBuffer: make([]float32, maxBlockSize),
		tempBuffer: make([]float32, maxBlockSize),
		params:     params,
	}
}

// MaxBlockSize returns the scratch buffer capacity.
func (c *Context) MaxBlockSize() int {
	return len(c.workBuffer)
}

// Param returns the current value of a parameter (0-1 normalized)
func (c *Context) Param(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetValue()
	}
	return 0
}

// ParamPlain returns the current plain value of a parameter
func (c *Context) ParamPlain(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	if len(c.Input) > 0 && len(c.Input[0]) > 0 {
		return len(c.Input[0])
	}
	if len(c.Output) > 0 && len(c.Output[0]) > 0 {
		return len(c.Output[0])
	}
	return 0
}

// NumInputChannels returns the number of input channels
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns the work buffer sized to the current block.
func (c *Context) WorkBuffer() []float32 {
	return c.workBuffer[:c.scratchLen()]
}

// TempBuffer returns the temp buffer sized to the current block.
func (c *Context) TempBuffer() []float32 {
	return c.tempBuffer[:c.scratchLen()]
}

func (c *Context) scratchLen() int {
	return min(c.NumSamples(), len(c.workBuffer))
}

// Stereo returns the block as two input and two output channels.
// A mono input feeds both sides; a missing input reads as silence from
// the work buffer. A mono output receives the left side only, the right
// side goes to the temp buffer. Missing outputs also use the temp buffer.
// All four slices share the length of the first input or output channel;
// the caller must keep the block within MaxBlockSize when a scratch
// buffer is substituted.
func (c *Context) Stereo() (inL, inR, outL, outR []float32) {
	n := c.NumSamples()

	switch len(c.Input) {
	case 0:
		inL = c.WorkBuffer()
		dsp.Clear(inL)
		inR = inL
	case 1:
		inL, inR = c.Input[0][:n], c.Input[0][:n]
	default:
		inL, inR = c.Input[0][:n], c.Input[1][:n]
	}

	switch len(c.Output) {
	case 0:
		outL, outR = c.TempBuffer(), c.TempBuffer()
	case 1:
		outL, outR = c.Output[0][:n], c.TempBuffer()
	default:
		outL, outR = c.Output[0][:n], c.Output[1][:n]
	}
	return inL, inR, outL, outR
}

// PassThrough copies input to output (for bypass)
func (c *Context) PassThrough() {
	numChannels := min(c.NumInputChannels(), c.NumOutputChannels())
	for ch := 0; ch < numChannels; ch++ {
		copy(c.Output[ch], c.Input[ch])
	}
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for ch := range c.Output {
		dsp.Clear(c.Output[ch])
	}
}

// SetParameter sets a normalized parameter value for the rest of the
// block. Unknown IDs are ignored.
func (c *Context) SetParameter(paramID uint32, value float64) {
	if p := c.params.Get(paramID); p != nil {
		p.SetValue(value)
	}
}
