package main

import (
	"fmt"

	"github.com/justyntemme/phasey/pkg/dsp"
	"github.com/justyntemme/phasey/pkg/framework/debug"
	"github.com/justyntemme/phasey/pkg/framework/process"
	"github.com/justyntemme/phasey/pkg/midi"
	"github.com/justyntemme/phasey/pkg/phasey"
	"github.com/justyntemme/phasey/pkg/scene"
)

// stereo is a pair of equally long channel buffers.
type stereo struct {
	L, R []float32
}

func newStereo(frames int) stereo {
	return stereo{L: make([]float32, frames), R: make([]float32, frames)}
}

// Frames returns the channel length.
func (s stereo) Frames() int { return len(s.L) }

// result is a finished render with its measurements.
type result struct {
	Output      stereo
	Analysis    debug.AnalysisResult
	Correlation float32
	Profile     *debug.BlockProfiler
	Events      int
	Rejected    int
}

// synthesize fills a stereo buffer from the scene's oscillator. Both
// channels carry the same signal.
func synthesize(s *scene.Scene) stereo {
	in := newStereo(s.Frames())
	osc := s.Oscillator()
	osc.Process(in.L)
	copy(in.R, in.L)
	return in
}

// render drives proc through the scene block by block. proc must be
// initialized and active. Events are sent as raw channel messages at their
// frame offset within the block; events on the final frame boundary go to
// the last block.
func render(s *scene.Scene, proc *phasey.Processor, in stereo, log *debug.Logger) (*result, error) {
	frames := s.Frames()
	if in.Frames() < frames {
		padded := newStereo(frames)
		copy(padded.L, in.L)
		copy(padded.R, in.R)
		in = padded
	}

	res := &result{
		Output:  newStereo(frames),
		Profile: debug.NewBlockProfiler(s.SampleRate),
	}

	ctx := process.NewContext(s.BlockSize, proc.GetParameters())
	ctx.SampleRate = s.SampleRate
	ctx.Input = make([][]float32, 2)
	ctx.Output = make([][]float32, 2)
	run := func() { proc.ProcessAudio(ctx) }

	timeline := s.Timeline()
	next := 0
	for start := 0; start < frames; start += s.BlockSize {
		end := min(start+s.BlockSize, frames)

		for ; next < len(timeline); next++ {
			frame := s.Frame(timeline[next])
			if frame >= end && end != frames {
				break
			}
			offset := int32(min(frame, end-1) - start)
			data, ok := midi.Encode(timeline[next].MIDI(offset))
			if !ok {
				return nil, fmt.Errorf("event %d: cannot encode", next)
			}
			res.Events++
			if !proc.HandleMIDI(data, offset) {
				res.Rejected++
				log.With("frame", frame).Warnf("event rejected: % x", data)
			}
		}

		ctx.Input[0], ctx.Input[1] = in.L[start:end], in.R[start:end]
		ctx.Output[0], ctx.Output[1] = res.Output.L[start:end], res.Output.R[start:end]
		res.Profile.Measure(end-start, run)
	}

	analyzer := debug.NewAudioAnalyzer()
	res.Analysis = analyzer.Merge(analyzer.Analyze(res.Output.L), analyzer.Analyze(res.Output.R))
	if res.Analysis.HasNaN() {
		return res, fmt.Errorf("render produced %d non-finite samples", res.Analysis.NaNCount)
	}

	corr, err := debug.Correlation(res.Output.L, res.Output.R)
	if err != nil {
		return res, err
	}
	res.Correlation = corr

	dsp.Clip(res.Output.L, 1)
	dsp.Clip(res.Output.R, 1)
	return res, nil
}
