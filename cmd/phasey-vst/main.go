//go:build plugin

// Command phasey-vst builds the pitch-shifting delay as a VST2 effect:
//
//	go build -buildmode=c-shared -tags plugin -o phasey.so ./cmd/phasey-vst
package main

import (
	"github.com/justyntemme/phasey/pkg/dsp"
	"github.com/justyntemme/phasey/pkg/framework/debug"
	"github.com/justyntemme/phasey/pkg/framework/process"
	"github.com/justyntemme/phasey/pkg/phasey"
	"pipelined.dev/audio/vst2"
)

const defaultBlockSize = 1024

// shell adapts a Processor to the host's callbacks. The host calls process
// and events from its audio thread and everything else from its main
// thread, never concurrently with process.
type shell struct {
	proc       *phasey.Processor
	ctx        *process.Context
	log        *debug.Logger
	sampleRate float64
	blockSize  int
}

func newShell() *shell {
	log := debug.Default().WithPrefix("phasey-vst")
	return &shell{
		proc:       phasey.New(phasey.WithLogger(log)),
		log:        log,
		sampleRate: dsp.SampleRate44k1,
		blockSize:  defaultBlockSize,
	}
}

// restart re-initializes the processor for the current rate and block
// size and activates it.
func (s *shell) restart() {
	if s.proc.IsActive() {
		if err := s.proc.SetActive(false); err != nil {
			s.log.Errorf("deactivate: %v", err)
		}
	}
	if err := s.proc.Initialize(s.sampleRate, int32(s.blockSize)); err != nil {
		s.log.Errorf("initialize: %v", err)
		return
	}
	s.ctx = process.NewContext(s.blockSize, s.proc.GetParameters())
	s.ctx.SampleRate = s.sampleRate
	s.ctx.Input = make([][]float32, 2)
	s.ctx.Output = make([][]float32, 2)
	if err := s.proc.SetActive(true); err != nil {
		s.log.Errorf("activate: %v", err)
	}
}

func (s *shell) process(in, out vst2.FloatBuffer) {
	if s.ctx == nil {
		return
	}
	s.ctx.Input[0], s.ctx.Input[1] = in.Channel(0), in.Channel(1)
	s.ctx.Output[0], s.ctx.Output[1] = out.Channel(0), out.Channel(1)
	s.proc.ProcessAudio(s.ctx)
}

func (s *shell) events(ev *vst2.EventsPtr) {
	for i := 0; i < ev.NumEvents(); i++ {
		if e, ok := ev.Event(i).(*vst2.MIDIEvent); ok {
			s.proc.HandleMIDI(e.Data, e.DeltaFrames)
		}
	}
}

func init() {
	vst2.PluginAllocator = func(h vst2.Host) (vst2.Plugin, vst2.Dispatcher) {
		s := newShell()
		s.restart()

		version, err := phasey.Info.VersionNumber()
		if err != nil {
			s.log.Warnf("version: %v", err)
		}
		return vst2.Plugin{
				UniqueID:         phasey.Info.UniqueID(),
				Version:          version,
				InputChannels:    dsp.Stereo,
				OutputChannels:   dsp.Stereo,
				Name:             phasey.Info.Name,
				Vendor:           phasey.Info.Vendor,
				Category:         vst2.PluginCategoryEffect,
				ProcessFloatFunc: s.process,
			}, vst2.Dispatcher{
				CanDoFunc: func(pcds vst2.PluginCanDoString) vst2.CanDoResponse {
					switch pcds {
					case vst2.PluginCanReceiveEvents, vst2.PluginCanReceiveMIDIEvent:
						return vst2.YesCanDo
					}
					return vst2.NoCanDo
				},
				ProcessEventsFunc: s.events,
				SetSampleRateFunc: func(rate float32) {
					s.sampleRate = float64(rate)
					s.restart()
				},
				SetBufferSizeFunc: func(size int) {
					s.blockSize = max(size, 1)
					s.restart()
				},
				CloseFunc: func() {
					if err := s.proc.SetActive(false); err != nil {
						s.log.Errorf("close: %v", err)
					}
				},
				GetChunkFunc: func(isPreset bool) []byte {
					return s.proc.State().Bytes()
				},
				SetChunkFunc: func(data []byte, isPreset bool) {
					if err := s.proc.State().Restore(data); err != nil {
						s.log.Warnf("restore state: %v", err)
					}
				},
			}
	}
}

func main() {}
