package phasey

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/justyntemme/phasey/pkg/dsp"
	"github.com/justyntemme/phasey/pkg/framework/debug"
	"github.com/justyntemme/phasey/pkg/framework/process"
	"github.com/justyntemme/phasey/pkg/midi"
)

const testRate = 48000

func quietLogger() *debug.Logger {
	l := debug.New(&bytes.Buffer{}, "", 0)
	l.SetLevel(debug.LevelOff)
	return l
}

// newActive returns an initialized, active processor. setup runs before
// activation so smoothed gains start at their configured values.
func newActive(t *testing.T, setup func(p *Processor), opts ...Option) *Processor {
	t.Helper()
	p := New(append([]Option{WithLogger(quietLogger())}, opts...)...)
	if err := p.Initialize(testRate, 512); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if setup != nil {
		setup(p)
	}
	if err := p.SetActive(true); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	return p
}

func stereoContext(p *Processor, n int, in float32) *process.Context {
	ctx := process.NewContext(n, p.GetParameters())
	ctx.SampleRate = testRate
	ctx.Input = [][]float32{make([]float32, n), make([]float32, n)}
	ctx.Output = [][]float32{make([]float32, n), make([]float32, n)}
	for ch := range ctx.Input {
		for i := range ctx.Input[ch] {
			ctx.Input[ch][i] = in
		}
	}
	return ctx
}

func noteOn(note, vel uint8) [3]byte { return [3]byte{0x90, note, vel} }
func noteOff(note uint8) [3]byte { return [3]byte{0x80, note, 0} }
func sustain(pressed bool) [3]byte {
	if pressed {
		return [3]byte{0xB0, midi.CCSustain, 127}
	}
	return [3]byte{0xB0, midi.CCSustain, 0}
}

func TestDefaults(t *testing.T) {
	p := New(WithLogger(quietLogger()))

	tests := []struct {
		id   uint32
		want float64
	}{
		{ParamDry, dsp.DefaultDry},
		{ParamWet, dsp.DefaultWet},
		{ParamAttack, dsp.DefaultAttackMs},
		{ParamRelease, dsp.DefaultReleaseMs},
		{ParamBendRange, dsp.DefaultBendRange},
		{ParamFeedback, dsp.DefaultFeedback},
		{ParamPoly, 1},
		{ParamPortamento, dsp.DefaultPortamentoMs},
	}
	for _, tt := range tests {
		if got := p.Parameter(tt.id); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("param %d default = %v, want %v", tt.id, got, tt.want)
		}
	}
	if n := p.GetParameters().Count(); n != int32(len(tests)) {
		t.Errorf("Count = %d, want %d", n, len(tests))
	}

	porta := p.GetParameters().Get(ParamPortamento)
	if got := porta.Denormalize(0.5); math.Abs(got-dsp.MaxPortamentoMs/4) > 1e-9 {
		t.Errorf("Portamento at half travel = %v, want %v", got, dsp.MaxPortamentoMs/4)
	}

	if p.SetParameter(999, 1) {
		t.Error("SetParameter should reject unknown IDs")
	}
	if !p.SetParameter(ParamWet, 0.25) || p.Parameter(ParamWet) != 0.25 {
		t.Error("SetParameter should set the plain value")
	}
}

func TestInitializeErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		rate  float64
		block int32
	}{
		{"zero rate", 0, 128},
		{"nan rate", math.NaN(), 128},
		{"zero block", testRate, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := New(WithLogger(quietLogger()))
			if err := p.Initialize(tc.rate, tc.block); err == nil {
				t.Error("Expected error")
			}
		})
	}

	p := New(WithLogger(quietLogger()), WithPolyphony(0))
	if err := p.Initialize(testRate, 128); err == nil {
		t.Error("Expected error for zero polyphony")
	}

	p = New(WithLogger(quietLogger()))
	if err := p.SetActive(true); err == nil {
		t.Error("SetActive before Initialize should fail")
	}
}

func TestInactivePassesThrough(t *testing.T) {
	p := New(WithLogger(quietLogger()))
	if err := p.Initialize(testRate, 64); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	ctx := stereoContext(p, 64, 0.3)
	p.ProcessAudio(ctx)

	if ctx.Output[0][10] != 0.3 || ctx.Output[1][63] != 0.3 {
		t.Error("Inactive processor should copy input to output")
	}
}

func TestDryOnlyWithoutNotes(t *testing.T) {
	p := newActive(t, nil)
	ctx := stereoContext(p, 256, 0.5)
	p.ProcessAudio(ctx)

	for ch := range ctx.Output {
		for i, x := range ctx.Output[ch] {
			if x != 0.5 {
				t.Fatalf("Output[%d][%d] = %v, want dry input 0.5", ch, i, x)
			}
		}
	}
}

func TestSteadyStateMix(t *testing.T) {
	p := newActive(t, func(p *Processor) {
		p.SetParameter(ParamFeedback, 0)
	})
	p.HandleMIDI(noteOn(69, 100), 0)

	ctx := stereoContext(p, 512, 1)
	for block := 0; block < 8; block++ {
		p.ProcessAudio(ctx)
	}

	// DC survives any delay: dry 1 + wet 0.5 * voice 1.
	for ch := range ctx.Output {
		if got := ctx.Output[ch][511]; math.Abs(float64(got)-1.5) > 1e-4 {
			t.Errorf("Output[%d] = %v, want 1.5", ch, got)
		}
	}
	if p.Bank().ActiveCount() != 1 {
		t.Errorf("ActiveCount = %d, want 1", p.Bank().ActiveCount())
	}
}

func firstWetFrame(t *testing.T, offset int32) int {
	t.Helper()
	p := newActive(t, func(p *Processor) {
		p.SetParameter(ParamDry, 0)
		p.SetParameter(ParamWet, 1)
	})
	if !p.HandleMIDI(noteOn(69, 100), offset) {
		t.Fatal("HandleMIDI rejected note-on")
	}

	ctx := stereoContext(p, 512, 1)
	p.ProcessAudio(ctx)
	for i, x := range ctx.Output[0] {
		if x != 0 {
			return i
		}
	}
	t.Fatal("No wet output within the block")
	return -1
}

func TestEventsApplyAtTheirFrame(t *testing.T) {
	base := firstWetFrame(t, 0)
	later := firstWetFrame(t, 200)

	if later-base != 200 {
		t.Errorf("Wet onset moved by %d frames, want 200", later-base)
	}
}

func TestEventsPastBlockApplyAtEnd(t *testing.T) {
	p := newActive(t, nil)
	p.HandleMIDI(noteOn(60, 100), 1000)

	ctx := stereoContext(p, 64, 0)
	p.ProcessAudio(ctx)

	if p.Bank().ActiveCount() != 1 {
		t.Errorf("Late event should start a voice at block end, ActiveCount = %d", p.Bank().ActiveCount())
	}
	if p.PendingEvents() != 0 {
		t.Errorf("PendingEvents = %d after block, want 0", p.PendingEvents())
	}
}

func TestChunkingIsTransparent(t *testing.T) {
	const total = 3 * 100

	render := func(blockSize int) []float32 {
		p := newActive(t, nil)
		p.HandleMIDI(noteOn(72, 100), 0)
		p.HandleMIDI([3]byte{0xE0, 0x00, 0x60}, 0)

		out := make([]float32, 0, total)
		ctx := process.NewContext(blockSize, p.GetParameters())
		for start := 0; start < total; start += blockSize {
			in := make([]float32, blockSize)
			for i := range in {
				in[i] = float32(math.Sin(float64(start+i) * 0.05))
			}
			ctx.Input = [][]float32{in}
			ctx.Output = [][]float32{make([]float32, blockSize), make([]float32, blockSize)}
			p.ProcessAudio(ctx)
			out = append(out, ctx.Output[1]...)
		}
		return out
	}

	whole := render(total)
	split := render(100)

	diff, at, err := debug.CompareBuffers(whole, split)
	if err != nil {
		t.Fatalf("CompareBuffers: %v", err)
	}
	if diff != 0 {
		t.Errorf("Block size changed output: diff %v at frame %d", diff, at)
	}
}

func TestSustainThroughProcessor(t *testing.T) {
	p := newActive(t, nil)
	ctx := stereoContext(p, 128, 0)

	p.HandleMIDI(noteOn(60, 100), 0)
	p.HandleMIDI(sustain(true), 1)
	p.HandleMIDI(noteOff(60), 2)
	p.ProcessAudio(ctx)

	if !p.Bank().Sustained() || p.Bank().PendingCount() != 1 {
		t.Fatalf("Note-off under sustain should be deferred")
	}

	p.HandleMIDI(sustain(false), 0)
	for i := 0; i < 8; i++ {
		p.ProcessAudio(ctx)
	}
	if p.Bank().ActiveCount() != 0 {
		t.Errorf("Voice should finish its release after pedal up, ActiveCount = %d", p.Bank().ActiveCount())
	}
}

func TestHandleMIDIRejects(t *testing.T) {
	p := New(WithLogger(quietLogger()))
	if p.HandleMIDI(noteOn(60, 100), 0) {
		t.Error("HandleMIDI before Initialize should fail")
	}

	p = newActive(t, nil, WithQueueCapacity(2))
	if p.HandleMIDI([3]byte{0xF8, 0, 0}, 0) {
		t.Error("System messages should be ignored")
	}
	p.HandleMIDI(noteOn(60, 100), 0)
	p.HandleMIDI(noteOn(61, 100), 0)
	if p.HandleMIDI(noteOn(62, 100), 0) {
		t.Error("Full queue should reject events")
	}
}

func TestResetSilences(t *testing.T) {
	p := newActive(t, nil)
	p.HandleMIDI(noteOn(60, 100), 0)
	p.ProcessAudio(stereoContext(p, 64, 0.1))
	p.HandleMIDI(noteOn(64, 100), 0)

	p.Reset()

	if p.Bank().ActiveCount() != 0 || p.PendingEvents() != 0 {
		t.Error("Reset should stop voices and drop queued events")
	}
}

func TestDeactivateLogsDroppedNotes(t *testing.T) {
	var buf bytes.Buffer
	logger := debug.New(&buf, "", 0)

	p := New(WithLogger(logger), WithPolyphony(1))
	if err := p.Initialize(testRate, 128); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	_ = p.SetActive(true)
	p.HandleMIDI(noteOn(60, 100), 0)
	p.HandleMIDI(noteOn(64, 100), 1)
	p.ProcessAudio(stereoContext(p, 64, 0))
	_ = p.SetActive(false)

	out := buf.String()
	if !strings.Contains(out, "deactivated dropped_notes=1 dropped_events=0") {
		t.Errorf("Missing drop summary in %q", out)
	}
	if p.Bank().ActiveCount() != 0 {
		t.Error("Deactivation should reset voices")
	}
}

func TestTailSamples(t *testing.T) {
	p := newActive(t, func(p *Processor) {
		p.SetParameter(ParamRelease, 100)
	})
	want := int32(math.Ceil((dsp.MaxDelayMs + 100) / 1000 * testRate))
	if got := p.GetTailSamples(); got != want {
		t.Errorf("GetTailSamples = %d, want %d", got, want)
	}
}

func TestStateRoundTrip(t *testing.T) {
	src := New(WithLogger(quietLogger()))
	src.SetParameter(ParamPortamento, 1200)
	src.SetParameter(ParamPoly, 0)

	var buf bytes.Buffer
	if err := src.SaveState(&buf); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	dst := New(WithLogger(quietLogger()))
	if err := dst.LoadState(&buf); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got := dst.Parameter(ParamPortamento); math.Abs(got-1200) > 1e-9 {
		t.Errorf("Portamento = %v, want 1200", got)
	}
	if dst.Parameter(ParamPoly) != 0 {
		t.Error("Poly should be off")
	}
}

func TestProcessAudioZeroAllocs(t *testing.T) {
	p := newActive(t, nil)
	for note := uint8(48); note < 48+dsp.MaxPolyphony; note++ {
		p.HandleMIDI(noteOn(note, 100), 0)
	}
	ctx := stereoContext(p, 512, 0.25)
	p.ProcessAudio(ctx)

	allocs := testing.AllocsPerRun(20, func() {
		p.ProcessAudio(ctx)
	})
	if allocs != 0 {
		t.Errorf("Expected zero allocations, got %v", allocs)
	}
}

func BenchmarkProcessAudio(b *testing.B) {
	p := New(WithLogger(quietLogger()))
	if err := p.Initialize(testRate, 512); err != nil {
		b.Fatal(err)
	}
	_ = p.SetActive(true)
	for note := uint8(48); note < 48+dsp.MaxPolyphony; note++ {
		p.HandleMIDI(noteOn(note, 100), 0)
	}
	ctx := stereoContext(p, 512, 0.25)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ProcessAudio(ctx)
	}
}
