package plugin

import (
	"bytes"
	"errors"
	"testing"

	"github.com/justyntemme/phasey/pkg/framework/param"
)

func TestBaseProcessorCallbacks(t *testing.T) {
	b := NewBaseProcessor(2, 2)

	var gotRate float64
	var gotBlock int32
	b.OnInitialize(func(sampleRate float64, maxBlockSize int32) error {
		gotRate, gotBlock = sampleRate, maxBlockSize
		return nil
	})

	var calls []string
	b.OnReset(func() { calls = append(calls, "reset") })
	b.OnSetActive(func(active bool) error {
		if active {
			calls = append(calls, "on")
		} else {
			calls = append(calls, "off")
		}
		return nil
	})

	if err := b.Initialize(48000, 128); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if gotRate != 48000 || gotBlock != 128 {
		t.Errorf("OnInitialize got (%v, %v)", gotRate, gotBlock)
	}
	if b.SampleRate() != 48000 || b.MaxBlockSize() != 128 {
		t.Error("Initialize should record sample rate and block size")
	}

	_ = b.SetActive(true)
	if !b.IsActive() {
		t.Error("Expected active")
	}
	_ = b.SetActive(false)

	want := []string{"on", "reset", "off"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls = %v, want %v", calls, want)
			break
		}
	}
}

func TestBaseProcessorInitializeError(t *testing.T) {
	b := NewBaseProcessor(2, 2)
	wantErr := errors.New("boom")
	b.OnInitialize(func(float64, int32) error { return wantErr })

	if err := b.Initialize(44100, 64); !errors.Is(err, wantErr) {
		t.Errorf("Initialize error = %v, want %v", err, wantErr)
	}
}

func TestBaseProcessorDefaults(t *testing.T) {
	b := NewBaseProcessor(1, 2)

	in, out := b.Channels()
	if in != 1 || out != 2 {
		t.Errorf("Channels = (%d, %d), want (1, 2)", in, out)
	}
	if b.GetLatencySamples() != 0 || b.GetTailSamples() != 0 {
		t.Error("Default latency and tail should be 0")
	}
	if b.GetParameters() != b.Parameters() {
		t.Error("GetParameters and Parameters should return the same registry")
	}
}

func TestBaseProcessorState(t *testing.T) {
	src := NewBaseProcessor(2, 2)
	dst := NewBaseProcessor(2, 2)
	for _, b := range []*BaseProcessor{src, dst} {
		if err := b.Parameters().Add(param.MixParameter(1, "Wet", 0.5).Build()); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	src.Parameters().Get(1).SetValue(0.2)

	var buf bytes.Buffer
	if err := src.SaveState(&buf); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if err := dst.LoadState(&buf); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got := dst.Parameters().Get(1).GetValue(); got != 0.2 {
		t.Errorf("Wet = %v, want 0.2", got)
	}
}
