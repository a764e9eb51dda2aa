package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/justyntemme/phasey/pkg/framework/param"
)

func newRegistry(t *testing.T) *param.Registry {
	t.Helper()
	r := param.NewRegistry()
	err := r.Add(
		param.MixParameter(0, "Dry", 1).Build(),
		param.MixParameter(1, "Wet", 0.5).Build(),
		param.ToggleParameter(2, "Poly", true).Build(),
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return r
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := newRegistry(t)
	src.Get(0).SetValue(0.25)
	src.Get(1).SetValue(0.75)
	src.Get(2).SetValue(0)

	var buf bytes.Buffer
	if err := NewManager(src).Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := newRegistry(t)
	if err := NewManager(dst).Load(&buf); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, id := range []uint32{0, 1, 2} {
		if got, want := dst.Get(id).GetValue(), src.Get(id).GetValue(); got != want {
			t.Errorf("param %d = %v, want %v", id, got, want)
		}
	}
}

func TestBytesRestore(t *testing.T) {
	src := newRegistry(t)
	src.Get(1).SetValue(0.1)

	dst := newRegistry(t)
	if err := NewManager(dst).Restore(NewManager(src).Bytes()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := dst.Get(1).GetValue(); got != 0.1 {
		t.Errorf("Wet = %v, want 0.1", got)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("BadMagic", func(t *testing.T) {
		err := NewManager(newRegistry(t)).Restore([]byte("VST3GO\x01\x00\x00\x00"))
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("Expected ErrInvalidFormat, got %v", err)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		err := NewManager(newRegistry(t)).Restore(nil)
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("Expected ErrInvalidFormat, got %v", err)
		}
	})

	t.Run("NewerVersion", func(t *testing.T) {
		var buf bytes.Buffer
		buf.WriteString(magic)
		binary.Write(&buf, binary.LittleEndian, [2]uint32{Version + 1, 0})

		err := NewManager(newRegistry(t)).Load(&buf)
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("Expected ErrUnsupportedVersion, got %v", err)
		}
	})

	t.Run("TruncatedLeavesValues", func(t *testing.T) {
		src := newRegistry(t)
		src.Get(0).SetValue(0)
		data := NewManager(src).Bytes()

		dst := newRegistry(t)
		err := NewManager(dst).Restore(data[:len(data)-4])
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("Expected ErrInvalidFormat, got %v", err)
		}
		if got := dst.Get(0).GetValue(); got != 1 {
			t.Errorf("Truncated load should not apply values, Dry = %v", got)
		}
	})
}

func TestLoadSkipsUnknownParameters(t *testing.T) {
	src := newRegistry(t)
	if err := src.Add(param.MixParameter(42, "Extra", 0.3).Build()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	src.Get(1).SetValue(0.9)

	dst := newRegistry(t)
	if err := NewManager(dst).Restore(NewManager(src).Bytes()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := dst.Get(1).GetValue(); got != 0.9 {
		t.Errorf("Wet = %v, want 0.9", got)
	}
}
