package midi

import (
	"math"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data [3]byte
		want Event
	}{
		{"note on", [3]byte{0x90, 60, 100}, NoteOnEvent{BaseEvent{0, 7}, 60, 100}},
		{"note on other channel", [3]byte{0x9A, 61, 1}, NoteOnEvent{BaseEvent{10, 7}, 61, 1}},
		{"note off", [3]byte{0x80, 60, 64}, NoteOffEvent{BaseEvent{0, 7}, 60, 64}},
		{"note on velocity zero", [3]byte{0x93, 72, 0}, NoteOffEvent{BaseEvent{3, 7}, 72, 0}},
		{"sustain", [3]byte{0xB0, 0x40, 0x7F}, ControlChangeEvent{BaseEvent{0, 7}, CCSustain, 127}},
		{"bend center", [3]byte{0xE0, 0x00, 0x40}, PitchBendEvent{BaseEvent{0, 7}, 0}},
		{"bend min", [3]byte{0xE1, 0x00, 0x00}, PitchBendEvent{BaseEvent{1, 7}, -8192}},
		{"bend max", [3]byte{0xE0, 0x7F, 0x7F}, PitchBendEvent{BaseEvent{0, 7}, 8191}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decode(tt.data, 7)
			if !ok {
				t.Fatalf("Decode(% x) not recognized", tt.data)
			}
			if got != tt.want {
				t.Errorf("Decode(% x) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestDecodeIgnoresOtherMessages(t *testing.T) {
	for _, data := range [][3]byte{
		{0xC0, 5, 0},  // program change
		{0xD0, 50, 0}, // channel pressure
		{0xA0, 60, 9}, // poly pressure
	} {
		if e, ok := Decode(data, 0); ok {
			t.Errorf("Decode(% x) = %v, want not ok", data, e)
		}
	}
}

func TestPitchBendNormalization(t *testing.T) {
	// coarse/64 + fine/8192 - 1
	for coarse := 0; coarse < 128; coarse += 9 {
		for fine := 0; fine < 128; fine += 13 {
			e, ok := Decode([3]byte{0xE0, byte(fine), byte(coarse)}, 0)
			if !ok {
				t.Fatal("pitch bend not decoded")
			}
			got := e.(PitchBendEvent).NormalizedValue()
			want := float64(coarse)/64 + float64(fine)/8192 - 1
			if math.Abs(got-want) > 1e-12 {
				t.Errorf("coarse=%d fine=%d: got %v, want %v", coarse, fine, got, want)
			}
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	events := []Event{
		NoteOnEvent{BaseEvent{2, 0}, 64, 90},
		NoteOffEvent{BaseEvent{2, 0}, 64, 0},
		ControlChangeEvent{BaseEvent{0, 0}, CCSustain, 0},
		PitchBendEvent{BaseEvent{0, 0}, -1234},
	}

	for _, e := range events {
		data, ok := Encode(e)
		if !ok {
			t.Fatalf("Encode(%v) failed", e)
		}
		back, ok := Decode(data, 0)
		if !ok || back != e {
			t.Errorf("Encode/Decode(%v) = %v", e, back)
		}
	}
}

func TestControlChangePressed(t *testing.T) {
	tests := []struct {
		value uint8
		want  bool
	}{{0, false}, {63, false}, {64, true}, {127, true}}

	for _, tt := range tests {
		e := ControlChangeEvent{Controller: CCSustain, Value: tt.value}
		if e.Pressed() != tt.want {
			t.Errorf("Pressed(%d) = %v, want %v", tt.value, e.Pressed(), tt.want)
		}
	}
}

func TestNoteHelpers(t *testing.T) {
	if got := NoteToFrequency(69, 0); got != 440 {
		t.Errorf("A4 = %f", got)
	}
	if got := NoteToFrequency(81, 440); math.Abs(got-880) > 1e-9 {
		t.Errorf("A5 = %f", got)
	}
	if got := NoteNumberToName(60); got != "C4" {
		t.Errorf("NoteNumberToName(60) = %s", got)
	}
	if got := NoteNumberToName(70); got != "A#4" {
		t.Errorf("NoteNumberToName(70) = %s", got)
	}
}
