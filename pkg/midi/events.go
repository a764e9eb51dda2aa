// Package midi defines the note and control events the processor consumes
// and decodes them from raw channel-voice messages.
package midi

import (
	"fmt"
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypeControlChange
	EventTypePitchBend
)

type Event interface {
	Type() EventType
	Channel() uint8
	SampleOffset() int32
	String() string
}

type BaseEvent struct {
	EventChannel uint8
	Offset       int32
}

func (e BaseEvent) Channel() uint8 {
	return e.EventChannel
}

func (e BaseEvent) SampleOffset() int32 {
	return e.Offset
}

type NoteOnEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOnEvent) Type() EventType {
	return EventTypeNoteOn
}

func (e NoteOnEvent) String() string {
	return fmt.Sprintf("NoteOn{ch:%d, note:%s, vel:%d, offset:%d}",
		e.EventChannel, NoteNumberToName(e.NoteNumber), e.Velocity, e.Offset)
}

type NoteOffEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOffEvent) Type() EventType {
	return EventTypeNoteOff
}

func (e NoteOffEvent) String() string {
	return fmt.Sprintf("NoteOff{ch:%d, note:%s, vel:%d, offset:%d}",
		e.EventChannel, NoteNumberToName(e.NoteNumber), e.Velocity, e.Offset)
}

type ControlChangeEvent struct {
	BaseEvent
	Controller uint8
	Value      uint8
}

func (e ControlChangeEvent) Type() EventType {
	return EventTypeControlChange
}

func (e ControlChangeEvent) String() string {
	return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}",
		e.EventChannel, e.Controller, e.Value, e.Offset)
}

// Pressed reports whether a switch controller such as sustain is down.
func (e ControlChangeEvent) Pressed() bool {
	return e.Value >= 64
}

const (
	CCModWheel       uint8 = 1
	CCPortamentoTime uint8 = 5
	CCVolume         uint8 = 7
	CCSustain        uint8 = 64
	CCPortamento     uint8 = 65
	CCAllSoundOff    uint8 = 120
	CCResetAll       uint8 = 121
	CCAllNotesOff    uint8 = 123
)

type PitchBendEvent struct {
	BaseEvent
	Value int16 // -8192 to 8191, 0 is center
}

func (e PitchBendEvent) Type() EventType {
	return EventTypePitchBend
}

func (e PitchBendEvent) String() string {
	return fmt.Sprintf("PitchBend{ch:%d, val:%d, offset:%d}",
		e.EventChannel, e.Value, e.Offset)
}

// NormalizedValue maps the wheel position to [-1, 1).
func (e PitchBendEvent) NormalizedValue() float64 {
	return float64(e.Value) / 8192.0
}

// Decode parses a raw three-byte channel message. Note-on with velocity 0
// decodes as note-off. Messages other than notes, control changes and pitch
// bend report false.
func Decode(data [3]byte, offset int32) (Event, bool) {
	msg := gomidi.Message(data[:])
	var ch, key, vel uint8

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return NoteOnEvent{BaseEvent{ch, offset}, key, vel}, true
	case msg.GetNoteOff(&ch, &key, &vel):
		return NoteOffEvent{BaseEvent{ch, offset}, key, vel}, true
	case msg.GetNoteEnd(&ch, &key):
		return NoteOffEvent{BaseEvent{ch, offset}, key, 0}, true
	}

	var ctrl, val uint8
	if msg.GetControlChange(&ch, &ctrl, &val) {
		return ControlChangeEvent{BaseEvent{ch, offset}, ctrl, val}, true
	}

	var rel int16
	var abs uint16
	if msg.GetPitchBend(&ch, &rel, &abs) {
		return PitchBendEvent{BaseEvent{ch, offset}, rel}, true
	}

	return nil, false
}

// Encode renders an event as a raw channel message.
func Encode(e Event) ([3]byte, bool) {
	var msg gomidi.Message
	switch ev := e.(type) {
	case NoteOnEvent:
		msg = gomidi.NoteOn(ev.EventChannel, ev.NoteNumber, ev.Velocity)
	case NoteOffEvent:
		msg = gomidi.NoteOffVelocity(ev.EventChannel, ev.NoteNumber, ev.Velocity)
	case ControlChangeEvent:
		msg = gomidi.ControlChange(ev.EventChannel, ev.Controller, ev.Value)
	case PitchBendEvent:
		msg = gomidi.Pitchbend(ev.EventChannel, ev.Value)
	default:
		return [3]byte{}, false
	}

	var out [3]byte
	copy(out[:], msg)
	return out, true
}

func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Exp2((float64(note)-69.0)/12.0)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func NoteNumberToName(note uint8) string {
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
