// Package state saves and restores parameter values as a compact binary
// blob for hosts and preset files. Voice and delay state is never saved.
package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/justyntemme/phasey/pkg/framework/param"
)

const magic = "PHASEY"

// Version is the current state format version.
const Version uint32 = 1

var (
	// ErrInvalidFormat is returned when the data does not start with the
	// state header.
	ErrInvalidFormat = errors.New("state: invalid format")
	// ErrUnsupportedVersion is returned for state written by a newer format.
	ErrUnsupportedVersion = errors.New("state: unsupported version")
)

// Manager handles parameter state saving and loading
type Manager struct {
	version  uint32
	registry *param.Registry
}

// NewManager creates a state manager for registry.
func NewManager(registry *param.Registry) *Manager {
	return &Manager{
		version:  Version,
		registry: registry,
	}
}

// Save writes every parameter's normalized value to w.
func (m *Manager) Save(w io.Writer) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return fmt.Errorf("state: write header: %w", err)
	}

	params := m.registry.All()
	header := struct {
		Version uint32
		Count   uint32
	}{m.version, uint32(len(params))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("state: write header: %w", err)
	}

	for _, p := range params {
		entry := struct {
			ID    uint32
			Value float64
		}{p.ID, p.GetValue()}
		if err := binary.Write(w, binary.LittleEndian, entry); err != nil {
			return fmt.Errorf("state: write parameter %d: %w", p.ID, err)
		}
	}
	return nil
}

// Load reads state written by Save and applies it. Parameters missing from
// the registry are skipped so older hosts can read newer presets. Nothing
// is applied unless the whole blob decodes.
func (m *Manager) Load(r io.Reader) error {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if string(head) != magic {
		return ErrInvalidFormat
	}

	var header struct {
		Version uint32
		Count   uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if header.Version > m.version {
		return fmt.Errorf("%w: %d is newer than %d", ErrUnsupportedVersion, header.Version, m.version)
	}

	type entry struct {
		ID    uint32
		Value float64
	}
	// Cap the preallocation; a corrupt count fails on read instead.
	entries := make([]entry, 0, min(header.Count, 1024))
	for i := uint32(0); i < header.Count; i++ {
		var e entry
		if err := binary.Read(r, binary.LittleEndian, &e); err != nil {
			return fmt.Errorf("%w: parameter %d of %d: %w", ErrInvalidFormat, i, header.Count, err)
		}
		entries = append(entries, e)
	}

	for _, e := range entries {
		if p := m.registry.Get(e.ID); p != nil {
			p.SetValue(e.Value)
		}
	}
	return nil
}

// Bytes returns the saved state as a byte slice.
func (m *Manager) Bytes() []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = m.Save(&buf)
	return buf.Bytes()
}

// Restore loads state from data.
func (m *Manager) Restore(data []byte) error {
	return m.Load(bytes.NewReader(data))
}
