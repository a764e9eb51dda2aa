package plugin

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Info contains plugin metadata
type Info struct {
	ID       string // Reverse-DNS identifier, e.g. "com.example.myplugin"
	Name     string // Display name
	Version  string // Semantic version, e.g. "1.0.0"
	Vendor   string // Company/developer name
	Category string // Plugin category, e.g. "Fx", "Fx|Delay"
}

// Validate checks that the metadata can be published to a host.
func (i Info) Validate() error {
	if i.ID == "" {
		return errors.New("plugin: ID is required")
	}
	if i.Name == "" {
		return errors.New("plugin: Name is required")
	}
	if _, err := i.VersionNumber(); err != nil {
		return err
	}
	return nil
}

// UID derives a stable 16-byte class identifier from the ID.
func (i Info) UID() [16]byte {
	h := fnv.New128a()
	h.Write([]byte(i.ID))

	var uid [16]byte
	copy(uid[:], h.Sum(nil))
	return uid
}

// UniqueID derives the 4-byte identifier VST2 hosts use to tell plugins
// apart. It is stable for a given ID.
func (i Info) UniqueID() [4]byte {
	var id [4]byte
	uid := i.UID()
	for j := range id {
		// Printable upper-case letters keep the code readable in host lists.
		id[j] = 'A' + (uid[j]^uid[j+4]^uid[j+8]^uid[j+12])%26
	}
	return id
}

// VersionNumber encodes Version as major*1000 + minor*100 + patch.
func (i Info) VersionNumber() (int32, error) {
	parts := strings.Split(strings.TrimPrefix(i.Version, "v"), ".")
	if len(parts) == 0 || len(parts) > 3 || parts[0] == "" {
		return 0, fmt.Errorf("plugin: invalid version %q", i.Version)
	}

	weights := [3]int32{1000, 100, 1}
	var n int32
	for j, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 || (j > 0 && v > 9) {
			return 0, fmt.Errorf("plugin: invalid version %q", i.Version)
		}
		n += int32(v) * weights[j]
	}
	return n, nil
}
