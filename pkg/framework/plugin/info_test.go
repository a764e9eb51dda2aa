package plugin

import (
	"testing"
)

func TestUIDGeneration(t *testing.T) {
	a := Info{ID: "com.justyntemme.phasey"}
	b := Info{ID: "com.justyntemme.other"}

	if a.UID() != a.UID() {
		t.Error("UID generation is not deterministic")
	}
	if a.UID() == b.UID() {
		t.Error("Different IDs should produce different UIDs")
	}
	if a.UniqueID() != a.UniqueID() {
		t.Error("UniqueID generation is not deterministic")
	}
	for _, c := range a.UniqueID() {
		if c < 'A' || c > 'Z' {
			t.Errorf("UniqueID byte %q is not an upper-case letter", c)
		}
	}
}

func TestVersionNumber(t *testing.T) {
	tests := []struct {
		version string
		want    int32
		wantErr bool
	}{
		{"1.0.0", 1000, false},
		{"v1.2.3", 1203, false},
		{"2", 2000, false},
		{"0.1", 100, false},
		{"", 0, true},
		{"1.10.0", 0, true},
		{"1.x", 0, true},
		{"1.2.3.4", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := Info{Version: tt.version}.VersionNumber()
			if (err != nil) != tt.wantErr {
				t.Fatalf("VersionNumber(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("VersionNumber(%q) = %d, want %d", tt.version, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Info{ID: "com.example.x", Name: "X", Version: "1.0.0"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	for name, info := range map[string]Info{
		"missing id":   {Name: "X", Version: "1.0.0"},
		"missing name": {ID: "com.example.x", Version: "1.0.0"},
		"bad version":  {ID: "com.example.x", Name: "X", Version: "one"},
	} {
		if err := info.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
