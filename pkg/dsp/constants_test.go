package dsp

import "testing"

func TestParameterRanges(t *testing.T) {
	tests := []struct {
		name          string
		min, def, max float64
	}{
		{"Dry", 0, DefaultDry, 1},
		{"Wet", 0, DefaultWet, 1},
		{"Attack", MinAttackMs, DefaultAttackMs, MaxAttackMs},
		{"Release", MinReleaseMs, DefaultReleaseMs, MaxReleaseMs},
		{"BendRange", 0, DefaultBendRange, MaxBendRange},
		{"Feedback", 0, DefaultFeedback, MaxFeedback},
		{"Portamento", 0, DefaultPortamentoMs, MaxPortamentoMs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.min >= tt.max {
				t.Errorf("min (%f) >= max (%f)", tt.min, tt.max)
			}
			if tt.def < tt.min || tt.def > tt.max {
				t.Errorf("default %f outside [%f, %f]", tt.def, tt.min, tt.max)
			}
		})
	}
}

func TestMaxDelaySamples(t *testing.T) {
	tests := []struct {
		sampleRate float64
		want       int
	}{
		{SampleRate44k1, 22051},
		{SampleRate48k, 24001},
		{SampleRate96k, 48001},
	}

	for _, tt := range tests {
		if got := MaxDelaySamples(tt.sampleRate); got != tt.want {
			t.Errorf("MaxDelaySamples(%v) = %d, want %d", tt.sampleRate, got, tt.want)
		}
	}
}
