package interpolation

import "testing"

func TestLinear(t *testing.T) {
	tests := []struct {
		name   string
		y0, y1 float32
		frac   float32
		want   float32
	}{
		{"start", 2, 4, 0, 2},
		{"end", 2, 4, 1, 4},
		{"middle", 2, 4, 0.5, 3},
		{"descending", 1, -1, 0.25, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Linear(tt.y0, tt.y1, tt.frac); got != tt.want {
				t.Errorf("Linear(%v, %v, %v) = %v, want %v", tt.y0, tt.y1, tt.frac, got, tt.want)
			}
		})
	}
}
