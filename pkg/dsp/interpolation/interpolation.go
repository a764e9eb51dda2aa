// Package interpolation reads between samples.
package interpolation

// Linear blends y0 toward y1 by frac. frac 0 yields y0 and frac 1 yields y1.
func Linear(y0, y1, frac float32) float32 {
	return y0 + (y1-y0)*frac
}
