package debug

import (
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"

	"github.com/justyntemme/phasey/pkg/dsp"
)

// AudioAnalyzer measures level and sanity statistics of audio blocks.
type AudioAnalyzer struct {
	ClippingThreshold float32
	SilenceThreshold  float32
}

// NewAudioAnalyzer creates an analyzer with default thresholds.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		ClippingThreshold: 0.99,
		SilenceThreshold:  0.0001,
	}
}

// AnalysisResult holds the statistics of one or more analyzed blocks.
type AnalysisResult struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	ClippedSamples int
	NaNCount       int
	ZeroCrossings  int
	Silent         bool
}

// Clipping reports whether any sample reached the clipping threshold.
func (r AnalysisResult) Clipping() bool { return r.ClippedSamples > 0 }

// HasNaN reports whether any sample was NaN or infinite.
func (r AnalysisResult) HasNaN() bool { return r.NaNCount > 0 }

// String formats the result as a single report line.
func (r AnalysisResult) String() string {
	return fmt.Sprintf("samples=%d peak=%.4f (%.1f dBFS) rms=%.4f dc=%.5f clipped=%d nan=%d zero_crossings=%d silent=%t",
		r.Samples, r.Peak, toDB(r.Peak), r.RMS, r.DC, r.ClippedSamples, r.NaNCount, r.ZeroCrossings, r.Silent)
}

// Analyze measures buffer. Non-finite samples are counted and excluded
// from the level statistics.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	r := AnalysisResult{Samples: len(buffer)}
	if len(buffer) == 0 {
		r.Silent = true
		return r
	}

	var last float32
	for i, x := range buffer {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			r.NaNCount++
			continue
		}
		if x >= a.ClippingThreshold || x <= -a.ClippingThreshold {
			r.ClippedSamples++
		}
		if i > 0 && (last < 0) != (x < 0) {
			r.ZeroCrossings++
		}
		last = x
	}

	if r.NaNCount == 0 {
		r.Peak = dsp.Peak(buffer)
		r.RMS = dsp.RMS(buffer)
		r.DC = vek32.Mean(buffer)
	} else {
		var sum, sumSquares float64
		finite := 0
		for _, x := range buffer {
			if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
				continue
			}
			if abs := float32(math.Abs(float64(x))); abs > r.Peak {
				r.Peak = abs
			}
			sum += float64(x)
			sumSquares += float64(x) * float64(x)
			finite++
		}
		if finite > 0 {
			r.RMS = float32(math.Sqrt(sumSquares / float64(finite)))
			r.DC = float32(sum / float64(finite))
		}
	}
	r.Silent = r.RMS < a.SilenceThreshold
	return r
}

// Merge combines two results as if their blocks had been analyzed together.
// Zero crossings across the block boundary are not counted.
func (a *AudioAnalyzer) Merge(x, y AnalysisResult) AnalysisResult {
	n := x.Samples + y.Samples
	if n == 0 {
		return AnalysisResult{Silent: true}
	}
	r := AnalysisResult{
		Samples:        n,
		Peak:           max(x.Peak, y.Peak),
		ClippedSamples: x.ClippedSamples + y.ClippedSamples,
		NaNCount:       x.NaNCount + y.NaNCount,
		ZeroCrossings:  x.ZeroCrossings + y.ZeroCrossings,
	}
	wx, wy := float64(x.Samples)/float64(n), float64(y.Samples)/float64(n)
	r.RMS = float32(math.Sqrt(float64(x.RMS)*float64(x.RMS)*wx + float64(y.RMS)*float64(y.RMS)*wy))
	r.DC = float32(float64(x.DC)*wx + float64(y.DC)*wy)
	r.Silent = r.RMS < a.SilenceThreshold
	return r
}

// CompareBuffers returns the largest absolute difference between a and b
// and the index where it occurs. Length mismatch is an error.
func CompareBuffers(a, b []float32) (maxDiff float32, index int, err error) {
	if len(a) != len(b) {
		return 0, 0, fmt.Errorf("buffer length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > maxDiff {
			maxDiff, index = d, i
		}
	}
	return maxDiff, index, nil
}

// Correlation returns the Pearson correlation of two channels in [-1, 1].
// Two constant channels count as correlated; one constant channel as
// uncorrelated. Length mismatch is an error.
func Correlation(l, r []float32) (float32, error) {
	if len(l) != len(r) {
		return 0, fmt.Errorf("buffer length mismatch: %d vs %d", len(l), len(r))
	}
	if len(l) == 0 {
		return 1, nil
	}
	meanL, meanR := float64(vek32.Mean(l)), float64(vek32.Mean(r))

	var num, varL, varR float64
	for i := range l {
		dl, dr := float64(l[i])-meanL, float64(r[i])-meanR
		num += dl * dr
		varL += dl * dl
		varR += dr * dr
	}
	switch {
	case varL == 0 && varR == 0:
		return 1, nil
	case varL == 0 || varR == 0:
		return 0, nil
	}
	c := num / math.Sqrt(varL*varR)
	return float32(min(max(c, -1), 1)), nil
}

// LogBufferStats logs a one-line analysis of buffer on the default logger.
func LogBufferStats(buffer []float32, name string) {
	r := NewAudioAnalyzer().Analyze(buffer)
	l := defaultLogger.With("buffer", name)
	if r.HasNaN() || r.Clipping() {
		l.Warnf("%s", r)
		return
	}
	l.Debugf("%s", r)
}

func toDB(x float32) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(float64(x))
}
