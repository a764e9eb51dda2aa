package param

import (
	"math"
)

// SmoothingType defines different parameter smoothing algorithms.
type SmoothingType int

const (
	// LinearSmoothing moves toward the target in equal steps
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing uses a one-pole filter
	ExponentialSmoothing
)

// settleDecay is ln(1000): an exponential glide is within -60 dB of its
// target after the configured time.
const settleDecay = 6.907755278982137

// Smoother ramps a value toward a target to prevent zipper noise and to
// produce glides. It never allocates.
type Smoother struct {
	smoothingType SmoothingType
	current       float64
	target        float64
	rate          float64
	threshold     float64
	isSmoothing   bool

	// For linear smoothing
	step float64

	// Last SetSpeedMs arguments, so per-sample calls skip the math.
	speedSampleRate float64
	speedMs         float64
}

// NewSmoother creates a new parameter smoother.
// rate: pole coefficient (0-1, higher is slower) for exponential, samples for linear.
func NewSmoother(smoothingType SmoothingType, rate float64) *Smoother {
	return &Smoother{
		smoothingType: smoothingType,
		rate:          rate,
		threshold:     0.0001,
		speedMs:       -1,
	}
}

// SetTarget sets the target value for smoothing.
func (s *Smoother) SetTarget(target float64) {
	if target == s.target {
		return
	}
	if !s.isSmoothing && math.Abs(target-s.target) < s.threshold {
		return
	}

	s.target = target
	if s.immediate() {
		s.current = target
		s.isSmoothing = false
		return
	}
	s.isSmoothing = s.current != target

	if s.smoothingType == LinearSmoothing {
		s.step = (target - s.current) / s.rate
	}
}

// immediate reports whether the configured speed jumps straight to the target.
func (s *Smoother) immediate() bool {
	if s.smoothingType == LinearSmoothing {
		return s.rate < 1
	}
	return s.rate <= 0
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float64 {
	if !s.isSmoothing {
		return s.current
	}

	switch s.smoothingType {
	case ExponentialSmoothing:
		s.current += (s.target - s.current) * (1.0 - s.rate)
		if math.Abs(s.current-s.target) < s.threshold {
			s.current = s.target
			s.isSmoothing = false
		}

	case LinearSmoothing:
		s.current += s.step
		if (s.step > 0 && s.current >= s.target) || (s.step < 0 && s.current <= s.target) || s.step == 0 {
			s.current = s.target
			s.isSmoothing = false
		}
	}

	return s.current
}

// Process advances n samples and returns the resulting value.
func (s *Smoother) Process(n int) float64 {
	for i := 0; i < n && s.isSmoothing; i++ {
		s.Next()
	}
	return s.current
}

// Value returns the current smoothed value without advancing.
func (s *Smoother) Value() float64 {
	return s.current
}

// Target returns the value being approached.
func (s *Smoother) Target() float64 {
	return s.target
}

// IsSmoothing returns true if the smoother is currently smoothing.
func (s *Smoother) IsSmoothing() bool {
	return s.isSmoothing
}

// Reset jumps to value with no glide.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.isSmoothing = false
}

// SetRate updates the smoothing rate.
func (s *Smoother) SetRate(rate float64) {
	s.rate = rate
	s.retarget()
}

// SetSpeedMs sets the glide time in milliseconds at the given sample rate.
// 0 ms makes SetTarget jump immediately. Repeated calls with unchanged
// arguments are free.
func (s *Smoother) SetSpeedMs(sampleRate, ms float64) {
	if sampleRate == s.speedSampleRate && ms == s.speedMs {
		return
	}
	s.speedSampleRate = sampleRate
	s.speedMs = ms

	samples := sampleRate * ms / 1000
	switch s.smoothingType {
	case LinearSmoothing:
		s.rate = samples
	case ExponentialSmoothing:
		if samples <= 0 {
			s.rate = 0
		} else {
			s.rate = math.Exp(-settleDecay / samples)
		}
	}
	s.retarget()
}

// retarget recomputes the glide after a speed change.
func (s *Smoother) retarget() {
	if !s.isSmoothing {
		return
	}
	if s.immediate() {
		s.current = s.target
		s.isSmoothing = false
		return
	}
	if s.smoothingType == LinearSmoothing {
		s.step = (s.target - s.current) / s.rate
	}
}

// SetThreshold sets the threshold for considering smoothing complete.
func (s *Smoother) SetThreshold(threshold float64) {
	s.threshold = threshold
}

// SmoothedParameter wraps a Parameter with smoothing capability.
type SmoothedParameter struct {
	*Parameter
	smoother *Smoother
	enabled  bool
}

// NewSmoothedParameter creates a parameter with built-in smoothing.
func NewSmoothedParameter(param *Parameter, smoothingType SmoothingType, rate float64) *SmoothedParameter {
	sp := &SmoothedParameter{
		Parameter: param,
		smoother:  NewSmoother(smoothingType, rate),
		enabled:   true,
	}
	sp.smoother.Reset(param.GetPlainValue())
	return sp
}

// GetSmoothedValue follows the parameter's current plain value and
// returns the next smoothed sample. Call once per sample.
func (sp *SmoothedParameter) GetSmoothedValue() float64 {
	plain := sp.GetPlainValue()
	if !sp.enabled {
		return plain
	}
	sp.smoother.SetTarget(plain)
	return sp.smoother.Next()
}

// SetSmoothing enables or disables smoothing.
func (sp *SmoothedParameter) SetSmoothing(enabled bool) {
	sp.enabled = enabled
	if !enabled {
		sp.smoother.Reset(sp.GetPlainValue())
	}
}

// Snap jumps the smoother to the parameter's current value.
func (sp *SmoothedParameter) Snap() {
	sp.smoother.Reset(sp.GetPlainValue())
}

// UpdateSampleRate sets the smoothing time for a new sample rate.
func (sp *SmoothedParameter) UpdateSampleRate(sampleRate float64, targetTimeMs float64) {
	sp.smoother.SetSpeedMs(sampleRate, targetTimeMs)
}
