package debug

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler records timing statistics for named sections.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	enabled      atomic.Bool
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	Name      string
	Count     uint64
	Total     time.Duration
	Min       time.Duration
	Max       time.Duration
	Last      time.Duration
	samples   []time.Duration
	nextIndex int
}

// NewProfiler creates a profiler keeping up to maxSamples recent timings
// per section for percentile queries.
func NewProfiler(maxSamples int) *Profiler {
	if maxSamples < 1 {
		maxSamples = 1
	}
	p := &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   maxSamples,
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// IsEnabled returns whether profiling is enabled.
func (p *Profiler) IsEnabled() bool {
	return p.enabled.Load()
}

// Start begins timing a named section. Call the returned func to stop.
func (p *Profiler) Start(name string) func() {
	if !p.enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Time measures the execution time of fn.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

// Record adds one timing to the named section.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	if !p.enabled.Load() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.measurements[name]
	if !ok {
		m = &Measurement{
			Name:    name,
			Min:     elapsed,
			Max:     elapsed,
			samples: make([]time.Duration, 0, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.Count++
	m.Total += elapsed
	m.Last = elapsed
	m.Min = min(m.Min, elapsed)
	m.Max = max(m.Max, elapsed)

	if len(m.samples) < p.maxSamples {
		m.samples = append(m.samples, elapsed)
	} else {
		m.samples[m.nextIndex] = elapsed
	}
	m.nextIndex = (m.nextIndex + 1) % p.maxSamples
}

// Stats returns a copy of the named section's statistics.
func (p *Profiler) Stats(name string) (Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.measurements[name]
	if !ok {
		return Measurement{}, false
	}
	c := *m
	c.samples = slices.Clone(m.samples)
	return c, true
}

// Names returns the recorded section names in sorted order.
func (p *Profiler) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.measurements))
	for name := range p.measurements {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
}

// Report formats all measurements.
func (p *Profiler) Report() string {
	names := p.Names()
	if len(names) == 0 {
		return "No measurements recorded\n"
	}

	var sb strings.Builder
	for _, name := range names {
		m, _ := p.Stats(name)
		fmt.Fprintf(&sb, "%s: count=%d total=%v avg=%v min=%v max=%v p99=%v\n",
			name, m.Count, m.Total, m.Average(), m.Min, m.Max, m.Percentile(99))
	}
	return sb.String()
}

// Average returns the mean time for this measurement.
func (m Measurement) Average() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Count)
}

// Percentile returns the p-th percentile (0..100) of the recent samples.
func (m Measurement) Percentile(p float64) time.Duration {
	if len(m.samples) == 0 {
		return 0
	}
	sorted := slices.Clone(m.samples)
	slices.Sort(sorted)
	p = min(max(p, 0), 100)
	return sorted[int(float64(len(sorted)-1)*p/100+0.5)]
}

// BlockSection is the section name BlockProfiler records under.
const BlockSection = "process"

// BlockProfiler times audio blocks against their real-time duration.
type BlockProfiler struct {
	*Profiler
	sampleRate float64
	frames     atomic.Uint64
	overruns   atomic.Uint64
}

// NewBlockProfiler creates a block profiler for the given sample rate.
func NewBlockProfiler(sampleRate float64) *BlockProfiler {
	return &BlockProfiler{
		Profiler:   NewProfiler(4096),
		sampleRate: sampleRate,
	}
}

// Budget returns the real-time duration of a block of frames.
func (b *BlockProfiler) Budget(frames int) time.Duration {
	if b.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / b.sampleRate * float64(time.Second))
}

// Measure runs fn for a block of frames, recording its time and whether
// it exceeded the block's budget.
func (b *BlockProfiler) Measure(frames int, fn func()) {
	start := time.Now()
	fn()
	b.Observe(frames, time.Since(start))
}

// Observe records an externally timed block.
func (b *BlockProfiler) Observe(frames int, elapsed time.Duration) {
	if !b.IsEnabled() {
		return
	}
	b.Record(BlockSection, elapsed)
	b.frames.Add(uint64(frames))
	if elapsed > b.Budget(frames) {
		b.overruns.Add(1)
	}
}

// Overruns returns the number of blocks slower than real time.
func (b *BlockProfiler) Overruns() uint64 {
	return b.overruns.Load()
}

// Load returns the total processing time as a percentage of the audio
// duration processed.
func (b *BlockProfiler) Load() float64 {
	m, ok := b.Stats(BlockSection)
	audio := b.Budget(int(b.frames.Load()))
	if !ok || audio == 0 {
		return 0
	}
	return float64(m.Total) / float64(audio) * 100
}

// BlockReport formats the block timings and real-time load.
func (b *BlockProfiler) BlockReport() string {
	var sb strings.Builder
	sb.WriteString(b.Report())
	fmt.Fprintf(&sb, "sample_rate=%.0f frames=%d load=%.2f%% overruns=%d\n",
		b.sampleRate, b.frames.Load(), b.Load(), b.Overruns())
	return sb.String()
}
