package debug

import (
	"strings"
	"testing"
	"time"
)

func TestProfiler(t *testing.T) {
	t.Run("BasicProfiling", func(t *testing.T) {
		p := NewProfiler(100)

		stop := p.Start("test")
		time.Sleep(10 * time.Millisecond)
		stop()

		m, ok := p.Stats("test")
		if !ok {
			t.Fatal("Measurement not found")
		}
		if m.Count != 1 {
			t.Errorf("Expected count 1, got %d", m.Count)
		}
		if m.Last < 10*time.Millisecond {
			t.Error("Timing seems too short")
		}
	})

	t.Run("Statistics", func(t *testing.T) {
		p := NewProfiler(100)
		for i := 1; i <= 4; i++ {
			p.Record("s", time.Duration(i)*time.Millisecond)
		}

		m, _ := p.Stats("s")
		if m.Count != 4 {
			t.Errorf("Count = %d, want 4", m.Count)
		}
		if m.Min != time.Millisecond || m.Max != 4*time.Millisecond {
			t.Errorf("Min/Max = %v/%v", m.Min, m.Max)
		}
		if m.Average() != 2500*time.Microsecond {
			t.Errorf("Average = %v, want 2.5ms", m.Average())
		}
		if m.Percentile(0) != time.Millisecond || m.Percentile(100) != 4*time.Millisecond {
			t.Errorf("Percentiles = %v/%v", m.Percentile(0), m.Percentile(100))
		}
	})

	t.Run("SampleWindow", func(t *testing.T) {
		p := NewProfiler(2)
		p.Record("w", 10*time.Millisecond)
		p.Record("w", time.Millisecond)
		p.Record("w", 2*time.Millisecond)

		m, _ := p.Stats("w")
		if m.Percentile(100) != 2*time.Millisecond {
			t.Errorf("Oldest sample should be evicted, p100 = %v", m.Percentile(100))
		}
		if m.Max != 10*time.Millisecond {
			t.Errorf("Max should cover all samples, got %v", m.Max)
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		p := NewProfiler(10)
		p.SetEnabled(false)
		p.Time("off", func() {})

		if _, ok := p.Stats("off"); ok {
			t.Error("Disabled profiler should not record")
		}
	})

	t.Run("Report", func(t *testing.T) {
		p := NewProfiler(10)
		if !strings.Contains(p.Report(), "No measurements") {
			t.Error("Empty report should say so")
		}

		p.Record("b", time.Millisecond)
		p.Record("a", time.Millisecond)
		report := p.Report()
		if strings.Index(report, "a:") > strings.Index(report, "b:") {
			t.Errorf("Report should list sections in order:\n%s", report)
		}

		p.Reset()
		if len(p.Names()) != 0 {
			t.Error("Reset should clear sections")
		}
	})
}

func TestBlockProfiler(t *testing.T) {
	b := NewBlockProfiler(48000)

	if got := b.Budget(480); got != 10*time.Millisecond {
		t.Fatalf("Budget(480) = %v, want 10ms", got)
	}

	b.Observe(480, 5*time.Millisecond)
	b.Observe(480, 15*time.Millisecond)

	if b.Overruns() != 1 {
		t.Errorf("Overruns = %d, want 1", b.Overruns())
	}
	if load := b.Load(); load < 99.9 || load > 100.1 {
		t.Errorf("Load = %.2f%%, want 100%%", load)
	}

	report := b.BlockReport()
	for _, want := range []string{BlockSection + ":", "frames=960", "overruns=1"} {
		if !strings.Contains(report, want) {
			t.Errorf("Report missing %q:\n%s", want, report)
		}
	}

	ran := false
	b.Measure(128, func() { ran = true })
	if !ran {
		t.Error("Measure should run the block")
	}
}
