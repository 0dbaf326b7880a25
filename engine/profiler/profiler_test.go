package profiler

import (
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func TestTickReportsPerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(
		WithClock(clock.now),
		WithQuiet(true),
		WithDetail(func() string { return "forward+ 500 lights" }),
	)

	for _, ms := range []int{10, 20} {
		clock.t = clock.t.Add(400 * time.Millisecond)
		if _, ok := p.Tick(time.Duration(ms) * time.Millisecond); ok {
			t.Fatal("report produced before the interval elapsed")
		}
	}

	clock.t = clock.t.Add(200 * time.Millisecond)
	r, ok := p.Tick(30 * time.Millisecond)
	if !ok {
		t.Fatal("no report after one second")
	}
	if r.Frames != 3 || r.FPS != 3 {
		t.Fatalf("frames = %d, fps = %v; want 3 and 3", r.Frames, r.FPS)
	}
	if r.AvgFrameMs != 20 || r.MaxFrameMs != 30 {
		t.Fatalf("frame time avg %v max %v, want 20 and 30", r.AvgFrameMs, r.MaxFrameMs)
	}
	if !strings.HasSuffix(r.String(), "| forward+ 500 lights") {
		t.Fatalf("String() = %q, want detail suffix", r.String())
	}

	clock.t = clock.t.Add(500 * time.Millisecond)
	if _, ok := p.Tick(time.Millisecond); ok {
		t.Fatal("counters should restart after a report")
	}
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	if p.updateInterval != time.Second {
		t.Fatalf("interval = %v, want the 1s default", p.updateInterval)
	}
	p = NewProfiler(WithInterval(250 * time.Millisecond))
	if p.updateInterval != 250*time.Millisecond {
		t.Fatalf("interval = %v", p.updateInterval)
	}
}
