package profiler

import (
	"fmt"
	"log"
	"runtime"
	"time"
)

// Report is one interval's worth of frame and memory statistics.
type Report struct {
	Frames      int
	FPS         float64
	AvgFrameMs  float64
	MaxFrameMs  float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64

	// Detail is the output of the detail function set with WithDetail.
	Detail string
}

// String formats the report as one log line.
func (r Report) String() string {
	s := fmt.Sprintf("FPS: %.2f | Frame: %.2f ms avg, %.2f ms max | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		r.FPS, r.AvgFrameMs, r.MaxFrameMs, r.HeapMB, r.AllocRateMB, r.GCCount, r.LastPauseUs, r.MaxPauseUs, r.SysMB)
	if r.Detail != "" {
		s += " | " + r.Detail
	}
	return s
}

// Profiler tracks frame rate, frame time and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	frameTotal     time.Duration
	frameMax       time.Duration
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now    func() time.Time
	detail func() string
	quiet  bool
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often a report is produced. Values <= 0 are ignored.
//
// Parameters:
//   - d: the report interval
//
// Returns:
//   - ProfilerOption: option function to apply
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithDetail appends the output of fn to every report, for renderer state such as the
// strategy, light count and cluster grid.
//
// Parameters:
//   - fn: called once per report
//
// Returns:
//   - ProfilerOption: option function to apply
func WithDetail(fn func() string) ProfilerOption {
	return func(p *Profiler) {
		p.detail = fn
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithQuiet stops Tick from logging. Reports are still returned.
func WithQuiet(quiet bool) ProfilerOption {
	return func(p *Profiler) {
		p.quiet = quiet
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with the time the frame took.
// Logs performance statistics when the update interval has elapsed.
//
// Parameters:
//   - frameTime: the duration of the frame just finished
//
// Returns:
//   - Report: the statistics of the finished interval, zero when none finished
//   - bool: true if an interval finished this tick
func (p *Profiler) Tick(frameTime time.Duration) (Report, bool) {
	p.frameCount++
	p.frameTotal += frameTime
	p.frameMax = max(p.frameMax, frameTime)

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Report{}, false
	}

	r := Report{
		Frames:     p.frameCount,
		FPS:        float64(p.frameCount) / elapsed.Seconds(),
		AvgFrameMs: float64(p.frameTotal.Microseconds()) / 1000 / float64(p.frameCount),
		MaxFrameMs: float64(p.frameMax.Microseconds()) / 1000,
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	r.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	r.GCCount = gcCount
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}
	if p.detail != nil {
		r.Detail = p.detail()
	}

	if !p.quiet {
		log.Printf("[Profiler] %s", r)
	}

	p.frameCount = 0
	p.frameTotal = 0
	p.frameMax = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return r, true
}
