package session

import (
	"sync"
	"time"
)

// maxSamples bounds the rolling latency window.
const maxSamples = 50

type sample struct {
	elapsed time.Duration
	failed  bool
}

// Metrics keeps lightweight per-session diagnostics. Local only, never
// transmitted.
type Metrics struct {
	mu            sync.Mutex
	samples       []sample
	totalRequests int
	errorCount    int
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record adds one request outcome, keeping only the most recent samples.
func (m *Metrics) Record(elapsed time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	if failed {
		m.errorCount++
	}

	m.samples = append(m.samples, sample{elapsed: elapsed, failed: failed})
	if len(m.samples) > maxSamples {
		m.samples = m.samples[len(m.samples)-maxSamples:]
	}
}

type MetricsSnapshot struct {
	TotalRequests  int           `json:"total_requests"`
	ErrorCount     int           `json:"error_count"`
	SampleCount    int           `json:"sample_count"`
	AverageLatency time.Duration `json:"average_latency_ms"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		TotalRequests: m.totalRequests,
		ErrorCount:    m.errorCount,
		SampleCount:   len(m.samples),
	}
	if len(m.samples) > 0 {
		var total time.Duration
		for _, s := range m.samples {
			total += s.elapsed
		}
		snap.AverageLatency = total / time.Duration(len(m.samples))
	}
	return snap
}
