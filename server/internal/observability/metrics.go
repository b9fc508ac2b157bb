package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates counters for the engine's AI operations (ask, resend,
// topics, note, summary), keyed by operation name.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	operations map[string]*OperationMetrics
}

// OperationMetrics tracks one operation's counters.
type OperationMetrics struct {
	count         atomic.Int64
	errorCount    atomic.Int64
	totalDuration atomic.Int64 // milliseconds
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{operations: make(map[string]*OperationMetrics)}
}

var globalMetrics = NewMetrics()

// GlobalMetrics returns the process-wide collector.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest counts one started operation.
func (m *Metrics) RecordRequest(operation string) {
	m.requestTotal.Add(1)
	m.operation(operation).count.Add(1)
}

// RecordFailure counts one failed operation.
func (m *Metrics) RecordFailure(operation string) {
	m.requestFailed.Add(1)
	m.operation(operation).errorCount.Add(1)
}

// RecordDuration adds one operation's wall time.
func (m *Metrics) RecordDuration(operation string, duration time.Duration) {
	m.operation(operation).totalDuration.Add(duration.Milliseconds())
}

func (m *Metrics) operation(name string) *OperationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	om, ok := m.operations[name]
	if !ok {
		om = &OperationMetrics{}
		m.operations[name] = om
	}
	return om
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.mu.Lock()
	m.operations = make(map[string]*OperationMetrics)
	m.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the counters.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make(map[string]*OperationSnapshot, len(m.operations))
	for name, om := range m.operations {
		count := om.count.Load()
		snapshot := &OperationSnapshot{
			Count:         count,
			ErrorCount:    om.errorCount.Load(),
			TotalDuration: om.totalDuration.Load(),
		}
		if count > 0 {
			snapshot.AverageDuration = snapshot.TotalDuration / count
		}
		ops[name] = snapshot
	}
	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Operations:    ops,
	}
}

// MetricsSnapshot is a point-in-time view of the collector.
type MetricsSnapshot struct {
	RequestTotal  int64                         `json:"requestTotal"`
	RequestFailed int64                         `json:"requestFailed"`
	Operations    map[string]*OperationSnapshot `json:"operations"`
}

// OperationSnapshot is one operation's counters, durations in milliseconds.
type OperationSnapshot struct {
	Count           int64 `json:"count"`
	ErrorCount      int64 `json:"errorCount"`
	TotalDuration   int64 `json:"totalDuration"`
	AverageDuration int64 `json:"averageDuration"`
}

// SuccessRate returns the success rate as a percentage.
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
