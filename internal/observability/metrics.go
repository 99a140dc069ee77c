package observability

import (
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for sweep activity.
type Metrics struct {
	mu          sync.Mutex
	sweepRuns   map[string]int64
	sweepErrors map[string]int64
	escalations int64
	reminders   int64
	assignments int64
	apiErrors   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		sweepRuns:   make(map[string]int64),
		sweepErrors: make(map[string]int64),
		apiErrors:   make(map[string]int64),
	}
}

// RecordSweep counts a completed sweep tick for the named task.
func (m *Metrics) RecordSweep(task string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepRuns[task]++
	if err != nil {
		m.sweepErrors[task]++
	}
}

// RecordEscalation counts an escalated complaint.
func (m *Metrics) RecordEscalation() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalations++
}

// RecordReminder counts a reminder notification.
func (m *Metrics) RecordReminder() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders++
}

// RecordAssignment counts a successful auto-assignment.
func (m *Metrics) RecordAssignment() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments++
}

// RecordError counts an API error by its domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiErrors[code]++
}

// Snapshot returns current counter values keyed by metric name.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int64{
		"escalations": m.escalations,
		"reminders":   m.reminders,
		"assignments": m.assignments,
	}
	for task, n := range m.sweepRuns {
		out["sweep_runs:"+task] = n
	}
	for task, n := range m.sweepErrors {
		out["sweep_errors:"+task] = n
	}
	for code, n := range m.apiErrors {
		out["api_errors:"+code] = n
	}
	return out
}
