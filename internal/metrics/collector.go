// Package metrics collects connection and tool-invocation statistics for the bridge.
// file: internal/metrics/collector.go
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the collected statistics.
type Snapshot struct {
	StartTime time.Time     `json:"startTime"`
	Uptime    time.Duration `json:"uptime"`

	// Connection stats.
	ConnectAttempts  int `json:"connectAttempts"`
	ConnectSuccesses int `json:"connectSuccesses"`
	ConnectFailures  int `json:"connectFailures"`
	Disconnects      int `json:"disconnects"`

	// Catalog stats.
	CatalogBuilds    int `json:"catalogBuilds"`
	CatalogCacheHits int `json:"catalogCacheHits"`

	// Invocation stats keyed by tool name.
	Invocations map[string]InvocationStats `json:"invocations"`

	// Last errors.
	LastErrors []ErrorInfo `json:"lastErrors,omitempty"`
}

// InvocationStats aggregates calls to one tool.
type InvocationStats struct {
	Calls        int     `json:"calls"`
	Failures     int     `json:"failures"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}

// ErrorInfo contains details about an error that occurred.
type ErrorInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
}

// Recorder is what instrumented components write to.
type Recorder interface {
	RecordConnectAttempt()
	RecordConnectResult(err error)
	RecordDisconnect()
	RecordCatalogBuild(cacheHit bool)
	RecordInvocation(tool string, latency time.Duration, err error)
	RecordError(component, kind, message string)
}

// NopRecorder discards everything.
type NopRecorder struct{}

// RecordConnectAttempt implements Recorder.
func (NopRecorder) RecordConnectAttempt() {}

// RecordConnectResult implements Recorder.
func (NopRecorder) RecordConnectResult(error) {}

// RecordDisconnect implements Recorder.
func (NopRecorder) RecordDisconnect() {}

// RecordCatalogBuild implements Recorder.
func (NopRecorder) RecordCatalogBuild(bool) {}

// RecordInvocation implements Recorder.
func (NopRecorder) RecordInvocation(string, time.Duration, error) {}

// RecordError implements Recorder.
func (NopRecorder) RecordError(string, string, string) {}

// Collector is an in-memory Recorder.
type Collector struct {
	mu          sync.RWMutex
	snapshot    Snapshot
	errorBuffer []ErrorInfo
	bufferSize  int
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a collector that keeps the last errorBufferSize errors.
func NewCollector(errorBufferSize int) *Collector {
	if errorBufferSize <= 0 {
		errorBufferSize = 10
	}
	return &Collector{
		snapshot: Snapshot{
			StartTime:   time.Now(),
			Invocations: make(map[string]InvocationStats),
		},
		errorBuffer: make([]ErrorInfo, 0, errorBufferSize),
		bufferSize:  errorBufferSize,
	}
}

// Snapshot returns a copy of the current statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.snapshot
	s.Uptime = time.Since(s.StartTime)
	s.Invocations = make(map[string]InvocationStats, len(c.snapshot.Invocations))
	for k, v := range c.snapshot.Invocations {
		s.Invocations[k] = v
	}
	if len(c.errorBuffer) > 0 {
		s.LastErrors = make([]ErrorInfo, len(c.errorBuffer))
		copy(s.LastErrors, c.errorBuffer)
	}
	return s
}

// ToolNames returns the names of invoked tools in lexical order.
func (s Snapshot) ToolNames() []string {
	names := make([]string, 0, len(s.Invocations))
	for name := range s.Invocations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecordConnectAttempt counts a connect attempt that actually started.
func (c *Collector) RecordConnectAttempt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.ConnectAttempts++
}

// RecordConnectResult counts the outcome of an attempt.
func (c *Collector) RecordConnectResult(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.snapshot.ConnectFailures++
		return
	}
	c.snapshot.ConnectSuccesses++
}

// RecordDisconnect counts a disconnect of a live or connecting session.
func (c *Collector) RecordDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Disconnects++
}

// RecordCatalogBuild counts a catalog build.
func (c *Collector) RecordCatalogBuild(cacheHit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.CatalogBuilds++
	if cacheHit {
		c.snapshot.CatalogCacheHits++
	}
}

// RecordInvocation records statistics about a tool call.
func (c *Collector) RecordInvocation(tool string, latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.snapshot.Invocations[tool]
	stats.Calls++
	if err != nil {
		stats.Failures++
	}
	ms := float64(latency) / float64(time.Millisecond)
	stats.AvgLatencyMs += (ms - stats.AvgLatencyMs) / float64(stats.Calls)
	c.snapshot.Invocations[tool] = stats
}

// RecordError adds an error to the ring buffer.
func (c *Collector) RecordError(component, kind, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.errorBuffer) >= c.bufferSize {
		c.errorBuffer = c.errorBuffer[1:]
	}
	c.errorBuffer = append(c.errorBuffer, ErrorInfo{
		Timestamp: time.Now(),
		Component: component,
		Kind:      kind,
		Message:   message,
	})
}
