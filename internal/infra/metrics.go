package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	bidsAccepted   atomic.Uint64
	bidsRejected   atomic.Uint64
	countdownTicks atomic.Uint64
	outbidEvents   atomic.Uint64

	// Bid apply latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	connectedClients atomic.Int32
	subscriptions    atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordBidAccepted records an accepted bid with its apply latency.
func (m *Metrics) RecordBidAccepted(latencyNs int64) {
	m.bidsAccepted.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordBidRejected records a rejected bid submission.
func (m *Metrics) RecordBidRejected() {
	m.bidsRejected.Add(1)
}

// RecordCountdownTick records one emitted countdown sample.
func (m *Metrics) RecordCountdownTick() {
	m.countdownTicks.Add(1)
}

// RecordOutbidEvent records one simulated outbid notification.
func (m *Metrics) RecordOutbidEvent() {
	m.outbidEvents.Add(1)
}

// IncrementClients increments connected live-view clients by 1.
func (m *Metrics) IncrementClients() {
	m.connectedClients.Add(1)
}

// DecrementClients decrements connected live-view clients by 1.
func (m *Metrics) DecrementClients() {
	m.connectedClients.Add(-1)
}

// IncrementSubscriptions increments active listing subscriptions by 1.
func (m *Metrics) IncrementSubscriptions() {
	m.subscriptions.Add(1)
}

// DecrementSubscriptions decrements active listing subscriptions by 1.
func (m *Metrics) DecrementSubscriptions() {
	m.subscriptions.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	BidsAccepted     uint64
	BidsRejected     uint64
	CountdownTicks   uint64
	OutbidEvents     uint64
	AvgApplyNs       int64
	ConnectedClients int32
	Subscriptions    int32
	Timestamp        time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		BidsAccepted:     m.bidsAccepted.Load(),
		BidsRejected:     m.bidsRejected.Load(),
		CountdownTicks:   m.countdownTicks.Load(),
		OutbidEvents:     m.outbidEvents.Load(),
		AvgApplyNs:       avgLatency,
		ConnectedClients: m.connectedClients.Load(),
		Subscriptions:    m.subscriptions.Load(),
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.bidsAccepted.Store(0)
	m.bidsRejected.Store(0)
	m.countdownTicks.Store(0)
	m.outbidEvents.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.connectedClients.Store(0)
	m.subscriptions.Store(0)
}
