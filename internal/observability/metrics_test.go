package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/dashboard", "GET", 303, 10*time.Millisecond)
	m.RecordRequest("/dashboard", "GET", 303, 30*time.Millisecond)
	m.RecordError("/api/session", "POST", "VALIDATION_FAILED")
	m.RecordGuard("expired")
	m.RecordGuard("expired")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/dashboard|GET|303"])
	assert.Equal(t, int64(20), snap.AvgLatencyMsec["/dashboard|GET|303"])
	assert.Equal(t, int64(1), snap.Errors["/api/session|POST|VALIDATION_FAILED"])
	assert.Equal(t, int64(2), snap.GuardOutcomes["expired"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordGuard("authorized")
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	assert.Empty(t, m.Snapshot().Requests)
}
