package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"transcript-assistant/shared/logging"
)

// Monitor tracks the outcome of the most recent pipeline run and the last
// known language-model connectivity. Safe for concurrent use.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastRunError   string
	modelConnected bool
	modelCheckedAt time.Time
	logger         zerolog.Logger
}

func NewMonitor() *Monitor {
	return &Monitor{logger: logging.WithComponent("monitor")}
}

func (m *Monitor) RecordSuccess(mediaID string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastRunError = ""
	m.mu.Unlock()

	RequestsTotal.WithLabelValues("success").Inc()
	ProcessingSeconds.Observe(duration.Seconds())
	m.logger.Info().Str("media_id", mediaID).Dur("duration", duration).Msg("pipeline run completed")
}

// RecordFailure updates state and metrics only. The caller logs the failure.
func (m *Monitor) RecordFailure(stage string, err error, _ time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastRunError = err.Error()
	m.mu.Unlock()

	RequestsTotal.WithLabelValues("failure").Inc()
	StageFailuresTotal.WithLabelValues(stage).Inc()
}

// RecordDegradedMetadata counts a run that continued with placeholder metadata.
func (m *Monitor) RecordDegradedMetadata(source string) {
	MetadataDegradedTotal.WithLabelValues(source).Inc()
}

func (m *Monitor) RecordModelCheck(connected bool) {
	m.mu.Lock()
	changed := m.modelCheckedAt.IsZero() || m.modelConnected != connected
	m.modelConnected = connected
	m.modelCheckedAt = time.Now()
	m.mu.Unlock()

	if connected {
		ModelConnected.Set(1)
	} else {
		ModelConnected.Set(0)
	}
	if changed {
		m.logger.Info().Bool("connected", connected).Msg("language model connectivity changed")
	}
}

// ModelConnected returns the last probe result and when it was taken. The
// time is zero if no probe has run.
func (m *Monitor) ModelConnected() (bool, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modelConnected, m.modelCheckedAt
}

// IsHealthy is true until a run fails, and again after the next success.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("Last run failed: %s (%s)", m.lastRunTime.Format("Jan 2 15:04"), m.lastRunError)
}
