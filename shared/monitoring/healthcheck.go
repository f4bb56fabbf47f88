package monitoring

import "time"

// HealthReport is the liveness payload.
type HealthReport struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// StatusReport is the operational status payload.
type StatusReport struct {
	Status         string            `json:"status"`
	ModelConnected bool              `json:"model_connected"`
	ModelCheckedAt string            `json:"model_checked_at,omitempty"`
	Healthy        bool              `json:"healthy"`
	LastRun        string            `json:"last_run"`
	Timestamp      string            `json:"timestamp"`
	Endpoints      map[string]string `json:"endpoints"`
}

func (m *Monitor) Health(service, version string) HealthReport {
	return HealthReport{
		Status:    "healthy",
		Service:   service,
		Version:   version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Status builds the status payload. connected is the live probe result when
// the caller has one; otherwise the cached probe result is reported.
func (m *Monitor) Status(connected *bool, endpoints map[string]string) StatusReport {
	cached, checkedAt := m.ModelConnected()
	report := StatusReport{
		Status:         "online",
		ModelConnected: cached,
		Healthy:        m.IsHealthy(),
		LastRun:        m.GetStatusSummary(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Endpoints:      endpoints,
	}
	if connected != nil {
		report.ModelConnected = *connected
	} else if !checkedAt.IsZero() {
		report.ModelCheckedAt = checkedAt.UTC().Format(time.RFC3339)
	}
	return report
}
