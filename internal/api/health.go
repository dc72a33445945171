package api

import (
	"net/http"
	"time"

	"github.com/tinkeringguild/logquest-go/internal/index"
	"github.com/tinkeringguild/logquest-go/internal/timers"
)

// HealthCheck is one named liveness probe for an optional collaborator
// (the postgres event log, the MQTT publisher, the S3 audio archive).
// Components that are disabled simply don't register a HealthCheck.
type HealthCheck struct {
	Name  string
	Check func() error
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	TriggerCount  int               `json:"trigger_count"`
	LiveTimers    int               `json:"live_timers"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// HealthHandler reports process liveness plus the state of whichever
// optional collaborators were registered with it.
type HealthHandler struct {
	idx       *index.Index
	timerMgr  *timers.Manager
	version   string
	startTime time.Time
	checks    []HealthCheck
}

func NewHealthHandler(idx *index.Index, timerMgr *timers.Manager, version string, startTime time.Time, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{idx: idx, timerMgr: timerMgr, version: version, startTime: startTime, checks: checks}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	var results map[string]string
	if len(h.checks) > 0 {
		results = make(map[string]string, len(h.checks))
		for _, c := range h.checks {
			if err := c.Check(); err != nil {
				results[c.Name] = "error: " + err.Error()
				status = "degraded"
			} else {
				results[c.Name] = "ok"
			}
		}
	}

	resp := HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		TriggerCount:  h.idx.Count(),
		LiveTimers:    h.timerMgr.Count(),
		Checks:        results,
	}

	// A degraded optional collaborator never takes the process itself down,
	// so this always answers 200; Status/Checks carry the actual state.
	WriteJSON(w, http.StatusOK, resp)
}
