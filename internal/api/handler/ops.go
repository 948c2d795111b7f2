// Package handler provides the HTTP handlers of the sunset bot worker.
package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/sunsetbot/sunsetbot/internal/api/models"
	"github.com/sunsetbot/sunsetbot/internal/api/response"
	"github.com/sunsetbot/sunsetbot/internal/provider/resilience"
)

// UpstreamReporter reports the health of the bot's upstream clients.
type UpstreamReporter interface {
	All() []resilience.UpstreamHealth
	Ready() bool
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	upstreams UpstreamReporter
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler. upstreams may be nil, in which case
// the worker is always ready and reports no upstreams.
func NewOpsHandler(version, buildTime string, upstreams UpstreamReporter) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		upstreams: upstreams,
		now:       time.Now,
	}
}

// HealthCheck handles GET /health: the process is up.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]string{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /ready: 503 while any upstream breaker is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.upstreams != nil && !h.upstreams.Ready() {
		response.ServiceUnavailable(w, r, "an upstream circuit breaker is open")
		return
	}
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	})
}

// SystemStatus handles GET /v1/ops/status: per-upstream breaker state and
// last outcomes.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(h.now()),
		Upstreams: []models.UpstreamStatus{},
	}

	if h.upstreams != nil {
		for _, u := range h.upstreams.All() {
			us := toUpstreamStatus(u)
			status.Upstreams = append(status.Upstreams, us)
			status.Status = worst(status.Status, us.Status)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func toUpstreamStatus(u resilience.UpstreamHealth) models.UpstreamStatus {
	us := models.UpstreamStatus{
		Name:         u.Name,
		Status:       models.HealthStatusOK,
		CircuitState: u.CircuitState.String(),
	}
	switch u.CircuitState {
	case gobreaker.StateHalfOpen:
		us.Status = models.HealthStatusDegraded
	case gobreaker.StateOpen:
		us.Status = models.HealthStatusFail
	}
	if u.LastSuccessAt != nil {
		us.LastSuccessAt = models.TimestampPtr(*u.LastSuccessAt)
	}
	if u.LastFailureAt != nil {
		us.LastFailureAt = models.TimestampPtr(*u.LastFailureAt)
	}
	if u.LastError != "" {
		msg := u.LastError
		us.Message = &msg
	}
	return us
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	rank := map[models.HealthStatus]int{
		models.HealthStatusOK:       0,
		models.HealthStatusDegraded: 1,
		models.HealthStatusFail:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
