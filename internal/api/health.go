package api

import (
	"net/http"
	"time"

	"github.com/mindmirror/mindmirror/internal/api/respond"
)

// HealthReporter is the aggregate view of dependency health.
type HealthReporter interface {
	IsHealthy() bool
	Components() map[string]bool
}

// HealthHandler serves the liveness banner plus component status.
type HealthHandler struct {
	reporter     HealthReporter
	storageMode  func() string
	analysisLive func() bool
}

func NewHealthHandler(reporter HealthReporter, storageMode func() string, analysisLive func() bool) *HealthHandler {
	return &HealthHandler{reporter: reporter, storageMode: storageMode, analysisLive: analysisLive}
}

// CheckHealth always returns 200; the body reports healthy or unhealthy.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	components := map[string]bool{}
	if h.reporter != nil {
		if !h.reporter.IsHealthy() {
			status = "unhealthy"
		}
		components = h.reporter.Components()
	}
	analysisMode := "demo"
	if h.analysisLive != nil && h.analysisLive() {
		analysisMode = "live"
	}
	storageMode := ""
	if h.storageMode != nil {
		storageMode = h.storageMode()
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "MindMirror API is running",
		"status":        status,
		"components":    components,
		"storage_mode":  storageMode,
		"analysis_mode": analysisMode,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
