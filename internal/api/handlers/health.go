package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

// Pinger reports backend reachability. *cache.Cache implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	redis  Pinger
	ffmpeg string
}

// NewHealthHandler creates the health endpoints. redis may be nil; ffmpeg is
// the resolved engine path, empty when unavailable.
func NewHealthHandler(redis Pinger, ffmpeg string) *HealthHandler {
	return &HealthHandler{redis: redis, ffmpeg: ffmpeg}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz fails only on redis; a missing media engine degrades to
// native-format-only processing and is reported, not failed.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if h.redis != nil {
		if err := h.redis.Ping(r.Context()); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	if h.ffmpeg != "" {
		checks["ffmpeg"] = "ok"
	} else {
		checks["ffmpeg"] = "unavailable"
	}

	writeJSON(w, status, map[string]interface{}{"status": statusStr(status), "checks": checks})
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
