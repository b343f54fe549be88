package handler

import (
	"net/http"
	"time"

	"tradejournal/src/events"
	"tradejournal/src/health"
)

// HealthcheckHandler answers liveness probes.
func HealthcheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// StatusHandler reports the cached upstream verdict plus a few liveness
// details about the service itself.
func StatusHandler(checker *health.Checker, hub *events.Hub, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, checkedAt := checker.Status()

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"upstream":         status,
			"upstream_checked": checkedAt,
			"subscribers":      hub.SubscriberCount(),
			"uptime_seconds":   int(time.Since(startedAt).Seconds()),
		})
	}
}
