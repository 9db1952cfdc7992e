package r9y

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// StatusHandler returns an [http.Handler] that reports the status of all
// policies registered with m. It responds with 200 OK when every breaker
// admits attempts, and 503 Service Unavailable when any policy's breaker
// is open. The response body is always a JSON-encoded [ManagerStatus].
func StatusHandler(m *Manager) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		status := m.Status()

		writer.Header().Set("Content-Type", "application/json")

		if status.Healthy {
			writer.WriteHeader(http.StatusOK)
		} else {
			writer.WriteHeader(http.StatusServiceUnavailable)
		}

		//nolint:errcheck // best-effort JSON encoding to HTTP response
		_ = json.NewEncoder(writer).Encode(status)
	})
}
