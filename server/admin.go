package server

import (
	"encoding/json"
	"net/http"

	c "Dicalc/common"
	"Dicalc/storage"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// NewAdminRouter exposes health, Prometheus metrics and the current
// accumulator over HTTP. /value reads through the same gate as GET.
func NewAdminRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if s.Storage.Poisoned() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": storage.ErrStateInaccessible.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	r.Get("/value", func(w http.ResponseWriter, r *http.Request) {
		v, err := s.Storage.Get()
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		// decimal string, a 128-bit value does not fit a JSON number
		writeJSON(w, http.StatusOK, map[string]string{"value": v.String()})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Warnf("%s: encode response: %v", c.CurFuncName(), err)
	}
}
