package api

import (
    "context"
    "net/http"
    "time"

    "frota/internal/buildinfo"
)

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    // Check DB connectivity when using Postgres store
    type pinger interface{ Ping(ctx context.Context) error }
    if pg, ok := s.Store.(pinger); ok {
        ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
        defer cancel()
        if err := pg.Ping(ctx); err != nil { writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path); return }
    }
    writeJSON(w, 200, map[string]string{"status": "ready"})
}

// VersionHandler handles GET /version.
func (s *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, buildinfo.Info())
}
