package api

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"

    "frota/internal/auth"
    "frota/internal/store"
)

// DriverVehiclesHandler handles GET /app/motorista/vehicles: the vehicles
// linked to the authenticated driver.
func (s *Server) DriverVehiclesHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    caller := callerFrom(r.Context())
    items, err := s.Store.ListVehicles(r.Context(), caller.VehicleIDs)
    if err != nil {
        log.Printf("list driver vehicles: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not list vehicles", r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// DriverPasswordHandler handles PUT /app/motorista/password: a driver changes
// their own password after proving the current one.
func (s *Server) DriverPasswordHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPut {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    caller := callerFrom(r.Context())
    var req struct {
        CurrentPassword string `json:"currentPassword"`
        Password        string `json:"password"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if len(req.Password) < minPasswordLen {
        writeProblem(w, http.StatusBadRequest, "Invalid password",
            "password must have at least 6 characters", r.URL.Path)
        return
    }
    d, err := s.Store.GetDriver(r.Context(), caller.DriverID)
    if err != nil || d.Username == "" {
        writeProblem(w, http.StatusNotFound, "Not found", "no credential on record", r.URL.Path)
        return
    }
    cred, err := s.Store.GetCredential(r.Context(), d.Username)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) {
            writeProblem(w, http.StatusNotFound, "Not found", "no credential on record", r.URL.Path)
            return
        }
        log.Printf("credential lookup: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not change password", r.URL.Path)
        return
    }
    if !auth.CheckPassword(cred.PasswordHash, req.CurrentPassword) {
        writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials", r.URL.Path)
        return
    }
    hash, err := auth.HashPassword(req.Password, s.Config.Auth.BcryptCost)
    if err != nil {
        log.Printf("hash password: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not change password", r.URL.Path)
        return
    }
    if err := s.Store.SetDriverPassword(r.Context(), caller.DriverID, hash); err != nil {
        log.Printf("set password: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not change password", r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
