package api

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "strings"

    "frota/internal/auth"
    "frota/internal/model"
    "frota/internal/store"
)

// DriversHandler handles GET/POST /gestao/drivers.
func (s *Server) DriversHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodGet:
        items, err := s.Store.ListDrivers(r.Context())
        if err != nil {
            log.Printf("list drivers: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "could not list drivers", r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items})
    case http.MethodPost:
        var in model.DriverIn
        if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateDriverIn(&in, true); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid driver", err.Error(), r.URL.Path)
            return
        }
        var hash []byte
        if in.Password != "" {
            h, err := auth.HashPassword(in.Password, s.Config.Auth.BcryptCost)
            if err != nil {
                log.Printf("hash password: %v", err)
                writeProblem(w, http.StatusInternalServerError, "Internal error", "could not create driver", r.URL.Path)
                return
            }
            hash = h
        }
        d, err := s.Store.CreateDriver(r.Context(), in, hash)
        if err != nil {
            if errors.Is(err, store.ErrConflict) {
                writeProblem(w, http.StatusBadRequest, "Conflict", "username already in use", r.URL.Path)
                return
            }
            log.Printf("create driver: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "could not create driver", r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, d)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// DriverByIDHandler handles /gestao/drivers/{id} and its subresources
// {id}/password and {id}/vehicles.
func (s *Server) DriverByIDHandler(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/gestao/drivers/")
    parts := strings.Split(rest, "/")
    id := parts[0]
    if id == "" {
        writeProblem(w, http.StatusBadRequest, "Invalid path", "driver id required", r.URL.Path)
        return
    }
    if len(parts) == 2 {
        switch parts[1] {
        case "password":
            s.driverPassword(w, r, id)
        case "vehicles":
            s.driverVehicles(w, r, id)
        default:
            w.WriteHeader(http.StatusNotFound)
        }
        return
    }
    if len(parts) > 2 {
        w.WriteHeader(http.StatusNotFound)
        return
    }

    switch r.Method {
    case http.MethodGet:
        d, err := s.Store.GetDriver(r.Context(), id)
        if err != nil {
            s.driverStoreProblem(w, r, err, "could not load driver")
            return
        }
        writeJSON(w, http.StatusOK, d)
    case http.MethodPut:
        var in model.DriverIn
        if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateDriverIn(&in, false); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid driver", err.Error(), r.URL.Path)
            return
        }
        d, err := s.Store.UpdateDriver(r.Context(), id, in)
        if err != nil {
            s.driverStoreProblem(w, r, err, "could not update driver")
            return
        }
        writeJSON(w, http.StatusOK, d)
    case http.MethodDelete:
        if err := s.Store.DeleteDriver(r.Context(), id); err != nil {
            s.driverStoreProblem(w, r, err, "could not delete driver")
            return
        }
        w.WriteHeader(http.StatusNoContent)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// driverPassword handles PUT /gestao/drivers/{id}/password.
func (s *Server) driverPassword(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodPut {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req struct {
        Password string `json:"password"`
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
    hash, err := auth.HashPassword(req.Password, s.Config.Auth.BcryptCost)
    if err != nil {
        log.Printf("hash password: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not set password", r.URL.Path)
        return
    }
    if err := s.Store.SetDriverPassword(r.Context(), id, hash); err != nil {
        s.driverStoreProblem(w, r, err, "could not set password")
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// driverVehicles handles GET/PUT /gestao/drivers/{id}/vehicles. A dispatcher
// may only link vehicles within their own scope.
func (s *Server) driverVehicles(w http.ResponseWriter, r *http.Request, id string) {
    switch r.Method {
    case http.MethodGet:
        ids, err := s.Store.ListDriverVehicleIDs(r.Context(), id)
        if err != nil {
            s.driverStoreProblem(w, r, err, "could not list vehicle links")
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"deviceIds": ids})
    case http.MethodPut:
        var req struct {
            DeviceIDs []int64 `json:"deviceIds"`
        }
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        caller := callerFrom(r.Context())
        for _, deviceID := range req.DeviceIDs {
            if !caller.CanAccess(deviceID) {
                writeProblem(w, http.StatusForbidden, "Forbidden", "vehicle outside your scope", r.URL.Path)
                return
            }
        }
        if err := s.Store.ReplaceDriverVehicles(r.Context(), id, req.DeviceIDs); err != nil {
            s.driverStoreProblem(w, r, err, "could not replace vehicle links")
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"deviceIds": req.DeviceIDs})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

func (s *Server) driverStoreProblem(w http.ResponseWriter, r *http.Request, err error, detail string) {
    if errors.Is(err, store.ErrNotFound) {
        writeProblem(w, http.StatusNotFound, "Not found", "driver not found", r.URL.Path)
        return
    }
    log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
    writeProblem(w, http.StatusInternalServerError, "Internal error", detail, r.URL.Path)
}
