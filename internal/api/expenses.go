package api

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "strings"

    "frota/internal/model"
    "frota/internal/store"
)

// CostsHandler handles GET/POST /gestao/costs and /app/motorista/costs.
// GET lists extra costs only (those not attached to a trip).
func (s *Server) CostsHandler(w http.ResponseWriter, r *http.Request) {
    caller := callerFrom(r.Context())
    switch r.Method {
    case http.MethodGet:
        items, err := s.Store.ListExtraCosts(r.Context(), caller.VehicleIDs)
        if err != nil {
            log.Printf("list costs: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "could not list costs", r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items})
    case http.MethodPost:
        var in model.CostIn
        if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateCostIn(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid cost", err.Error(), r.URL.Path)
            return
        }
        if !caller.CanAccess(in.DeviceID) {
            writeProblem(w, http.StatusForbidden, "Forbidden", "vehicle outside your scope", r.URL.Path)
            return
        }
        c, err := s.Store.CreateCost(r.Context(), in)
        if err != nil {
            if errors.Is(err, store.ErrNotFound) {
                writeProblem(w, http.StatusBadRequest, "Invalid cost", "trip not found", r.URL.Path)
                return
            }
            log.Printf("create cost: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "could not create cost", r.URL.Path)
            return
        }
        s.Broker.Publish(topicFleet, Event{Type: "cost.created", Data: map[string]any{"costId": c.ID, "deviceId": c.DeviceID, "value": c.Value}})
        writeJSON(w, http.StatusCreated, c)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// RefuelingsHandler handles GET/POST /gestao/refuelings and
// /app/motorista/refuelings.
func (s *Server) RefuelingsHandler(w http.ResponseWriter, r *http.Request) {
    caller := callerFrom(r.Context())
    switch r.Method {
    case http.MethodGet:
        items, err := s.Store.ListRefuelings(r.Context(), caller.VehicleIDs)
        if err != nil {
            log.Printf("list refuelings: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "could not list refuelings", r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items})
    case http.MethodPost:
        var in model.RefuelingIn
        if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateRefuelingIn(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid refueling", err.Error(), r.URL.Path)
            return
        }
        if !caller.CanAccess(in.DeviceID) {
            writeProblem(w, http.StatusForbidden, "Forbidden", "vehicle outside your scope", r.URL.Path)
            return
        }
        f, err := s.Store.CreateRefueling(r.Context(), in)
        if err != nil {
            if errors.Is(err, store.ErrNotFound) {
                writeProblem(w, http.StatusBadRequest, "Invalid refueling", "trip not found", r.URL.Path)
                return
            }
            log.Printf("create refueling: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "could not create refueling", r.URL.Path)
            return
        }
        s.Broker.Publish(topicFleet, Event{Type: "refueling.created", Data: map[string]any{"refuelingId": f.ID, "deviceId": f.DeviceID, "liters": f.Liters}})
        writeJSON(w, http.StatusCreated, f)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// MaintenancesHandler handles GET/POST /gestao/maintenances.
func (s *Server) MaintenancesHandler(w http.ResponseWriter, r *http.Request) {
    caller := callerFrom(r.Context())
    switch r.Method {
    case http.MethodGet:
        items, err := s.Store.ListMaintenances(r.Context(), caller.VehicleIDs)
        if err != nil {
            log.Printf("list maintenances: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "could not list maintenances", r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items})
    case http.MethodPost:
        var in model.MaintenanceIn
        if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateMaintenanceIn(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid maintenance", err.Error(), r.URL.Path)
            return
        }
        if !caller.CanAccess(in.DeviceID) {
            writeProblem(w, http.StatusForbidden, "Forbidden", "vehicle outside your scope", r.URL.Path)
            return
        }
        m, err := s.Store.CreateMaintenance(r.Context(), in)
        if err != nil {
            log.Printf("create maintenance: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "could not create maintenance", r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, m)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// MaintenanceByIDHandler handles DELETE /gestao/maintenances/{id}.
func (s *Server) MaintenanceByIDHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodDelete {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    id := strings.TrimPrefix(r.URL.Path, "/gestao/maintenances/")
    if id == "" || strings.Contains(id, "/") {
        w.WriteHeader(http.StatusNotFound)
        return
    }
    if err := s.Store.DeleteMaintenance(r.Context(), id); err != nil {
        if errors.Is(err, store.ErrNotFound) {
            writeProblem(w, http.StatusNotFound, "Not found", "maintenance not found", r.URL.Path)
            return
        }
        log.Printf("delete maintenance: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not delete maintenance", r.URL.Path)
        return
    }
    w.WriteHeader(http.StatusNoContent)
}
