package api

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "strings"
    "time"

    "frota/internal/model"
    "frota/internal/store"
)

// TripsHandler handles GET /gestao/trips and GET /app/motorista/trips.
func (s *Server) TripsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    caller := callerFrom(r.Context())
    items, err := s.Store.ListTrips(r.Context(), r.URL.Query().Get("status"), caller.VehicleIDs)
    if err != nil {
        log.Printf("list trips: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not list trips", r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// TripStartHandler handles POST /gestao/trips/start and
// POST /app/motorista/trips/start.
func (s *Server) TripStartHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var in model.TripStartIn
    if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateTripStart(&in); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid trip", err.Error(), r.URL.Path)
        return
    }
    caller := callerFrom(r.Context())
    if !caller.CanAccess(in.DeviceID) {
        writeProblem(w, http.StatusForbidden, "Forbidden", "vehicle outside your scope", r.URL.Path)
        return
    }
    if in.VehicleName == "" {
        if vs, err := s.Store.ListVehicles(r.Context(), []int64{in.DeviceID}); err == nil && len(vs) == 1 {
            in.VehicleName = vs[0].Name
        }
    }
    t, err := s.Store.StartTrip(r.Context(), in)
    if err != nil {
        log.Printf("start trip: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not start trip", r.URL.Path)
        return
    }
    s.Broker.Publish(topicFleet, Event{Type: "trip.started", Data: map[string]any{"tripId": t.ID, "deviceId": t.DeviceID}})
    writeJSON(w, http.StatusCreated, t)
}

// TripByIDHandler handles /gestao/trips/{id}/finish and /gestao/trips/{id}/costs
// (and their /app/motorista twins via pathPrefix).
func (s *Server) TripByIDHandler(prefix string) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        rest := strings.TrimPrefix(r.URL.Path, prefix)
        parts := strings.Split(rest, "/")
        if len(parts) != 2 || parts[0] == "" {
            w.WriteHeader(http.StatusNotFound)
            return
        }
        id := parts[0]
        switch parts[1] {
        case "finish":
            s.tripFinish(w, r, id)
        case "costs":
            s.tripCosts(w, r, id)
        default:
            w.WriteHeader(http.StatusNotFound)
        }
    }
}

// tripFinish handles PUT .../trips/{id}/finish.
func (s *Server) tripFinish(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodPut {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req struct {
        TotalDistanceKm float64 `json:"totalDistanceKm"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if req.TotalDistanceKm < 0 {
        writeProblem(w, http.StatusBadRequest, "Invalid trip", "totalDistanceKm must be >= 0", r.URL.Path)
        return
    }
    t, err := s.Store.GetTrip(r.Context(), id)
    if err != nil {
        s.tripStoreProblem(w, r, err, "could not load trip")
        return
    }
    caller := callerFrom(r.Context())
    if !caller.CanAccess(t.DeviceID) {
        writeProblem(w, http.StatusForbidden, "Forbidden", "vehicle outside your scope", r.URL.Path)
        return
    }
    if t.Status == model.TripFinished {
        writeProblem(w, http.StatusBadRequest, "Invalid trip", "trip already finished", r.URL.Path)
        return
    }
    t, err = s.Store.FinishTrip(r.Context(), id, req.TotalDistanceKm, time.Now())
    if err != nil {
        s.tripStoreProblem(w, r, err, "could not finish trip")
        return
    }
    s.Broker.Publish(topicFleet, Event{Type: "trip.finished", Data: map[string]any{"tripId": t.ID, "deviceId": t.DeviceID, "totalDistanceKm": t.TotalDistanceKm}})
    writeJSON(w, http.StatusOK, t)
}

// tripCosts handles GET/POST .../trips/{id}/costs.
func (s *Server) tripCosts(w http.ResponseWriter, r *http.Request, id string) {
    t, err := s.Store.GetTrip(r.Context(), id)
    if err != nil {
        s.tripStoreProblem(w, r, err, "could not load trip")
        return
    }
    caller := callerFrom(r.Context())
    if !caller.CanAccess(t.DeviceID) {
        writeProblem(w, http.StatusForbidden, "Forbidden", "vehicle outside your scope", r.URL.Path)
        return
    }
    switch r.Method {
    case http.MethodGet:
        items, err := s.Store.ListTripCosts(r.Context(), id)
        if err != nil {
            log.Printf("list trip costs: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "could not list costs", r.URL.Path)
            return
        }
        var total float64
        for _, c := range items { total += c.Value }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
    case http.MethodPost:
        var in model.CostIn
        if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        in.TripID = id
        in.DeviceID = t.DeviceID
        if err := validateCostIn(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid cost", err.Error(), r.URL.Path)
            return
        }
        c, err := s.Store.CreateCost(r.Context(), in)
        if err != nil {
            log.Printf("create trip cost: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "could not create cost", r.URL.Path)
            return
        }
        s.Broker.Publish(topicFleet, Event{Type: "cost.created", Data: map[string]any{"costId": c.ID, "tripId": id, "deviceId": c.DeviceID, "value": c.Value}})
        writeJSON(w, http.StatusCreated, c)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

func (s *Server) tripStoreProblem(w http.ResponseWriter, r *http.Request, err error, detail string) {
    if errors.Is(err, store.ErrNotFound) {
        writeProblem(w, http.StatusNotFound, "Not found", "trip not found", r.URL.Path)
        return
    }
    log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
    writeProblem(w, http.StatusInternalServerError, "Internal error", detail, r.URL.Path)
}
