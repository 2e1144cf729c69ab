package api

import (
    "log"
    "net/http"

    "frota/internal/model"
)

// VehiclesHandler handles GET /gestao/vehicles. The list is the store's view
// of the fleet, restricted to the caller's scope.
func (s *Server) VehiclesHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    caller := callerFrom(r.Context())
    items, err := s.Store.ListVehicles(r.Context(), caller.VehicleIDs)
    if err != nil {
        log.Printf("list vehicles: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not list vehicles", r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// VehicleSyncHandler handles POST /gestao/vehicles/sync: pull the device list
// from the tracking server with the service account and upsert it locally in
// one transaction.
func (s *Server) VehicleSyncHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    devices, err := s.Tracker.Devices(r.Context())
    if err != nil {
        log.Printf("tracker devices (sync): %v", err)
        writeProblem(w, http.StatusBadGateway, "Upstream error", "could not fetch devices", r.URL.Path)
        return
    }
    vehicles := make([]model.Vehicle, 0, len(devices))
    for _, d := range devices {
        vehicles = append(vehicles, model.Vehicle{DeviceID: d.ID, Name: d.Name, UniqueID: d.UniqueID, Status: d.Status})
    }
    if err := s.Store.UpsertVehicles(r.Context(), vehicles); err != nil {
        log.Printf("upsert vehicles: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not persist vehicles", r.URL.Path)
        return
    }
    s.Broker.Publish(topicFleet, Event{Type: "vehicle.synced", Data: map[string]any{"count": len(vehicles)}})
    writeJSON(w, http.StatusOK, map[string]any{"synced": len(vehicles)})
}
