package api

import (
    "fmt"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"
)

// ReportsHandler handles GET /gestao/reports/{name}. All reports accept an
// optional deviceId filter and, where it applies, a period of weekly or
// monthly (default: all time).
func (s *Server) ReportsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    caller := callerFrom(r.Context())
    deviceID, err := reportDeviceID(r)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid report", err.Error(), r.URL.Path)
        return
    }
    if deviceID != 0 && !caller.CanAccess(deviceID) {
        writeProblem(w, http.StatusForbidden, "Forbidden", "vehicle outside your scope", r.URL.Path)
        return
    }
    since, err := reportSince(r)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid report", err.Error(), r.URL.Path)
        return
    }

    name := strings.TrimPrefix(r.URL.Path, "/gestao/reports/")
    switch name {
    case "summary":
        out, err := s.Store.CostSummary(r.Context(), deviceID, caller.VehicleIDs)
        if err != nil { s.reportProblem(w, r, err); return }
        writeJSON(w, http.StatusOK, out)
    case "trip-costs":
        out, err := s.Store.TripCostReport(r.Context(), since, deviceID, caller.VehicleIDs)
        if err != nil { s.reportProblem(w, r, err); return }
        writeJSON(w, http.StatusOK, map[string]any{"items": out})
    case "extra-costs":
        out, err := s.Store.ExtraCostReport(r.Context(), since, deviceID, caller.VehicleIDs)
        if err != nil { s.reportProblem(w, r, err); return }
        writeJSON(w, http.StatusOK, map[string]any{"items": out})
    case "consumption":
        avg, err := s.Store.AverageConsumption(r.Context(), deviceID, caller.VehicleIDs)
        if err != nil { s.reportProblem(w, r, err); return }
        writeJSON(w, http.StatusOK, map[string]any{"avgKmPerLiter": avg})
    case "costs-by-category":
        out, err := s.Store.CostsByCategory(r.Context(), since, deviceID, caller.VehicleIDs)
        if err != nil { s.reportProblem(w, r, err); return }
        writeJSON(w, http.StatusOK, map[string]any{"items": out})
    default:
        w.WriteHeader(http.StatusNotFound)
    }
}

func reportDeviceID(r *http.Request) (int64, error) {
    v := r.URL.Query().Get("deviceId")
    if v == "" { return 0, nil }
    id, err := strconv.ParseInt(v, 10, 64)
    if err != nil || id <= 0 { return 0, fmt.Errorf("deviceId must be a positive integer") }
    return id, nil
}

func reportSince(r *http.Request) (time.Time, error) {
    switch period := r.URL.Query().Get("period"); period {
    case "":
        return time.Time{}, nil
    case "weekly":
        return time.Now().AddDate(0, 0, -7), nil
    case "monthly":
        return time.Now().AddDate(0, -1, 0), nil
    default:
        return time.Time{}, fmt.Errorf("period must be weekly or monthly")
    }
}

func (s *Server) reportProblem(w http.ResponseWriter, r *http.Request, err error) {
    log.Printf("report %s: %v", r.URL.Path, err)
    writeProblem(w, http.StatusInternalServerError, "Internal error", "could not build report", r.URL.Path)
}
