package store

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"

    "frota/internal/model"
)

// Memory is the in-memory Store used when no DATABASE_URL is configured and
// throughout the test suite. Semantics mirror the Postgres implementation,
// including compound-write atomicity and uniqueness checks.
type Memory struct {
    mu           sync.RWMutex
    vehicles     map[int64]model.Vehicle
    drivers      map[string]model.Driver
    credentials  map[string]model.Credential // keyed by username
    driverLinks  map[string][]int64          // driverID -> device IDs
    trips        map[string]model.Trip
    costs        map[string]model.Cost
    refuelings   map[string]model.Refueling
    maintenances map[string]model.Maintenance
}

func NewMemory() *Memory {
    return &Memory{
        vehicles:     map[int64]model.Vehicle{},
        drivers:      map[string]model.Driver{},
        credentials:  map[string]model.Credential{},
        driverLinks:  map[string][]int64{},
        trips:        map[string]model.Trip{},
        costs:        map[string]model.Cost{},
        refuelings:   map[string]model.Refueling{},
        maintenances: map[string]model.Maintenance{},
    }
}

func (m *Memory) UpsertVehicles(_ context.Context, vehicles []model.Vehicle) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, v := range vehicles {
        if prev, ok := m.vehicles[v.DeviceID]; ok && v.Plate == "" { v.Plate = prev.Plate }
        m.vehicles[v.DeviceID] = v
    }
    return nil
}

func (m *Memory) ListVehicles(_ context.Context, scope []int64) ([]model.Vehicle, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    out := []model.Vehicle{}
    for _, v := range m.vehicles {
        if inScope(scope, v.DeviceID) { out = append(out, v) }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
    return out, nil
}

func (m *Memory) CreateDriver(_ context.Context, in model.DriverIn, passwordHash []byte) (model.Driver, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    // check the credential constraint before touching either map so a
    // duplicate username leaves no driver row behind
    if in.Username != "" {
        if _, taken := m.credentials[in.Username]; taken { return model.Driver{}, ErrConflict }
    }
    active := true
    if in.Active != nil { active = *in.Active }
    d := model.Driver{
        ID:        uuid.New().String(),
        Name:      in.Name,
        Phone:     in.Phone,
        LicenseNo: in.LicenseNo,
        Active:    active,
        Username:  in.Username,
    }
    m.drivers[d.ID] = d
    if in.Username != "" {
        m.credentials[in.Username] = model.Credential{Username: in.Username, PasswordHash: passwordHash, DriverID: d.ID, Active: active}
    }
    return d, nil
}

func (m *Memory) GetDriver(_ context.Context, id string) (model.Driver, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    d, ok := m.drivers[id]
    if !ok { return model.Driver{}, ErrNotFound }
    return d, nil
}

func (m *Memory) ListDrivers(_ context.Context) ([]model.Driver, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    out := []model.Driver{}
    for _, d := range m.drivers { out = append(out, d) }
    sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
    return out, nil
}

func (m *Memory) UpdateDriver(_ context.Context, id string, in model.DriverIn) (model.Driver, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    d, ok := m.drivers[id]
    if !ok { return model.Driver{}, ErrNotFound }
    if in.Name != "" { d.Name = in.Name }
    if in.Phone != "" { d.Phone = in.Phone }
    if in.LicenseNo != "" { d.LicenseNo = in.LicenseNo }
    if in.Active != nil {
        d.Active = *in.Active
        if c, ok := m.credentials[d.Username]; ok {
            c.Active = d.Active
            m.credentials[d.Username] = c
        }
    }
    m.drivers[id] = d
    return d, nil
}

func (m *Memory) DeleteDriver(_ context.Context, id string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    d, ok := m.drivers[id]
    if !ok { return ErrNotFound }
    delete(m.drivers, id)
    delete(m.driverLinks, id)
    if d.Username != "" { delete(m.credentials, d.Username) }
    return nil
}

func (m *Memory) GetCredential(_ context.Context, username string) (model.Credential, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    c, ok := m.credentials[username]
    if !ok { return model.Credential{}, ErrNotFound }
    return c, nil
}

func (m *Memory) SetDriverPassword(_ context.Context, driverID string, passwordHash []byte) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for username, c := range m.credentials {
        if c.DriverID == driverID {
            c.PasswordHash = passwordHash
            m.credentials[username] = c
            return nil
        }
    }
    return ErrNotFound
}

func (m *Memory) ListDriverVehicleIDs(_ context.Context, driverID string) ([]int64, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    ids := append([]int64{}, m.driverLinks[driverID]...)
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
    return ids, nil
}

func (m *Memory) ReplaceDriverVehicles(_ context.Context, driverID string, deviceIDs []int64) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.drivers[driverID]; !ok { return ErrNotFound }
    m.driverLinks[driverID] = append([]int64{}, deviceIDs...)
    return nil
}

func (m *Memory) StartTrip(_ context.Context, in model.TripStartIn) (model.Trip, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    t := model.Trip{
        ID:              uuid.New().String(),
        DeviceID:        in.DeviceID,
        VehicleName:     in.VehicleName,
        OriginCity:      in.OriginCity,
        DestinationCity: in.DestinationCity,
        Status:          model.TripOpen,
        StartedAt:       time.Now().UTC().Format(time.RFC3339),
    }
    m.trips[t.ID] = t
    return t, nil
}

func (m *Memory) GetTrip(_ context.Context, id string) (model.Trip, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    t, ok := m.trips[id]
    if !ok { return model.Trip{}, ErrNotFound }
    return t, nil
}

func (m *Memory) ListTrips(_ context.Context, status string, scope []int64) ([]model.Trip, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    status = strings.ToUpper(status)
    out := []model.Trip{}
    for _, t := range m.trips {
        if !inScope(scope, t.DeviceID) { continue }
        if status != "" && t.Status != status { continue }
        out = append(out, t)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
    return out, nil
}

func (m *Memory) FinishTrip(_ context.Context, id string, totalDistanceKm float64, at time.Time) (model.Trip, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    t, ok := m.trips[id]
    if !ok { return model.Trip{}, ErrNotFound }
    t.Status = model.TripFinished
    t.FinishedAt = at.UTC().Format(time.RFC3339)
    t.TotalDistanceKm = totalDistanceKm
    m.trips[id] = t
    return t, nil
}

func (m *Memory) CreateCost(_ context.Context, in model.CostIn) (model.Cost, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if in.TripID != "" {
        if _, ok := m.trips[in.TripID]; !ok { return model.Cost{}, ErrNotFound }
    }
    c := model.Cost{
        ID:          uuid.New().String(),
        DeviceID:    in.DeviceID,
        TripID:      in.TripID,
        Description: in.Description,
        Category:    strings.ToUpper(in.Category),
        Value:       in.Value,
        RecordedAt:  time.Now().UTC().Format(time.RFC3339),
    }
    m.costs[c.ID] = c
    return c, nil
}

func (m *Memory) ListExtraCosts(_ context.Context, scope []int64) ([]model.Cost, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    out := []model.Cost{}
    for _, c := range m.costs {
        if c.TripID == "" && inScope(scope, c.DeviceID) { out = append(out, c) }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt > out[j].RecordedAt })
    return out, nil
}

func (m *Memory) ListTripCosts(_ context.Context, tripID string) ([]model.Cost, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    out := []model.Cost{}
    for _, c := range m.costs {
        if c.TripID == tripID { out = append(out, c) }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt < out[j].RecordedAt })
    return out, nil
}

func (m *Memory) CreateRefueling(_ context.Context, in model.RefuelingIn) (model.Refueling, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if in.TripID != "" {
        if _, ok := m.trips[in.TripID]; !ok { return model.Refueling{}, ErrNotFound }
    }
    f := model.Refueling{
        ID:               uuid.New().String(),
        DeviceID:         in.DeviceID,
        TripID:           in.TripID,
        Odometer:         in.Odometer,
        Liters:           in.Liters,
        TotalValue:       in.TotalValue,
        PumpPhotoURL:     in.PumpPhotoURL,
        OdometerPhotoURL: in.OdometerPhotoURL,
        RecordedAt:       time.Now().UTC().Format(time.RFC3339Nano),
    }
    m.refuelings[f.ID] = f
    return f, nil
}

func (m *Memory) ListRefuelings(_ context.Context, scope []int64) ([]model.Refueling, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    out := []model.Refueling{}
    for _, f := range m.refuelings {
        if inScope(scope, f.DeviceID) { out = append(out, f) }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt > out[j].RecordedAt })
    return out, nil
}

func (m *Memory) CreateMaintenance(_ context.Context, in model.MaintenanceIn) (model.Maintenance, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    performedAt := time.Now().UTC()
    if in.PerformedAt != "" {
        if t, err := time.Parse(time.RFC3339, in.PerformedAt); err == nil { performedAt = t.UTC() }
    }
    mt := model.Maintenance{
        ID:          uuid.New().String(),
        DeviceID:    in.DeviceID,
        Description: in.Description,
        Value:       in.Value,
        PerformedAt: performedAt.Format(time.RFC3339),
    }
    m.maintenances[mt.ID] = mt
    return mt, nil
}

func (m *Memory) ListMaintenances(_ context.Context, scope []int64) ([]model.Maintenance, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    out := []model.Maintenance{}
    for _, mt := range m.maintenances {
        if inScope(scope, mt.DeviceID) { out = append(out, mt) }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].PerformedAt > out[j].PerformedAt })
    return out, nil
}

func (m *Memory) DeleteMaintenance(_ context.Context, id string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.maintenances[id]; !ok { return ErrNotFound }
    delete(m.maintenances, id)
    return nil
}

func (m *Memory) CostSummary(_ context.Context, deviceID int64, scope []int64) (model.CostSummary, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    devices := reportDevices(deviceID, scope)
    var s model.CostSummary
    for _, c := range m.costs {
        if !inScope(devices, c.DeviceID) { continue }
        if c.TripID != "" { s.TripTotal += c.Value } else { s.ExtrasTotal += c.Value }
    }
    for _, f := range m.refuelings {
        if inScope(devices, f.DeviceID) && f.TripID != "" { s.TripTotal += f.TotalValue }
    }
    s.GrandTotal = s.TripTotal + s.ExtrasTotal
    return s, nil
}

func (m *Memory) TripCostReport(_ context.Context, since time.Time, deviceID int64, scope []int64) ([]model.TripCostRow, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    devices := reportDevices(deviceID, scope)
    out := []model.TripCostRow{}
    for _, t := range m.trips {
        if t.Status != model.TripFinished || !inScope(devices, t.DeviceID) { continue }
        if !since.IsZero() {
            finished, err := time.Parse(time.RFC3339, t.FinishedAt)
            if err != nil || finished.Before(since) { continue }
        }
        row := model.TripCostRow{
            TripID:          t.ID,
            VehicleName:     t.VehicleName,
            OriginCity:      t.OriginCity,
            DestinationCity: t.DestinationCity,
            StartedAt:       t.StartedAt,
            FinishedAt:      t.FinishedAt,
            TotalDistanceKm: t.TotalDistanceKm,
        }
        var liters float64
        for _, c := range m.costs {
            if c.TripID == t.ID { row.TotalCost += c.Value }
        }
        for _, f := range m.refuelings {
            if f.TripID == t.ID { liters += f.Liters }
        }
        if t.TotalDistanceKm > 0 && liters > 0 { row.AvgConsumption = t.TotalDistanceKm / liters }
        out = append(out, row)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].FinishedAt > out[j].FinishedAt })
    return out, nil
}

func (m *Memory) ExtraCostReport(_ context.Context, since time.Time, deviceID int64, scope []int64) ([]model.Cost, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    devices := reportDevices(deviceID, scope)
    out := []model.Cost{}
    for _, c := range m.costs {
        if c.TripID != "" || !inScope(devices, c.DeviceID) { continue }
        if !since.IsZero() {
            recorded, err := time.Parse(time.RFC3339, c.RecordedAt)
            if err != nil || recorded.Before(since) { continue }
        }
        out = append(out, c)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt > out[j].RecordedAt })
    return out, nil
}

// AverageConsumption pairs consecutive refuelings of a device by odometer
// order and averages the km/l of each leg.
func (m *Memory) AverageConsumption(_ context.Context, deviceID int64, scope []int64) (float64, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    devices := reportDevices(deviceID, scope)
    byDevice := map[int64][]model.Refueling{}
    for _, f := range m.refuelings {
        if inScope(devices, f.DeviceID) { byDevice[f.DeviceID] = append(byDevice[f.DeviceID], f) }
    }
    var sum float64
    var n int
    for _, fills := range byDevice {
        // RecordedAt is RFC3339Nano; parse so sub-second ordering is exact
        sort.Slice(fills, func(i, j int) bool {
            ti, _ := time.Parse(time.RFC3339Nano, fills[i].RecordedAt)
            tj, _ := time.Parse(time.RFC3339Nano, fills[j].RecordedAt)
            return ti.Before(tj)
        })
        for i := 1; i < len(fills); i++ {
            distance := fills[i].Odometer - fills[i-1].Odometer
            if distance > 0 && fills[i].Liters > 0 {
                sum += distance / fills[i].Liters
                n++
            }
        }
    }
    if n == 0 { return 0, nil }
    return sum / float64(n), nil
}

func (m *Memory) CostsByCategory(_ context.Context, since time.Time, deviceID int64, scope []int64) ([]model.CategoryTotal, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    devices := reportDevices(deviceID, scope)
    totals := map[string]float64{}
    for _, c := range m.costs {
        if !inScope(devices, c.DeviceID) { continue }
        if !since.IsZero() {
            recorded, err := time.Parse(time.RFC3339, c.RecordedAt)
            if err != nil || recorded.Before(since) { continue }
        }
        totals[c.Category] += c.Value
    }
    out := []model.CategoryTotal{}
    for name, v := range totals { out = append(out, model.CategoryTotal{Name: name, Value: v}) }
    sort.Slice(out, func(i, j int) bool { return out[i].Value > out[j].Value })
    return out, nil
}
