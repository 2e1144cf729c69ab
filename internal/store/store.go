package store

import (
    "context"
    "errors"
    "time"

    "frota/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
    // Vehicles
    UpsertVehicles(ctx context.Context, vehicles []model.Vehicle) error
    ListVehicles(ctx context.Context, scope []int64) ([]model.Vehicle, error)

    // Drivers and credentials
    CreateDriver(ctx context.Context, in model.DriverIn, passwordHash []byte) (model.Driver, error)
    GetDriver(ctx context.Context, id string) (model.Driver, error)
    ListDrivers(ctx context.Context) ([]model.Driver, error)
    UpdateDriver(ctx context.Context, id string, in model.DriverIn) (model.Driver, error)
    DeleteDriver(ctx context.Context, id string) error
    GetCredential(ctx context.Context, username string) (model.Credential, error)
    SetDriverPassword(ctx context.Context, driverID string, passwordHash []byte) error

    // Driver ↔ vehicle links
    ListDriverVehicleIDs(ctx context.Context, driverID string) ([]int64, error)
    ReplaceDriverVehicles(ctx context.Context, driverID string, deviceIDs []int64) error

    // Trips
    StartTrip(ctx context.Context, in model.TripStartIn) (model.Trip, error)
    GetTrip(ctx context.Context, id string) (model.Trip, error)
    ListTrips(ctx context.Context, status string, scope []int64) ([]model.Trip, error)
    FinishTrip(ctx context.Context, id string, totalDistanceKm float64, at time.Time) (model.Trip, error)

    // Costs
    CreateCost(ctx context.Context, in model.CostIn) (model.Cost, error)
    ListExtraCosts(ctx context.Context, scope []int64) ([]model.Cost, error)
    ListTripCosts(ctx context.Context, tripID string) ([]model.Cost, error)

    // Refuelings
    CreateRefueling(ctx context.Context, in model.RefuelingIn) (model.Refueling, error)
    ListRefuelings(ctx context.Context, scope []int64) ([]model.Refueling, error)

    // Maintenances
    CreateMaintenance(ctx context.Context, in model.MaintenanceIn) (model.Maintenance, error)
    ListMaintenances(ctx context.Context, scope []int64) ([]model.Maintenance, error)
    DeleteMaintenance(ctx context.Context, id string) error

    // Reports
    CostSummary(ctx context.Context, deviceID int64, scope []int64) (model.CostSummary, error)
    TripCostReport(ctx context.Context, since time.Time, deviceID int64, scope []int64) ([]model.TripCostRow, error)
    ExtraCostReport(ctx context.Context, since time.Time, deviceID int64, scope []int64) ([]model.Cost, error)
    AverageConsumption(ctx context.Context, deviceID int64, scope []int64) (float64, error)
    CostsByCategory(ctx context.Context, since time.Time, deviceID int64, scope []int64) ([]model.CategoryTotal, error)
}

var (
    ErrNotFound = errors.New("not found")
    // ErrConflict is returned on uniqueness violations (e.g. duplicate username).
    ErrConflict = errors.New("conflict")
)

// inScope reports membership of id in scope; an empty scope admits nothing.
func inScope(scope []int64, id int64) bool {
    for _, s := range scope {
        if s == id { return true }
    }
    return false
}
