package model

// Core domain types for the fleet-management API.

type Vehicle struct {
    DeviceID int64  `json:"deviceId"`
    Name     string `json:"name"`
    UniqueID string `json:"uniqueId,omitempty"`
    Status   string `json:"status,omitempty"`
    Plate    string `json:"plate,omitempty"`
}

type Driver struct {
    ID        string `json:"id"`
    Name      string `json:"name"`
    Phone     string `json:"phone,omitempty"`
    LicenseNo string `json:"licenseNo,omitempty"`
    Active    bool   `json:"active"`
    Username  string `json:"username,omitempty"` // set when a credential record exists
}

// DriverIn is the create/update payload for drivers. Username/Password are
// optional on create; when present a credential record is created in the same
// transaction as the driver row.
type DriverIn struct {
    Name      string `json:"name"`
    Phone     string `json:"phone,omitempty"`
    LicenseNo string `json:"licenseNo,omitempty"`
    Active    *bool  `json:"active,omitempty"`
    Username  string `json:"username,omitempty"`
    Password  string `json:"password,omitempty"`
}

// Credential is a driver's login record. PasswordHash is bcrypt.
type Credential struct {
    Username     string
    PasswordHash []byte
    DriverID     string
    Active       bool
}

const (
    TripOpen     = "OPEN"
    TripFinished = "FINISHED"
)

type Trip struct {
    ID              string  `json:"id"`
    DeviceID        int64   `json:"deviceId"`
    VehicleName     string  `json:"vehicleName"`
    OriginCity      string  `json:"originCity"`
    DestinationCity string  `json:"destinationCity"`
    Status          string  `json:"status"`
    StartedAt       string  `json:"startedAt"`
    FinishedAt      string  `json:"finishedAt,omitempty"`
    TotalDistanceKm float64 `json:"totalDistanceKm,omitempty"`
}

type TripStartIn struct {
    DeviceID        int64  `json:"deviceId"`
    VehicleName     string `json:"vehicleName"`
    OriginCity      string `json:"originCity"`
    DestinationCity string `json:"destinationCity"`
}

type Cost struct {
    ID          string  `json:"id"`
    DeviceID    int64   `json:"deviceId"`
    TripID      string  `json:"tripId,omitempty"`
    Description string  `json:"description"`
    Category    string  `json:"category"`
    Value       float64 `json:"value"`
    RecordedAt  string  `json:"recordedAt"`
}

type CostIn struct {
    DeviceID    int64   `json:"deviceId"`
    TripID      string  `json:"tripId,omitempty"`
    Description string  `json:"description"`
    Category    string  `json:"category"`
    Value       float64 `json:"value"`
}

type Refueling struct {
    ID               string  `json:"id"`
    DeviceID         int64   `json:"deviceId"`
    TripID           string  `json:"tripId,omitempty"`
    Odometer         float64 `json:"odometer"`
    Liters           float64 `json:"liters"`
    TotalValue       float64 `json:"totalValue"`
    PumpPhotoURL     string  `json:"pumpPhotoUrl,omitempty"`
    OdometerPhotoURL string  `json:"odometerPhotoUrl,omitempty"`
    RecordedAt       string  `json:"recordedAt"`
}

type RefuelingIn struct {
    DeviceID         int64   `json:"deviceId"`
    TripID           string  `json:"tripId,omitempty"`
    Odometer         float64 `json:"odometer"`
    Liters           float64 `json:"liters"`
    TotalValue       float64 `json:"totalValue"`
    PumpPhotoURL     string  `json:"pumpPhotoUrl,omitempty"`
    OdometerPhotoURL string  `json:"odometerPhotoUrl,omitempty"`
}

type Maintenance struct {
    ID          string  `json:"id"`
    DeviceID    int64   `json:"deviceId"`
    Description string  `json:"description"`
    Value       float64 `json:"value"`
    PerformedAt string  `json:"performedAt"`
}

type MaintenanceIn struct {
    DeviceID    int64   `json:"deviceId"`
    Description string  `json:"description"`
    Value       float64 `json:"value"`
    PerformedAt string  `json:"performedAt,omitempty"`
}

// Report rows

type CostSummary struct {
    TripTotal   float64 `json:"tripTotal"`
    ExtrasTotal float64 `json:"extrasTotal"`
    GrandTotal  float64 `json:"grandTotal"`
}

type TripCostRow struct {
    TripID          string  `json:"tripId"`
    VehicleName     string  `json:"vehicleName"`
    OriginCity      string  `json:"originCity"`
    DestinationCity string  `json:"destinationCity"`
    StartedAt       string  `json:"startedAt"`
    FinishedAt      string  `json:"finishedAt"`
    TotalDistanceKm float64 `json:"totalDistanceKm"`
    TotalCost       float64 `json:"totalCost"`
    AvgConsumption  float64 `json:"avgConsumption"` // km per liter within the trip
}

type CategoryTotal struct {
    Name  string  `json:"name"`
    Value float64 `json:"value"`
}
