package api

import (
    "fmt"
    "strings"

    "frota/internal/model"
)

const minPasswordLen = 6

func validateDriverIn(in *model.DriverIn, create bool) error {
    in.Name = strings.TrimSpace(in.Name)
    in.Username = strings.TrimSpace(in.Username)
    if create && in.Name == "" { return fmt.Errorf("name is required") }
    if in.Username != "" && in.Password == "" && create { return fmt.Errorf("password is required when username is set") }
    if in.Password != "" && len(in.Password) < minPasswordLen {
        return fmt.Errorf("password must have at least %d characters", minPasswordLen)
    }
    if in.Password != "" && in.Username == "" && create { return fmt.Errorf("username is required when password is set") }
    return nil
}

func validateTripStart(in *model.TripStartIn) error {
    in.OriginCity = strings.TrimSpace(in.OriginCity)
    in.DestinationCity = strings.TrimSpace(in.DestinationCity)
    if in.DeviceID == 0 { return fmt.Errorf("deviceId is required") }
    if in.OriginCity == "" { return fmt.Errorf("originCity is required") }
    if in.DestinationCity == "" { return fmt.Errorf("destinationCity is required") }
    return nil
}

func validateCostIn(in *model.CostIn) error {
    in.Description = strings.TrimSpace(in.Description)
    in.Category = strings.TrimSpace(in.Category)
    if in.DeviceID == 0 { return fmt.Errorf("deviceId is required") }
    if in.Description == "" { return fmt.Errorf("description is required") }
    if in.Category == "" { return fmt.Errorf("category is required") }
    if in.Value <= 0 { return fmt.Errorf("value must be positive") }
    return nil
}

func validateRefuelingIn(in *model.RefuelingIn) error {
    if in.DeviceID == 0 { return fmt.Errorf("deviceId is required") }
    if in.Odometer <= 0 { return fmt.Errorf("odometer must be positive") }
    if in.Liters <= 0 { return fmt.Errorf("liters must be positive") }
    if in.TotalValue <= 0 { return fmt.Errorf("totalValue must be positive") }
    return nil
}

func validateMaintenanceIn(in *model.MaintenanceIn) error {
    in.Description = strings.TrimSpace(in.Description)
    if in.DeviceID == 0 { return fmt.Errorf("deviceId is required") }
    if in.Description == "" { return fmt.Errorf("description is required") }
    if in.Value <= 0 { return fmt.Errorf("value must be positive") }
    return nil
}
