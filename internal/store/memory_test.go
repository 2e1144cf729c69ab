package store

import (
    "context"
    "errors"
    "testing"
    "time"

    "frota/internal/model"
)

func ctxb() context.Context { return context.Background() }

func TestCreateDriverDuplicateUsernameAtomicity(t *testing.T) {
    m := NewMemory()
    if _, err := m.CreateDriver(ctxb(), model.DriverIn{Name: "Ana", Username: "ana"}, []byte("hash")); err != nil {
        t.Fatalf("first create: %v", err)
    }
    _, err := m.CreateDriver(ctxb(), model.DriverIn{Name: "Bruna", Username: "ana"}, []byte("hash2"))
    if !errors.Is(err, ErrConflict) { t.Fatalf("duplicate: got %v, want ErrConflict", err) }

    drivers, _ := m.ListDrivers(ctxb())
    if len(drivers) != 1 { t.Fatalf("got %d drivers, want 1", len(drivers)) }
}

func TestDeleteDriverCascades(t *testing.T) {
    m := NewMemory()
    d, _ := m.CreateDriver(ctxb(), model.DriverIn{Name: "Ana", Username: "ana"}, []byte("hash"))
    if err := m.ReplaceDriverVehicles(ctxb(), d.ID, []int64{1, 2}); err != nil { t.Fatal(err) }

    if err := m.DeleteDriver(ctxb(), d.ID); err != nil { t.Fatal(err) }
    if _, err := m.GetDriver(ctxb(), d.ID); !errors.Is(err, ErrNotFound) { t.Fatalf("driver: %v", err) }
    if _, err := m.GetCredential(ctxb(), "ana"); !errors.Is(err, ErrNotFound) { t.Fatalf("credential survived delete: %v", err) }
    ids, _ := m.ListDriverVehicleIDs(ctxb(), d.ID)
    if len(ids) != 0 { t.Fatalf("links survived delete: %v", ids) }
}

func TestUpdateDriverActiveFollowsCredential(t *testing.T) {
    m := NewMemory()
    d, _ := m.CreateDriver(ctxb(), model.DriverIn{Name: "Ana", Username: "ana"}, []byte("hash"))
    inactive := false
    if _, err := m.UpdateDriver(ctxb(), d.ID, model.DriverIn{Active: &inactive}); err != nil { t.Fatal(err) }
    cred, err := m.GetCredential(ctxb(), "ana")
    if err != nil { t.Fatal(err) }
    if cred.Active { t.Fatal("credential still active after driver deactivation") }
}

func TestScopeFiltering(t *testing.T) {
    m := NewMemory()
    _ = m.UpsertVehicles(ctxb(), []model.Vehicle{
        {DeviceID: 1, Name: "Truck 1"},
        {DeviceID: 2, Name: "Truck 2"},
    })
    vs, _ := m.ListVehicles(ctxb(), []int64{1})
    if len(vs) != 1 || vs[0].DeviceID != 1 { t.Fatalf("scoped vehicles: %+v", vs) }
    vs, _ = m.ListVehicles(ctxb(), nil)
    if len(vs) != 0 { t.Fatal("empty scope must admit nothing") }

    _, _ = m.StartTrip(ctxb(), model.TripStartIn{DeviceID: 1, OriginCity: "A", DestinationCity: "B"})
    _, _ = m.StartTrip(ctxb(), model.TripStartIn{DeviceID: 2, OriginCity: "A", DestinationCity: "B"})
    trips, _ := m.ListTrips(ctxb(), "", []int64{2})
    if len(trips) != 1 || trips[0].DeviceID != 2 { t.Fatalf("scoped trips: %+v", trips) }
    trips, _ = m.ListTrips(ctxb(), "finished", []int64{1, 2})
    if len(trips) != 0 { t.Fatal("status filter folded case incorrectly") }
}

func TestTripLifecycleAndReport(t *testing.T) {
    m := NewMemory()
    trip, err := m.StartTrip(ctxb(), model.TripStartIn{DeviceID: 7, VehicleName: "Truck 7", OriginCity: "A", DestinationCity: "B"})
    if err != nil { t.Fatal(err) }
    if trip.Status != model.TripOpen { t.Fatalf("status: %s", trip.Status) }

    for _, v := range []float64{100.5, 49.5} {
        if _, err := m.CreateCost(ctxb(), model.CostIn{DeviceID: 7, TripID: trip.ID, Description: "d", Category: "PEDAGIO", Value: v}); err != nil {
            t.Fatal(err)
        }
    }
    if _, err := m.CreateRefueling(ctxb(), model.RefuelingIn{DeviceID: 7, TripID: trip.ID, Odometer: 1000, Liters: 40, TotalValue: 240}); err != nil {
        t.Fatal(err)
    }

    trip, err = m.FinishTrip(ctxb(), trip.ID, 480, time.Now())
    if err != nil { t.Fatal(err) }
    if trip.Status != model.TripFinished || trip.TotalDistanceKm != 480 { t.Fatalf("finished trip: %+v", trip) }

    rows, err := m.TripCostReport(ctxb(), time.Time{}, 0, []int64{7})
    if err != nil { t.Fatal(err) }
    if len(rows) != 1 { t.Fatalf("rows: %d", len(rows)) }
    if rows[0].TotalCost != 150 { t.Fatalf("total cost: %v", rows[0].TotalCost) }
    if rows[0].AvgConsumption != 12 { t.Fatalf("consumption: %v (480 km / 40 l)", rows[0].AvgConsumption) }
}

func TestCostSummarySplitsTripAndExtras(t *testing.T) {
    m := NewMemory()
    trip, _ := m.StartTrip(ctxb(), model.TripStartIn{DeviceID: 1, OriginCity: "A", DestinationCity: "B"})
    _, _ = m.CreateCost(ctxb(), model.CostIn{DeviceID: 1, TripID: trip.ID, Description: "d", Category: "PEDAGIO", Value: 30})
    _, _ = m.CreateCost(ctxb(), model.CostIn{DeviceID: 1, Description: "d", Category: "LAVAGEM", Value: 20})
    _, _ = m.CreateRefueling(ctxb(), model.RefuelingIn{DeviceID: 1, TripID: trip.ID, Odometer: 100, Liters: 10, TotalValue: 60})

    s, err := m.CostSummary(ctxb(), 0, []int64{1})
    if err != nil { t.Fatal(err) }
    if s.TripTotal != 90 { t.Fatalf("trip total: %v", s.TripTotal) }
    if s.ExtrasTotal != 20 { t.Fatalf("extras total: %v", s.ExtrasTotal) }
    if s.GrandTotal != 110 { t.Fatalf("grand total: %v", s.GrandTotal) }
}

func TestAverageConsumptionPairsFills(t *testing.T) {
    m := NewMemory()
    // legs: 400 km / 40 l = 10 km/l, then 300 km / 30 l = 10 km/l
    fills := []model.RefuelingIn{
        {DeviceID: 1, Odometer: 1000, Liters: 35, TotalValue: 200},
        {DeviceID: 1, Odometer: 1400, Liters: 40, TotalValue: 230},
        {DeviceID: 1, Odometer: 1700, Liters: 30, TotalValue: 180},
    }
    for _, f := range fills {
        if _, err := m.CreateRefueling(ctxb(), f); err != nil { t.Fatal(err) }
        time.Sleep(time.Millisecond) // keep recorded_at ordering deterministic
    }
    avg, err := m.AverageConsumption(ctxb(), 1, []int64{1})
    if err != nil { t.Fatal(err) }
    if avg != 10 { t.Fatalf("avg consumption: %v, want 10", avg) }

    // a single fill yields no leg and no consumption
    m2 := NewMemory()
    _, _ = m2.CreateRefueling(ctxb(), fills[0])
    avg, _ = m2.AverageConsumption(ctxb(), 1, []int64{1})
    if avg != 0 { t.Fatalf("single fill: %v", avg) }
}

func TestCostsByCategory(t *testing.T) {
    m := NewMemory()
    _, _ = m.CreateCost(ctxb(), model.CostIn{DeviceID: 1, Description: "d", Category: "pedagio", Value: 10})
    _, _ = m.CreateCost(ctxb(), model.CostIn{DeviceID: 1, Description: "d", Category: "PEDAGIO", Value: 15})
    _, _ = m.CreateCost(ctxb(), model.CostIn{DeviceID: 1, Description: "d", Category: "LAVAGEM", Value: 5})

    totals, err := m.CostsByCategory(ctxb(), time.Time{}, 0, []int64{1})
    if err != nil { t.Fatal(err) }
    if len(totals) != 2 { t.Fatalf("categories: %+v", totals) }
    if totals[0].Name != "PEDAGIO" || totals[0].Value != 25 { t.Fatalf("top category: %+v", totals[0]) }
}

func TestCostRequiresExistingTrip(t *testing.T) {
    m := NewMemory()
    _, err := m.CreateCost(ctxb(), model.CostIn{DeviceID: 1, TripID: "missing", Description: "d", Category: "X", Value: 1})
    if !errors.Is(err, ErrNotFound) { t.Fatalf("got %v, want ErrNotFound", err) }
    _, err = m.CreateRefueling(ctxb(), model.RefuelingIn{DeviceID: 1, TripID: "missing", Odometer: 1, Liters: 1, TotalValue: 1})
    if !errors.Is(err, ErrNotFound) { t.Fatalf("got %v, want ErrNotFound", err) }
}

func TestMaintenanceLifecycle(t *testing.T) {
    m := NewMemory()
    mt, err := m.CreateMaintenance(ctxb(), model.MaintenanceIn{DeviceID: 1, Description: "oil change", Value: 150})
    if err != nil { t.Fatal(err) }
    list, _ := m.ListMaintenances(ctxb(), []int64{1})
    if len(list) != 1 { t.Fatalf("list: %+v", list) }
    if err := m.DeleteMaintenance(ctxb(), mt.ID); err != nil { t.Fatal(err) }
    if err := m.DeleteMaintenance(ctxb(), mt.ID); !errors.Is(err, ErrNotFound) { t.Fatalf("double delete: %v", err) }
}
