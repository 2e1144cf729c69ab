package store

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/jackc/pgx/v5/pgconn"
    _ "github.com/jackc/pgx/v5/stdlib"

    "frota/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// MigrateDir applies *.sql files from dir in lexical order.
func (p *Postgres) MigrateDir(dir string) error {
    entries, err := os.ReadDir(dir)
    if err != nil { return err }
    names := []string{}
    for _, e := range entries {
        if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") { names = append(names, e.Name()) }
    }
    sort.Strings(names)
    for _, n := range names {
        data, err := os.ReadFile(filepath.Join(dir, n))
        if err != nil { return err }
        if _, err := p.db.Exec(string(data)); err != nil { return fmt.Errorf("migrate %s: %w", n, err) }
    }
    return nil
}

// UpsertVehicles writes the synced device list in a single transaction.
func (p *Postgres) UpsertVehicles(ctx context.Context, vehicles []model.Vehicle) error {
    if len(vehicles) == 0 { return nil }
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return err }
    defer func(){ _ = tx.Rollback() }()
    for _, v := range vehicles {
        _, err := tx.ExecContext(ctx, `INSERT INTO vehicles (device_id, name, unique_id, status, plate) VALUES ($1,$2,$3,$4,$5)
            ON CONFLICT (device_id) DO UPDATE SET name=EXCLUDED.name, unique_id=EXCLUDED.unique_id, status=EXCLUDED.status`,
            v.DeviceID, v.Name, nullIfEmpty(v.UniqueID), nullIfEmpty(v.Status), nullIfEmpty(v.Plate))
        if err != nil { return err }
    }
    return tx.Commit()
}

func (p *Postgres) ListVehicles(ctx context.Context, scope []int64) ([]model.Vehicle, error) {
    if len(scope) == 0 { return []model.Vehicle{}, nil }
    rows, err := p.db.QueryContext(ctx, `SELECT device_id, name, COALESCE(unique_id,''), COALESCE(status,''), COALESCE(plate,'')
        FROM vehicles WHERE device_id = ANY($1) ORDER BY name`, scope)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Vehicle{}
    for rows.Next() {
        var v model.Vehicle
        if err := rows.Scan(&v.DeviceID, &v.Name, &v.UniqueID, &v.Status, &v.Plate); err != nil { return nil, err }
        out = append(out, v)
    }
    return out, rows.Err()
}

// CreateDriver inserts the driver row and, when a credential is supplied, the
// driver_users row in the same transaction. A duplicate username rolls back
// both inserts and surfaces as ErrConflict.
func (p *Postgres) CreateDriver(ctx context.Context, in model.DriverIn, passwordHash []byte) (model.Driver, error) {
    id := uuid.New().String()
    active := true
    if in.Active != nil { active = *in.Active }
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return model.Driver{}, err }
    defer func(){ _ = tx.Rollback() }()
    _, err = tx.ExecContext(ctx, `INSERT INTO drivers (id, name, phone, license_no, active) VALUES ($1,$2,$3,$4,$5)`,
        id, in.Name, nullIfEmpty(in.Phone), nullIfEmpty(in.LicenseNo), active)
    if err != nil { return model.Driver{}, pgErr(err) }
    if in.Username != "" {
        _, err = tx.ExecContext(ctx, `INSERT INTO driver_users (username, password_hash, driver_id, active) VALUES ($1,$2,$3,$4)`,
            in.Username, passwordHash, id, active)
        if err != nil { return model.Driver{}, pgErr(err) }
    }
    if err := tx.Commit(); err != nil { return model.Driver{}, err }
    return model.Driver{ID: id, Name: in.Name, Phone: in.Phone, LicenseNo: in.LicenseNo, Active: active, Username: in.Username}, nil
}

func (p *Postgres) GetDriver(ctx context.Context, id string) (model.Driver, error) {
    var d model.Driver
    var phone, license, username sql.NullString
    err := p.db.QueryRowContext(ctx, `SELECT d.id::text, d.name, d.phone, d.license_no, d.active, u.username
        FROM drivers d LEFT JOIN driver_users u ON u.driver_id = d.id WHERE d.id=$1`, id).
        Scan(&d.ID, &d.Name, &phone, &license, &d.Active, &username)
    if errors.Is(err, sql.ErrNoRows) { return d, ErrNotFound }
    if err != nil { return d, err }
    d.Phone, d.LicenseNo, d.Username = phone.String, license.String, username.String
    return d, nil
}

func (p *Postgres) ListDrivers(ctx context.Context) ([]model.Driver, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT d.id::text, d.name, COALESCE(d.phone,''), COALESCE(d.license_no,''), d.active, COALESCE(u.username,'')
        FROM drivers d LEFT JOIN driver_users u ON u.driver_id = d.id ORDER BY d.name`)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Driver{}
    for rows.Next() {
        var d model.Driver
        if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.LicenseNo, &d.Active, &d.Username); err != nil { return nil, err }
        out = append(out, d)
    }
    return out, rows.Err()
}

func (p *Postgres) UpdateDriver(ctx context.Context, id string, in model.DriverIn) (model.Driver, error) {
    cur, err := p.GetDriver(ctx, id)
    if err != nil { return cur, err }
    if in.Name != "" { cur.Name = in.Name }
    if in.Phone != "" { cur.Phone = in.Phone }
    if in.LicenseNo != "" { cur.LicenseNo = in.LicenseNo }
    if in.Active != nil { cur.Active = *in.Active }
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return cur, err }
    defer func(){ _ = tx.Rollback() }()
    _, err = tx.ExecContext(ctx, `UPDATE drivers SET name=$1, phone=$2, license_no=$3, active=$4 WHERE id=$5`,
        cur.Name, nullIfEmpty(cur.Phone), nullIfEmpty(cur.LicenseNo), cur.Active, id)
    if err != nil { return cur, err }
    // the credential's active flag follows the driver's
    if in.Active != nil {
        if _, err := tx.ExecContext(ctx, `UPDATE driver_users SET active=$1 WHERE driver_id=$2`, cur.Active, id); err != nil { return cur, err }
    }
    if err := tx.Commit(); err != nil { return cur, err }
    return cur, nil
}

// DeleteDriver removes the driver; driver_users and driver_vehicles cascade.
func (p *Postgres) DeleteDriver(ctx context.Context, id string) error {
    res, err := p.db.ExecContext(ctx, `DELETE FROM drivers WHERE id=$1`, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) GetCredential(ctx context.Context, username string) (model.Credential, error) {
    var c model.Credential
    err := p.db.QueryRowContext(ctx, `SELECT username, password_hash, driver_id::text, active FROM driver_users WHERE username=$1`, username).
        Scan(&c.Username, &c.PasswordHash, &c.DriverID, &c.Active)
    if errors.Is(err, sql.ErrNoRows) { return c, ErrNotFound }
    return c, err
}

func (p *Postgres) SetDriverPassword(ctx context.Context, driverID string, passwordHash []byte) error {
    res, err := p.db.ExecContext(ctx, `UPDATE driver_users SET password_hash=$1 WHERE driver_id=$2`, passwordHash, driverID)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) ListDriverVehicleIDs(ctx context.Context, driverID string) ([]int64, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT device_id FROM driver_vehicles WHERE driver_id=$1 ORDER BY device_id`, driverID)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []int64{}
    for rows.Next() {
        var id int64
        if err := rows.Scan(&id); err != nil { return nil, err }
        out = append(out, id)
    }
    return out, rows.Err()
}

// ReplaceDriverVehicles swaps the driver's vehicle link set atomically.
func (p *Postgres) ReplaceDriverVehicles(ctx context.Context, driverID string, deviceIDs []int64) error {
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return err }
    defer func(){ _ = tx.Rollback() }()
    var exists bool
    if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM drivers WHERE id=$1)`, driverID).Scan(&exists); err != nil { return err }
    if !exists { return ErrNotFound }
    if _, err := tx.ExecContext(ctx, `DELETE FROM driver_vehicles WHERE driver_id=$1`, driverID); err != nil { return err }
    for _, id := range deviceIDs {
        if _, err := tx.ExecContext(ctx, `INSERT INTO driver_vehicles (driver_id, device_id) VALUES ($1,$2)`, driverID, id); err != nil { return err }
    }
    return tx.Commit()
}

func (p *Postgres) StartTrip(ctx context.Context, in model.TripStartIn) (model.Trip, error) {
    id := uuid.New().String()
    var startedAt time.Time
    err := p.db.QueryRowContext(ctx, `INSERT INTO trips (id, device_id, vehicle_name, origin_city, destination_city, status)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING started_at`,
        id, in.DeviceID, in.VehicleName, in.OriginCity, in.DestinationCity, model.TripOpen).Scan(&startedAt)
    if err != nil { return model.Trip{}, err }
    return model.Trip{ID: id, DeviceID: in.DeviceID, VehicleName: in.VehicleName, OriginCity: in.OriginCity,
        DestinationCity: in.DestinationCity, Status: model.TripOpen, StartedAt: startedAt.UTC().Format(time.RFC3339)}, nil
}

func (p *Postgres) GetTrip(ctx context.Context, id string) (model.Trip, error) {
    var t model.Trip
    var startedAt time.Time
    var finishedAt sql.NullTime
    var dist sql.NullFloat64
    err := p.db.QueryRowContext(ctx, `SELECT id::text, device_id, vehicle_name, origin_city, destination_city, status, started_at, finished_at, total_distance_km
        FROM trips WHERE id=$1`, id).
        Scan(&t.ID, &t.DeviceID, &t.VehicleName, &t.OriginCity, &t.DestinationCity, &t.Status, &startedAt, &finishedAt, &dist)
    if errors.Is(err, sql.ErrNoRows) { return t, ErrNotFound }
    if err != nil { return t, err }
    t.StartedAt = startedAt.UTC().Format(time.RFC3339)
    if finishedAt.Valid { t.FinishedAt = finishedAt.Time.UTC().Format(time.RFC3339) }
    if dist.Valid { t.TotalDistanceKm = dist.Float64 }
    return t, nil
}

func (p *Postgres) ListTrips(ctx context.Context, status string, scope []int64) ([]model.Trip, error) {
    if len(scope) == 0 { return []model.Trip{}, nil }
    q := `SELECT id::text, device_id, vehicle_name, origin_city, destination_city, status, started_at, finished_at, total_distance_km
        FROM trips WHERE device_id = ANY($1)`
    args := []any{scope}
    if status != "" {
        q += ` AND status=$2`
        args = append(args, strings.ToUpper(status))
    }
    q += ` ORDER BY started_at DESC`
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Trip{}
    for rows.Next() {
        var t model.Trip
        var startedAt time.Time
        var finishedAt sql.NullTime
        var dist sql.NullFloat64
        if err := rows.Scan(&t.ID, &t.DeviceID, &t.VehicleName, &t.OriginCity, &t.DestinationCity, &t.Status, &startedAt, &finishedAt, &dist); err != nil { return nil, err }
        t.StartedAt = startedAt.UTC().Format(time.RFC3339)
        if finishedAt.Valid { t.FinishedAt = finishedAt.Time.UTC().Format(time.RFC3339) }
        if dist.Valid { t.TotalDistanceKm = dist.Float64 }
        out = append(out, t)
    }
    return out, rows.Err()
}

func (p *Postgres) FinishTrip(ctx context.Context, id string, totalDistanceKm float64, at time.Time) (model.Trip, error) {
    res, err := p.db.ExecContext(ctx, `UPDATE trips SET status=$1, finished_at=$2, total_distance_km=$3 WHERE id=$4`,
        model.TripFinished, at.UTC(), nullIfZero(totalDistanceKm), id)
    if err != nil { return model.Trip{}, err }
    if n, _ := res.RowsAffected(); n == 0 { return model.Trip{}, ErrNotFound }
    return p.GetTrip(ctx, id)
}

func (p *Postgres) CreateCost(ctx context.Context, in model.CostIn) (model.Cost, error) {
    id := uuid.New().String()
    var recordedAt time.Time
    err := p.db.QueryRowContext(ctx, `INSERT INTO custos (id, device_id, trip_id, description, category, value)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING recorded_at`,
        id, in.DeviceID, nullIfEmpty(in.TripID), in.Description, strings.ToUpper(in.Category), in.Value).Scan(&recordedAt)
    if err != nil { return model.Cost{}, pgErr(err) }
    return model.Cost{ID: id, DeviceID: in.DeviceID, TripID: in.TripID, Description: in.Description,
        Category: strings.ToUpper(in.Category), Value: in.Value, RecordedAt: recordedAt.UTC().Format(time.RFC3339)}, nil
}

func (p *Postgres) ListExtraCosts(ctx context.Context, scope []int64) ([]model.Cost, error) {
    if len(scope) == 0 { return []model.Cost{}, nil }
    return p.queryCosts(ctx, `SELECT id::text, device_id, COALESCE(trip_id::text,''), description, category, value, recorded_at
        FROM custos WHERE trip_id IS NULL AND device_id = ANY($1) ORDER BY recorded_at DESC`, scope)
}

func (p *Postgres) ListTripCosts(ctx context.Context, tripID string) ([]model.Cost, error) {
    return p.queryCosts(ctx, `SELECT id::text, device_id, COALESCE(trip_id::text,''), description, category, value, recorded_at
        FROM custos WHERE trip_id=$1 ORDER BY recorded_at ASC`, tripID)
}

func (p *Postgres) queryCosts(ctx context.Context, q string, args ...any) ([]model.Cost, error) {
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Cost{}
    for rows.Next() {
        var c model.Cost
        var recordedAt time.Time
        if err := rows.Scan(&c.ID, &c.DeviceID, &c.TripID, &c.Description, &c.Category, &c.Value, &recordedAt); err != nil { return nil, err }
        c.RecordedAt = recordedAt.UTC().Format(time.RFC3339)
        out = append(out, c)
    }
    return out, rows.Err()
}

func (p *Postgres) CreateRefueling(ctx context.Context, in model.RefuelingIn) (model.Refueling, error) {
    id := uuid.New().String()
    var recordedAt time.Time
    err := p.db.QueryRowContext(ctx, `INSERT INTO refuelings (id, device_id, trip_id, odometer, liters, total_value, pump_photo_url, odometer_photo_url)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING recorded_at`,
        id, in.DeviceID, nullIfEmpty(in.TripID), in.Odometer, in.Liters, in.TotalValue,
        nullIfEmpty(in.PumpPhotoURL), nullIfEmpty(in.OdometerPhotoURL)).Scan(&recordedAt)
    if err != nil { return model.Refueling{}, pgErr(err) }
    return model.Refueling{ID: id, DeviceID: in.DeviceID, TripID: in.TripID, Odometer: in.Odometer, Liters: in.Liters,
        TotalValue: in.TotalValue, PumpPhotoURL: in.PumpPhotoURL, OdometerPhotoURL: in.OdometerPhotoURL,
        RecordedAt: recordedAt.UTC().Format(time.RFC3339)}, nil
}

func (p *Postgres) ListRefuelings(ctx context.Context, scope []int64) ([]model.Refueling, error) {
    if len(scope) == 0 { return []model.Refueling{}, nil }
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, device_id, COALESCE(trip_id::text,''), odometer, liters, total_value,
        COALESCE(pump_photo_url,''), COALESCE(odometer_photo_url,''), recorded_at
        FROM refuelings WHERE device_id = ANY($1) ORDER BY recorded_at DESC`, scope)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Refueling{}
    for rows.Next() {
        var f model.Refueling
        var recordedAt time.Time
        if err := rows.Scan(&f.ID, &f.DeviceID, &f.TripID, &f.Odometer, &f.Liters, &f.TotalValue, &f.PumpPhotoURL, &f.OdometerPhotoURL, &recordedAt); err != nil { return nil, err }
        f.RecordedAt = recordedAt.UTC().Format(time.RFC3339)
        out = append(out, f)
    }
    return out, rows.Err()
}

func (p *Postgres) CreateMaintenance(ctx context.Context, in model.MaintenanceIn) (model.Maintenance, error) {
    id := uuid.New().String()
    performedAt := time.Now().UTC()
    if in.PerformedAt != "" {
        if t, err := time.Parse(time.RFC3339, in.PerformedAt); err == nil { performedAt = t.UTC() }
    }
    _, err := p.db.ExecContext(ctx, `INSERT INTO maintenances (id, device_id, description, value, performed_at) VALUES ($1,$2,$3,$4,$5)`,
        id, in.DeviceID, in.Description, in.Value, performedAt)
    if err != nil { return model.Maintenance{}, err }
    return model.Maintenance{ID: id, DeviceID: in.DeviceID, Description: in.Description, Value: in.Value,
        PerformedAt: performedAt.Format(time.RFC3339)}, nil
}

func (p *Postgres) ListMaintenances(ctx context.Context, scope []int64) ([]model.Maintenance, error) {
    if len(scope) == 0 { return []model.Maintenance{}, nil }
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, device_id, description, value, performed_at
        FROM maintenances WHERE device_id = ANY($1) ORDER BY performed_at DESC`, scope)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Maintenance{}
    for rows.Next() {
        var m model.Maintenance
        var performedAt time.Time
        if err := rows.Scan(&m.ID, &m.DeviceID, &m.Description, &m.Value, &performedAt); err != nil { return nil, err }
        m.PerformedAt = performedAt.UTC().Format(time.RFC3339)
        out = append(out, m)
    }
    return out, rows.Err()
}

func (p *Postgres) DeleteMaintenance(ctx context.Context, id string) error {
    res, err := p.db.ExecContext(ctx, `DELETE FROM maintenances WHERE id=$1`, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

// CostSummary totals trip-bound spending (costs + refuelings attached to a
// trip) and extras (costs with no trip) within the caller's scope.
func (p *Postgres) CostSummary(ctx context.Context, deviceID int64, scope []int64) (model.CostSummary, error) {
    var s model.CostSummary
    devices := reportDevices(deviceID, scope)
    if len(devices) == 0 { return s, nil }
    var tripCosts, tripFuel float64
    err := p.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(value),0) FROM custos WHERE trip_id IS NOT NULL AND device_id = ANY($1)`, devices).Scan(&tripCosts)
    if err != nil { return s, err }
    err = p.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(total_value),0) FROM refuelings WHERE trip_id IS NOT NULL AND device_id = ANY($1)`, devices).Scan(&tripFuel)
    if err != nil { return s, err }
    err = p.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(value),0) FROM custos WHERE trip_id IS NULL AND device_id = ANY($1)`, devices).Scan(&s.ExtrasTotal)
    if err != nil { return s, err }
    s.TripTotal = tripCosts + tripFuel
    s.GrandTotal = s.TripTotal + s.ExtrasTotal
    return s, nil
}

// TripCostReport lists finished trips with their aggregated cost and per-trip
// fuel consumption (distance over refueled liters).
func (p *Postgres) TripCostReport(ctx context.Context, since time.Time, deviceID int64, scope []int64) ([]model.TripCostRow, error) {
    devices := reportDevices(deviceID, scope)
    if len(devices) == 0 { return []model.TripCostRow{}, nil }
    q := `
        SELECT
            t.id::text, t.vehicle_name, t.origin_city, t.destination_city,
            t.started_at, t.finished_at, COALESCE(t.total_distance_km, 0),
            COALESCE(SUM(c.value), 0) AS total_cost,
            CASE
                WHEN COALESCE(t.total_distance_km,0) > 0 AND COALESCE((SELECT SUM(liters) FROM refuelings WHERE trip_id = t.id),0) > 0
                THEN t.total_distance_km / (SELECT SUM(liters) FROM refuelings WHERE trip_id = t.id)
                ELSE 0
            END AS avg_consumption
        FROM trips t
        LEFT JOIN custos c ON c.trip_id = t.id
        WHERE t.status = $1 AND t.device_id = ANY($2) AND ($3::timestamptz IS NULL OR t.finished_at >= $3)
        GROUP BY t.id
        ORDER BY t.finished_at DESC`
    var sinceArg any
    if !since.IsZero() { sinceArg = since.UTC() }
    rows, err := p.db.QueryContext(ctx, q, model.TripFinished, devices, sinceArg)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.TripCostRow{}
    for rows.Next() {
        var r model.TripCostRow
        var startedAt time.Time
        var finishedAt sql.NullTime
        if err := rows.Scan(&r.TripID, &r.VehicleName, &r.OriginCity, &r.DestinationCity, &startedAt, &finishedAt, &r.TotalDistanceKm, &r.TotalCost, &r.AvgConsumption); err != nil { return nil, err }
        r.StartedAt = startedAt.UTC().Format(time.RFC3339)
        if finishedAt.Valid { r.FinishedAt = finishedAt.Time.UTC().Format(time.RFC3339) }
        out = append(out, r)
    }
    return out, rows.Err()
}

func (p *Postgres) ExtraCostReport(ctx context.Context, since time.Time, deviceID int64, scope []int64) ([]model.Cost, error) {
    devices := reportDevices(deviceID, scope)
    if len(devices) == 0 { return []model.Cost{}, nil }
    var sinceArg any
    if !since.IsZero() { sinceArg = since.UTC() }
    return p.queryCosts(ctx, `SELECT id::text, device_id, COALESCE(trip_id::text,''), description, category, value, recorded_at
        FROM custos WHERE trip_id IS NULL AND device_id = ANY($1) AND ($2::timestamptz IS NULL OR recorded_at >= $2)
        ORDER BY recorded_at DESC`, devices, sinceArg)
}

// AverageConsumption derives km/l over consecutive refuelings of the same
// device via a LAG window over the odometer.
func (p *Postgres) AverageConsumption(ctx context.Context, deviceID int64, scope []int64) (float64, error) {
    devices := reportDevices(deviceID, scope)
    if len(devices) == 0 { return 0, nil }
    q := `
        SELECT COALESCE(AVG(distance / liters), 0)
        FROM (
            SELECT
                odometer - LAG(odometer, 1, odometer) OVER (PARTITION BY device_id ORDER BY recorded_at) AS distance,
                liters
            FROM refuelings
            WHERE device_id = ANY($1)
        ) AS deltas
        WHERE liters > 0 AND distance > 0`
    var avg float64
    if err := p.db.QueryRowContext(ctx, q, devices).Scan(&avg); err != nil { return 0, err }
    return avg, nil
}

func (p *Postgres) CostsByCategory(ctx context.Context, since time.Time, deviceID int64, scope []int64) ([]model.CategoryTotal, error) {
    devices := reportDevices(deviceID, scope)
    if len(devices) == 0 { return []model.CategoryTotal{}, nil }
    var sinceArg any
    if !since.IsZero() { sinceArg = since.UTC() }
    rows, err := p.db.QueryContext(ctx, `SELECT category, SUM(value) AS total FROM custos
        WHERE device_id = ANY($1) AND ($2::timestamptz IS NULL OR recorded_at >= $2)
        GROUP BY category ORDER BY total DESC`, devices, sinceArg)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.CategoryTotal{}
    for rows.Next() {
        var c model.CategoryTotal
        if err := rows.Scan(&c.Name, &c.Value); err != nil { return nil, err }
        out = append(out, c)
    }
    return out, rows.Err()
}

// Helpers
func nullIfEmpty(s string) any { if s == "" { return nil }; return s }
func nullIfZero(f float64) any { if f == 0 { return nil }; return f }

// reportDevices narrows the scope to a single requested device, or returns the
// whole scope when no device filter is given.
func reportDevices(deviceID int64, scope []int64) []int64 {
    if deviceID == 0 { return scope }
    if inScope(scope, deviceID) { return []int64{deviceID} }
    return nil
}

// pgErr maps unique-violation errors to ErrConflict.
func pgErr(err error) error {
    var pge *pgconn.PgError
    if errors.As(err, &pge) && pge.Code == "23505" { return ErrConflict }
    return err
}
