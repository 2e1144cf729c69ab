package api

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/gorilla/websocket"
    "golang.org/x/crypto/bcrypt"

    "frota/internal/auth"
    "frota/internal/config"
    "frota/internal/model"
    "frota/internal/store"
    "frota/internal/tracker"
)

type stubTracker struct {
    devices []tracker.Device
    devErr  error
    cookie  string
    loginErr error
}

func (s *stubTracker) Login(_ context.Context, _, _ string) (string, error) {
    if s.loginErr != nil { return "", s.loginErr }
    return s.cookie, nil
}
func (s *stubTracker) Devices(_ context.Context) ([]tracker.Device, error) {
    return s.devices, s.devErr
}
func (s *stubTracker) DevicesWithCookie(_ context.Context, _ string) ([]tracker.Device, error) {
    return s.devices, s.devErr
}
func (s *stubTracker) RouteReport(_ context.Context, _ string, _ int64, _, _ time.Time) ([]tracker.Position, error) {
    return []tracker.Position{}, nil
}
func (s *stubTracker) DialSocket(_ context.Context, _ string) (*websocket.Conn, error) {
    return nil, errors.New("no socket in tests")
}

func newTestServer(t *testing.T, devices ...tracker.Device) (*Server, *stubTracker) {
    t.Helper()
    tokens, err := auth.NewTokenManager("test-secret", time.Hour)
    if err != nil { t.Fatalf("token manager: %v", err) }
    sessions := auth.NewMemoryStore(time.Hour)
    t.Cleanup(sessions.Close)
    ts := &stubTracker{devices: devices, cookie: "JSESSIONID=abc"}
    cfg := &config.Config{}
    cfg.Auth.BcryptCost = bcrypt.MinCost
    cfg.Uploads.Dir = t.TempDir()
    return &Server{
        Store:    store.NewMemory(),
        Sessions: sessions,
        Tokens:   tokens,
        Tracker:  ts,
        Broker:   NewBroker(),
        Config:   cfg,
    }, ts
}

// dispatcherCookie creates a live session and returns its cookie.
func dispatcherCookie(t *testing.T, s *Server) *http.Cookie {
    t.Helper()
    sess, err := s.Sessions.Create(context.Background(), "ops@example.com", "JSESSIONID=abc")
    if err != nil { t.Fatalf("create session: %v", err) }
    return &http.Cookie{Name: sessionCookieName, Value: sess.ID}
}

func doJSON(t *testing.T, h http.HandlerFunc, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
    t.Helper()
    var rd *bytes.Reader
    if body != nil {
        b, _ := json.Marshal(body)
        rd = bytes.NewReader(b)
    } else {
        rd = bytes.NewReader(nil)
    }
    req := httptest.NewRequest(method, path, rd)
    req.Header.Set("Content-Type", "application/json")
    if cookie != nil { req.AddCookie(cookie) }
    rr := httptest.NewRecorder()
    h(rr, req)
    return rr
}

func TestDispatcherRequiresSession(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 1, Name: "Truck 1"})
    h := s.RequireDispatcher(s.VehiclesHandler)
    rr := doJSON(t, h, http.MethodGet, "/gestao/vehicles", nil, nil)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("no cookie: got %d", rr.Code) }

    rr = doJSON(t, h, http.MethodGet, "/gestao/vehicles", nil, &http.Cookie{Name: sessionCookieName, Value: "bogus"})
    if rr.Code != http.StatusUnauthorized { t.Fatalf("unknown session: got %d", rr.Code) }
}

func TestDispatcherUpstreamFailureDestroysSession(t *testing.T) {
    s, ts := newTestServer(t, tracker.Device{ID: 1, Name: "Truck 1"})
    ck := dispatcherCookie(t, s)
    ts.devErr = tracker.ErrUnauthorized
    h := s.RequireDispatcher(s.VehiclesHandler)
    rr := doJSON(t, h, http.MethodGet, "/gestao/vehicles", nil, ck)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("expired upstream: got %d", rr.Code) }
    // the session must be gone even after upstream recovers
    ts.devErr = nil
    rr = doJSON(t, h, http.MethodGet, "/gestao/vehicles", nil, ck)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("reused dead session: got %d", rr.Code) }
}

func TestDispatcherEmptyScopeForbidden(t *testing.T) {
    s, _ := newTestServer(t) // no devices upstream
    ck := dispatcherCookie(t, s)
    handlerRan := false
    h := s.RequireDispatcher(func(w http.ResponseWriter, r *http.Request) { handlerRan = true })
    rr := doJSON(t, h, http.MethodGet, "/gestao/vehicles", nil, ck)
    if rr.Code != http.StatusForbidden { t.Fatalf("empty scope: got %d", rr.Code) }
    if handlerRan { t.Fatal("handler must not run for an empty scope") }
}

func TestDriverLoginIndistinguishableFailures(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 1, Name: "Truck 1"})
    in := model.DriverIn{Name: "Ana", Username: "ana", Password: "secret1"}
    hash, _ := auth.HashPassword(in.Password, bcrypt.MinCost)
    if _, err := s.Store.CreateDriver(context.Background(), in, hash); err != nil {
        t.Fatalf("create driver: %v", err)
    }

    wrongPass := doJSON(t, s.DriverLoginHandler, http.MethodPost, "/auth/driver-login",
        map[string]string{"username": "ana", "password": "nope123"}, nil)
    unknownUser := doJSON(t, s.DriverLoginHandler, http.MethodPost, "/auth/driver-login",
        map[string]string{"username": "nobody", "password": "nope123"}, nil)
    if wrongPass.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
        t.Fatalf("got %d and %d, want 401 for both", wrongPass.Code, unknownUser.Code)
    }
    if wrongPass.Body.String() != unknownUser.Body.String() {
        t.Fatalf("failure responses differ:\n%s\n%s", wrongPass.Body.String(), unknownUser.Body.String())
    }
}

func TestDriverLoginSuccess(t *testing.T) {
    s, _ := newTestServer(t)
    hash, _ := auth.HashPassword("secret1", bcrypt.MinCost)
    d, err := s.Store.CreateDriver(context.Background(), model.DriverIn{Name: "Ana", Username: "ana", Password: "secret1"}, hash)
    if err != nil { t.Fatalf("create driver: %v", err) }

    rr := doJSON(t, s.DriverLoginHandler, http.MethodPost, "/auth/driver-login",
        map[string]string{"username": "ana", "password": "secret1"}, nil)
    if rr.Code != http.StatusOK { t.Fatalf("login: got %d: %s", rr.Code, rr.Body.String()) }
    var resp struct {
        Token  string       `json:"token"`
        Driver model.Driver `json:"driver"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatal(err) }
    if resp.Token == "" { t.Fatal("no token in response") }
    if resp.Driver.ID != d.ID { t.Fatalf("driver id: got %s, want %s", resp.Driver.ID, d.ID) }

    got, err := s.Tokens.Verify(resp.Token)
    if err != nil || got != d.ID { t.Fatalf("verify: %v (%s)", err, got) }
}

func TestExpiredDriverToken(t *testing.T) {
    s, _ := newTestServer(t)
    expired, err := auth.NewTokenManager("test-secret", -time.Minute)
    if err != nil { t.Fatal(err) }
    token, err := expired.Mint("d1")
    if err != nil { t.Fatal(err) }

    h := s.RequireDriver(s.DriverVehiclesHandler)
    req := httptest.NewRequest(http.MethodGet, "/app/motorista/vehicles", nil)
    req.Header.Set("Authorization", "Bearer "+token)
    rr := httptest.NewRecorder()
    h(rr, req)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("expired token: got %d", rr.Code) }
}

func TestCreateDriverDuplicateUsernameRollsBack(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 1, Name: "Truck 1"})
    ck := dispatcherCookie(t, s)
    h := s.RequireDispatcher(s.DriversHandler)

    first := doJSON(t, h, http.MethodPost, "/gestao/drivers",
        model.DriverIn{Name: "Ana", Username: "ana", Password: "secret1"}, ck)
    if first.Code != http.StatusCreated { t.Fatalf("first create: got %d: %s", first.Code, first.Body.String()) }

    dup := doJSON(t, h, http.MethodPost, "/gestao/drivers",
        model.DriverIn{Name: "Bruna", Username: "ana", Password: "secret2"}, ck)
    if dup.Code != http.StatusBadRequest { t.Fatalf("duplicate create: got %d", dup.Code) }

    drivers, err := s.Store.ListDrivers(context.Background())
    if err != nil { t.Fatal(err) }
    if len(drivers) != 1 { t.Fatalf("got %d drivers, want 1 (no partial row)", len(drivers)) }
    if drivers[0].Name != "Ana" { t.Fatalf("surviving driver: %s", drivers[0].Name) }
}

func TestVehicleScopedWriteOutsideScope(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 1, Name: "Truck 1"})
    ck := dispatcherCookie(t, s)
    h := s.RequireDispatcher(s.CostsHandler)

    rr := doJSON(t, h, http.MethodPost, "/gestao/costs",
        model.CostIn{DeviceID: 99, Description: "toll", Category: "PEDAGIO", Value: 12.5}, ck)
    if rr.Code != http.StatusForbidden { t.Fatalf("out-of-scope write: got %d", rr.Code) }

    costs, err := s.Store.ListExtraCosts(context.Background(), []int64{99})
    if err != nil { t.Fatal(err) }
    if len(costs) != 0 { t.Fatalf("row persisted for out-of-scope write: %+v", costs) }
}

func TestTripCostsSumMatches(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 7, Name: "Truck 7"})
    ck := dispatcherCookie(t, s)

    start := doJSON(t, s.RequireDispatcher(s.TripStartHandler), http.MethodPost, "/gestao/trips/start",
        model.TripStartIn{DeviceID: 7, VehicleName: "Truck 7", OriginCity: "Springfield", DestinationCity: "Shelbyville"}, ck)
    if start.Code != http.StatusCreated { t.Fatalf("start trip: got %d: %s", start.Code, start.Body.String()) }
    var trip model.Trip
    if err := json.Unmarshal(start.Body.Bytes(), &trip); err != nil { t.Fatal(err) }

    byID := s.RequireDispatcher(s.TripByIDHandler("/gestao/trips/"))
    values := []float64{10.25, 30.5, 4.75}
    var want float64
    for _, v := range values {
        rr := doJSON(t, byID, http.MethodPost, "/gestao/trips/"+trip.ID+"/costs",
            model.CostIn{Description: "expense", Category: "OUTROS", Value: v}, ck)
        if rr.Code != http.StatusCreated { t.Fatalf("add cost: got %d: %s", rr.Code, rr.Body.String()) }
        want += v
    }

    rr := doJSON(t, byID, http.MethodGet, "/gestao/trips/"+trip.ID+"/costs", nil, ck)
    if rr.Code != http.StatusOK { t.Fatalf("list costs: got %d", rr.Code) }
    var resp struct {
        Items []model.Cost `json:"items"`
        Total float64      `json:"total"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatal(err) }
    if len(resp.Items) != len(values) { t.Fatalf("got %d costs, want %d", len(resp.Items), len(values)) }
    if resp.Total != want { t.Fatalf("total: got %v, want %v", resp.Total, want) }

    // the finished-trip report carries the same total
    fin := doJSON(t, byID, http.MethodPut, "/gestao/trips/"+trip.ID+"/finish",
        map[string]float64{"totalDistanceKm": 120}, ck)
    if fin.Code != http.StatusOK { t.Fatalf("finish trip: got %d: %s", fin.Code, fin.Body.String()) }
    rep := doJSON(t, s.RequireDispatcher(s.ReportsHandler), http.MethodGet, "/gestao/reports/trip-costs", nil, ck)
    if rep.Code != http.StatusOK { t.Fatalf("trip-costs report: got %d", rep.Code) }
    var report struct {
        Items []model.TripCostRow `json:"items"`
    }
    if err := json.Unmarshal(rep.Body.Bytes(), &report); err != nil { t.Fatal(err) }
    if len(report.Items) != 1 { t.Fatalf("got %d report rows, want 1", len(report.Items)) }
    if report.Items[0].TotalCost != want { t.Fatalf("report total: got %v, want %v", report.Items[0].TotalCost, want) }
}

func TestTripFinishTwiceRejected(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 7, Name: "Truck 7"})
    ck := dispatcherCookie(t, s)
    trip, err := s.Store.StartTrip(context.Background(), model.TripStartIn{DeviceID: 7, OriginCity: "A", DestinationCity: "B"})
    if err != nil { t.Fatal(err) }
    byID := s.RequireDispatcher(s.TripByIDHandler("/gestao/trips/"))
    body := map[string]float64{"totalDistanceKm": 42}
    if rr := doJSON(t, byID, http.MethodPut, "/gestao/trips/"+trip.ID+"/finish", body, ck); rr.Code != http.StatusOK {
        t.Fatalf("first finish: got %d", rr.Code)
    }
    if rr := doJSON(t, byID, http.MethodPut, "/gestao/trips/"+trip.ID+"/finish", body, ck); rr.Code != http.StatusBadRequest {
        t.Fatalf("second finish: got %d, want 400", rr.Code)
    }
}

func TestTripFinishNegativeDistanceRejected(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 7, Name: "Truck 7"})
    ck := dispatcherCookie(t, s)
    trip, err := s.Store.StartTrip(context.Background(), model.TripStartIn{DeviceID: 7, OriginCity: "A", DestinationCity: "B"})
    if err != nil { t.Fatal(err) }
    byID := s.RequireDispatcher(s.TripByIDHandler("/gestao/trips/"))
    rr := doJSON(t, byID, http.MethodPut, "/gestao/trips/"+trip.ID+"/finish",
        map[string]float64{"totalDistanceKm": -50}, ck)
    if rr.Code != http.StatusBadRequest { t.Fatalf("negative distance: got %d", rr.Code) }
    got, err := s.Store.GetTrip(context.Background(), trip.ID)
    if err != nil { t.Fatal(err) }
    if got.Status != model.TripOpen { t.Fatalf("trip status: %s, want %s", got.Status, model.TripOpen) }
}

func TestVehicleSyncUpserts(t *testing.T) {
    s, _ := newTestServer(t,
        tracker.Device{ID: 1, Name: "Truck 1", UniqueID: "t1", Status: "online"},
        tracker.Device{ID: 2, Name: "Truck 2", UniqueID: "t2", Status: "offline"},
    )
    ck := dispatcherCookie(t, s)
    rr := doJSON(t, s.RequireDispatcher(s.VehicleSyncHandler), http.MethodPost, "/gestao/vehicles/sync", nil, ck)
    if rr.Code != http.StatusOK { t.Fatalf("sync: got %d: %s", rr.Code, rr.Body.String()) }

    list := doJSON(t, s.RequireDispatcher(s.VehiclesHandler), http.MethodGet, "/gestao/vehicles", nil, ck)
    var resp struct {
        Items []model.Vehicle `json:"items"`
    }
    if err := json.Unmarshal(list.Body.Bytes(), &resp); err != nil { t.Fatal(err) }
    if len(resp.Items) != 2 { t.Fatalf("got %d vehicles, want 2", len(resp.Items)) }
}

func TestDriverVehicleLinksLimitToScope(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 1, Name: "Truck 1"})
    ck := dispatcherCookie(t, s)
    d, err := s.Store.CreateDriver(context.Background(), model.DriverIn{Name: "Ana"}, nil)
    if err != nil { t.Fatal(err) }
    byID := s.RequireDispatcher(s.DriverByIDHandler)

    rr := doJSON(t, byID, http.MethodPut, "/gestao/drivers/"+d.ID+"/vehicles",
        map[string][]int64{"deviceIds": {1, 99}}, ck)
    if rr.Code != http.StatusForbidden { t.Fatalf("out-of-scope link: got %d", rr.Code) }

    rr = doJSON(t, byID, http.MethodPut, "/gestao/drivers/"+d.ID+"/vehicles",
        map[string][]int64{"deviceIds": {1}}, ck)
    if rr.Code != http.StatusOK { t.Fatalf("in-scope link: got %d: %s", rr.Code, rr.Body.String()) }
    ids, _ := s.Store.ListDriverVehicleIDs(context.Background(), d.ID)
    if len(ids) != 1 || ids[0] != 1 { t.Fatalf("links: %v", ids) }
}

func TestDriverWithoutVehicles(t *testing.T) {
    s, _ := newTestServer(t)
    hash, _ := auth.HashPassword("secret1", bcrypt.MinCost)
    d, err := s.Store.CreateDriver(context.Background(), model.DriverIn{Name: "Ana", Username: "ana", Password: "secret1"}, hash)
    if err != nil { t.Fatal(err) }
    token, err := s.Tokens.Mint(d.ID)
    if err != nil { t.Fatal(err) }

    do := func(h http.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
        var rd *bytes.Reader
        if body != nil {
            b, _ := json.Marshal(body)
            rd = bytes.NewReader(b)
        } else {
            rd = bytes.NewReader(nil)
        }
        req := httptest.NewRequest(method, path, rd)
        req.Header.Set("Authorization", "Bearer "+token)
        rr := httptest.NewRecorder()
        s.RequireDriver(h)(rr, req)
        return rr
    }

    // vehicle-scoped writes are rejected through the scope check
    rr := do(s.TripStartHandler, http.MethodPost, "/app/motorista/trips/start",
        model.TripStartIn{DeviceID: 1, OriginCity: "A", DestinationCity: "B"})
    if rr.Code != http.StatusForbidden { t.Fatalf("trip start without links: got %d", rr.Code) }

    // routes that only touch the driver's own account still work
    rr = do(s.DriverPasswordHandler, http.MethodPut, "/app/motorista/password",
        map[string]string{"currentPassword": "secret1", "password": "newsecret"})
    if rr.Code != http.StatusOK { t.Fatalf("password change without links: got %d: %s", rr.Code, rr.Body.String()) }

    rr = do(s.DriverVehiclesHandler, http.MethodGet, "/app/motorista/vehicles", nil)
    if rr.Code != http.StatusOK { t.Fatalf("vehicle list without links: got %d", rr.Code) }
    var resp struct {
        Items []model.Vehicle `json:"items"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatal(err) }
    if len(resp.Items) != 0 { t.Fatalf("vehicle list without links: %+v", resp.Items) }
}

func TestDriverPasswordChange(t *testing.T) {
    s, _ := newTestServer(t)
    hash, _ := auth.HashPassword("secret1", bcrypt.MinCost)
    d, err := s.Store.CreateDriver(context.Background(), model.DriverIn{Name: "Ana", Username: "ana", Password: "secret1"}, hash)
    if err != nil { t.Fatal(err) }
    if err := s.Store.ReplaceDriverVehicles(context.Background(), d.ID, []int64{1}); err != nil { t.Fatal(err) }
    token, _ := s.Tokens.Mint(d.ID)

    do := func(body map[string]string) *httptest.ResponseRecorder {
        b, _ := json.Marshal(body)
        req := httptest.NewRequest(http.MethodPut, "/app/motorista/password", bytes.NewReader(b))
        req.Header.Set("Authorization", "Bearer "+token)
        rr := httptest.NewRecorder()
        s.RequireDriver(s.DriverPasswordHandler)(rr, req)
        return rr
    }

    if rr := do(map[string]string{"currentPassword": "secret1", "password": "abc"}); rr.Code != http.StatusBadRequest {
        t.Fatalf("short password: got %d", rr.Code)
    }
    if rr := do(map[string]string{"currentPassword": "wrong", "password": "newsecret"}); rr.Code != http.StatusUnauthorized {
        t.Fatalf("wrong current: got %d", rr.Code)
    }
    if rr := do(map[string]string{"currentPassword": "secret1", "password": "newsecret"}); rr.Code != http.StatusOK {
        t.Fatalf("change: got %d: %s", rr.Code, rr.Body.String())
    }
    cred, err := s.Store.GetCredential(context.Background(), "ana")
    if err != nil { t.Fatal(err) }
    if !auth.CheckPassword(cred.PasswordHash, "newsecret") { t.Fatal("new password not persisted") }
}

func TestReportsValidation(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 1, Name: "Truck 1"})
    ck := dispatcherCookie(t, s)
    h := s.RequireDispatcher(s.ReportsHandler)

    if rr := doJSON(t, h, http.MethodGet, "/gestao/reports/summary?deviceId=banana", nil, ck); rr.Code != http.StatusBadRequest {
        t.Fatalf("bad deviceId: got %d", rr.Code)
    }
    if rr := doJSON(t, h, http.MethodGet, "/gestao/reports/trip-costs?period=hourly", nil, ck); rr.Code != http.StatusBadRequest {
        t.Fatalf("bad period: got %d", rr.Code)
    }
    if rr := doJSON(t, h, http.MethodGet, "/gestao/reports/summary?deviceId=99", nil, ck); rr.Code != http.StatusForbidden {
        t.Fatalf("out-of-scope deviceId: got %d", rr.Code)
    }
    if rr := doJSON(t, h, http.MethodGet, "/gestao/reports/nope", nil, ck); rr.Code != http.StatusNotFound {
        t.Fatalf("unknown report: got %d", rr.Code)
    }
}

func TestLogoutDestroysSession(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 1, Name: "Truck 1"})
    ck := dispatcherCookie(t, s)
    if rr := doJSON(t, s.LogoutHandler, http.MethodPost, "/auth/logout", nil, ck); rr.Code != http.StatusOK {
        t.Fatalf("logout: got %d", rr.Code)
    }
    rr := doJSON(t, s.RequireDispatcher(s.VehiclesHandler), http.MethodGet, "/gestao/vehicles", nil, ck)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("session survived logout: got %d", rr.Code) }
}

func TestUploadStoresFile(t *testing.T) {
    s, _ := newTestServer(t, tracker.Device{ID: 1, Name: "Truck 1"})
    ck := dispatcherCookie(t, s)

    var buf bytes.Buffer
    mw := multipart.NewWriter(&buf)
    part, err := mw.CreateFormFile("file", "pump.jpg")
    if err != nil { t.Fatal(err) }
    if _, err := part.Write([]byte("jpeg-bytes")); err != nil { t.Fatal(err) }
    _ = mw.Close()

    req := httptest.NewRequest(http.MethodPost, "/gestao/upload", &buf)
    req.Header.Set("Content-Type", mw.FormDataContentType())
    req.AddCookie(ck)
    rr := httptest.NewRecorder()
    s.RequireDispatcher(s.UploadHandler)(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("upload: got %d: %s", rr.Code, rr.Body.String()) }

    var resp struct {
        FilePath string `json:"filePath"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatal(err) }
    if !strings.HasPrefix(resp.FilePath, "/uploads/") || !strings.HasSuffix(resp.FilePath, ".jpg") {
        t.Fatalf("filePath: %s", resp.FilePath)
    }
    name := strings.TrimPrefix(resp.FilePath, "/uploads/")
    data, err := os.ReadFile(filepath.Join(s.Config.Uploads.Dir, name))
    if err != nil { t.Fatalf("stored file: %v", err) }
    if string(data) != "jpeg-bytes" { t.Fatalf("stored content: %q", data) }
}

func TestHealthReady(t *testing.T) {
    s, _ := newTestServer(t)
    rr := httptest.NewRecorder()
    s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
    if rr.Code != 200 { t.Fatalf("health: got %d", rr.Code) }
    rr = httptest.NewRecorder()
    s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
    if rr.Code != 200 { t.Fatalf("ready: got %d", rr.Code) }
}
