package main

import (
    "bufio"
    "errors"
    "log"
    "net"
    "net/http"
    "os"
    "strconv"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"

    "frota/internal/api"
    "frota/internal/buildinfo"
    "frota/internal/config"
    "frota/internal/metrics"
)

func main() {
    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        log.Fatalf("failed to load config: %v", err)
    }
    srv, err := api.NewServer(cfg)
    if err != nil {
        log.Fatalf("failed to init server: %v", err)
    }
    metrics.RegisterDefault()

    mux := http.NewServeMux()

    // Auth
    mux.HandleFunc("/auth/login", srv.LoginHandler)
    mux.HandleFunc("/auth/driver-login", srv.DriverLoginHandler)
    mux.HandleFunc("/auth/logout", srv.LogoutHandler)

    // Dispatcher surface
    mux.HandleFunc("/gestao/vehicles", srv.RequireDispatcher(srv.VehiclesHandler))
    mux.HandleFunc("/gestao/vehicles/sync", srv.RequireDispatcher(srv.VehicleSyncHandler))
    mux.HandleFunc("/gestao/drivers", srv.RequireDispatcher(srv.DriversHandler))
    mux.HandleFunc("/gestao/drivers/", srv.RequireDispatcher(srv.DriverByIDHandler))
    mux.HandleFunc("/gestao/trips", srv.RequireDispatcher(srv.TripsHandler))
    mux.HandleFunc("/gestao/trips/start", srv.RequireDispatcher(srv.TripStartHandler))
    mux.HandleFunc("/gestao/trips/", srv.RequireDispatcher(srv.TripByIDHandler("/gestao/trips/")))
    mux.HandleFunc("/gestao/costs", srv.RequireDispatcher(srv.CostsHandler))
    mux.HandleFunc("/gestao/refuelings", srv.RequireDispatcher(srv.RefuelingsHandler))
    mux.HandleFunc("/gestao/maintenances", srv.RequireDispatcher(srv.MaintenancesHandler))
    mux.HandleFunc("/gestao/maintenances/", srv.RequireDispatcher(srv.MaintenanceByIDHandler))
    mux.HandleFunc("/gestao/upload", srv.RequireDispatcher(srv.UploadHandler))
    mux.HandleFunc("/gestao/reports/", srv.RequireDispatcher(srv.ReportsHandler))
    mux.HandleFunc("/gestao/tracking/route", srv.RequireDispatcher(srv.RouteHistoryHandler))
    mux.HandleFunc("/gestao/tracking/stream", srv.RequireDispatcher(srv.LiveStreamHandler))
    mux.HandleFunc("/gestao/events/stream", srv.RequireDispatcher(srv.EventsStreamHandler))

    // Driver app surface
    mux.HandleFunc("/app/motorista/vehicles", srv.RequireDriver(srv.DriverVehiclesHandler))
    mux.HandleFunc("/app/motorista/trips", srv.RequireDriver(srv.TripsHandler))
    mux.HandleFunc("/app/motorista/trips/start", srv.RequireDriver(srv.TripStartHandler))
    mux.HandleFunc("/app/motorista/trips/", srv.RequireDriver(srv.TripByIDHandler("/app/motorista/trips/")))
    mux.HandleFunc("/app/motorista/refuelings", srv.RequireDriver(srv.RefuelingsHandler))
    mux.HandleFunc("/app/motorista/costs", srv.RequireDriver(srv.CostsHandler))
    mux.HandleFunc("/app/motorista/upload", srv.RequireDriver(srv.UploadHandler))
    mux.HandleFunc("/app/motorista/password", srv.RequireDriver(srv.DriverPasswordHandler))

    // Uploaded photos
    mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Uploads.Dir))))

    // Built SPA, when present
    if _, err := os.Stat("web/dist"); err == nil {
        mux.Handle("/", http.FileServer(http.Dir("web/dist")))
    }

    // Health and metrics
    mux.HandleFunc("/healthz", srv.HealthHandler)
    mux.HandleFunc("/readyz", srv.ReadyHandler)
    mux.HandleFunc("/version", srv.VersionHandler)
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

    addr := ":" + cfg.Server.Port

    httpSrv := &http.Server{
        Addr:              addr,
        Handler:           logMiddleware(metricsMiddleware(mux)),
        ReadHeaderTimeout: 5 * time.Second,
    }

    log.Printf("%s %s listening on %s", buildinfo.Service, buildinfo.Version, addr)
    if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Fatalf("server error: %v", err)
    }
}

func logMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        next.ServeHTTP(w, r)
        dur := time.Since(start)
        log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
    })
}

type statusRecorder struct {
    http.ResponseWriter
    status int
}

func (r *statusRecorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
    if f, ok := r.ResponseWriter.(http.Flusher); ok { f.Flush() }
}

// Hijack keeps websocket upgrades working behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
    if h, ok := r.ResponseWriter.(http.Hijacker); ok { return h.Hijack() }
    return nil, nil, errors.New("hijacking not supported")
}

func metricsMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
        start := time.Now()
        next.ServeHTTP(rec, r)
        status := strconv.Itoa(rec.status)
        metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
        metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
    })
}
