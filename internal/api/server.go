package api

import (
    "context"
    "log"
    "strings"
    "sync"
    "time"

    "github.com/gorilla/websocket"

    "frota/internal/auth"
    "frota/internal/config"
    "frota/internal/store"
    "frota/internal/tracker"
)

// TrackerClient is the slice of the upstream client the API depends on.
// *tracker.Client satisfies it; tests substitute a stub.
type TrackerClient interface {
    Login(ctx context.Context, email, password string) (string, error)
    Devices(ctx context.Context) ([]tracker.Device, error)
    DevicesWithCookie(ctx context.Context, cookie string) ([]tracker.Device, error)
    RouteReport(ctx context.Context, cookie string, deviceID int64, from, to time.Time) ([]tracker.Position, error)
    DialSocket(ctx context.Context, cookie string) (*websocket.Conn, error)
}

type Server struct {
    Store    store.Store
    Sessions auth.SessionStore
    Tokens   *auth.TokenManager
    Tracker  TrackerClient
    Broker   EventBroker
    Config   *config.Config

    limiterOnce sync.Once
    limiter     *ipLimiter
}

// loginLimiter is lazily built so a zero-value Server (as tests construct it)
// still rate-limits logins.
func (s *Server) loginLimiter() *ipLimiter {
    s.limiterOnce.Do(func() { s.limiter = newIPLimiter(1, 10) })
    return s.limiter
}

// NewServer wires the server from config. With no DATABASE_URL the in-memory
// store is used; with no REDIS_URL sessions and events stay in-process.
func NewServer(cfg *config.Config) (*Server, error) {
    var st store.Store
    if strings.TrimSpace(cfg.Database.URL) == "" {
        st = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(cfg.Database.URL)
        if err != nil {
            return nil, err
        }
        if cfg.Database.Migrate {
            if err := sp.MigrateDir("db/migrations"); err != nil { log.Printf("migrate: %v", err) }
        }
        st = sp
    }

    var sessions auth.SessionStore
    var broker EventBroker
    if cfg.Redis.URL != "" {
        rs, err := auth.NewRedisStore(cfg.Redis.URL, cfg.Auth.SessionTTL)
        if err != nil { return nil, err }
        sessions = rs
        if rb, err := NewRedisBroker(cfg.Redis.URL); err == nil { broker = rb } else { broker = NewBroker() }
    } else {
        sessions = auth.NewMemoryStore(cfg.Auth.SessionTTL)
        broker = NewBroker()
    }

    tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
    if err != nil { return nil, err }

    tc := tracker.NewClient(cfg.Tracker.BaseURL, cfg.Tracker.Email, cfg.Tracker.Password, cfg.Tracker.Timeout)
    return &Server{Store: st, Sessions: sessions, Tokens: tokens, Tracker: tc, Broker: broker, Config: cfg}, nil
}
