package api

import (
    "encoding/json"
    "errors"
    "log"
    "net"
    "net/http"
    "strings"
    "sync"

    "golang.org/x/crypto/bcrypt"
    "golang.org/x/time/rate"

    "frota/internal/auth"
    "frota/internal/metrics"
    "frota/internal/store"
    "frota/internal/tracker"
)

// dummyHash keeps the bcrypt cost of an unknown-username login identical to a
// wrong-password one, so the two cannot be told apart by timing or body.
var dummyHash = func() []byte {
    h, _ := bcrypt.GenerateFromPassword([]byte("not-a-password"), bcrypt.DefaultCost)
    return h
}()

// ipLimiter rate-limits login attempts per remote IP.
type ipLimiter struct {
    mu       sync.Mutex
    limiters map[string]*rate.Limiter
    limit    rate.Limit
    burst    int
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
    return &ipLimiter{limiters: map[string]*rate.Limiter{}, limit: rate.Limit(perSecond), burst: burst}
}

func (l *ipLimiter) allow(remoteAddr string) bool {
    host, _, err := net.SplitHostPort(remoteAddr)
    if err != nil { host = remoteAddr }
    l.mu.Lock()
    lim := l.limiters[host]
    if lim == nil {
        lim = rate.NewLimiter(l.limit, l.burst)
        l.limiters[host] = lim
    }
    l.mu.Unlock()
    return lim.Allow()
}

// LoginHandler handles POST /auth/login for dispatchers. Credentials are
// validated against the tracking server; on success a session holding the
// upstream cookie is created.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if !s.loginLimiter().allow(r.RemoteAddr) {
        writeProblem(w, http.StatusTooManyRequests, "Too many requests", "try again later", r.URL.Path)
        return
    }
    var req struct {
        Email    string `json:"email"`
        Password string `json:"password"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    req.Email = strings.TrimSpace(req.Email)
    if req.Email == "" || req.Password == "" {
        writeProblem(w, http.StatusBadRequest, "Invalid login", "email and password are required", r.URL.Path)
        return
    }
    cookie, err := s.Tracker.Login(r.Context(), req.Email, req.Password)
    if err != nil {
        metrics.LoginAttempts.WithLabelValues("dispatcher", "denied").Inc()
        if errors.Is(err, tracker.ErrUnauthorized) {
            writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials", r.URL.Path)
            return
        }
        log.Printf("tracker login: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Upstream error", "tracking server unavailable", r.URL.Path)
        return
    }
    sess, err := s.Sessions.Create(r.Context(), req.Email, cookie)
    if err != nil {
        log.Printf("session create: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not create session", r.URL.Path)
        return
    }
    metrics.LoginAttempts.WithLabelValues("dispatcher", "ok").Inc()
    http.SetCookie(w, &http.Cookie{
        Name:     sessionCookieName,
        Value:    sess.ID,
        Path:     "/",
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    })
    writeJSON(w, http.StatusOK, map[string]any{"email": req.Email})
}

// DriverLoginHandler handles POST /auth/driver-login. The response for an
// unknown username, an inactive record, and a wrong password is identical.
func (s *Server) DriverLoginHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if !s.loginLimiter().allow(r.RemoteAddr) {
        writeProblem(w, http.StatusTooManyRequests, "Too many requests", "try again later", r.URL.Path)
        return
    }
    var req struct {
        Username string `json:"username"`
        Password string `json:"password"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        writeProblem(w, http.StatusBadRequest, "Invalid login", "username and password are required", r.URL.Path)
        return
    }
    denied := func() {
        metrics.LoginAttempts.WithLabelValues("driver", "denied").Inc()
        writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials", r.URL.Path)
    }
    cred, err := s.Store.GetCredential(r.Context(), req.Username)
    if err != nil {
        if !errors.Is(err, store.ErrNotFound) {
            log.Printf("credential lookup: %v", err)
            writeProblem(w, http.StatusInternalServerError, "Internal error", "login failed", r.URL.Path)
            return
        }
        // burn a compare anyway
        auth.CheckPassword(dummyHash, req.Password)
        denied()
        return
    }
    if !auth.CheckPassword(cred.PasswordHash, req.Password) || !cred.Active {
        denied()
        return
    }
    token, err := s.Tokens.Mint(cred.DriverID)
    if err != nil {
        log.Printf("token mint: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "login failed", r.URL.Path)
        return
    }
    d, err := s.Store.GetDriver(r.Context(), cred.DriverID)
    if err != nil {
        denied()
        return
    }
    metrics.LoginAttempts.WithLabelValues("driver", "ok").Inc()
    writeJSON(w, http.StatusOK, map[string]any{"token": token, "driver": d})
}

// LogoutHandler handles POST /auth/logout. Driver tokens are stateless, so
// only dispatcher sessions have server-side state to drop.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if ck, err := r.Cookie(sessionCookieName); err == nil && ck.Value != "" {
        _ = s.Sessions.Delete(r.Context(), ck.Value)
    }
    clearSessionCookie(w)
    writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
