package api

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strings"

    "frota/internal/auth"
    "frota/internal/tracker"
)

const sessionCookieName = "frota_session"

type CallerKind string

const (
    CallerDispatcher CallerKind = "dispatcher"
    CallerDriver     CallerKind = "driver"
)

// Caller is the authenticated principal attached to the request context by
// RequireDispatcher or RequireDriver.
type Caller struct {
    Kind          CallerKind
    Email         string  // dispatcher only
    DriverID      string  // driver only
    VehicleIDs    []int64 // authorization scope
    TrackerCookie string  // dispatcher only, for proxied upstream calls
}

// CanAccess reports whether deviceID lies in the caller's vehicle scope.
func (c Caller) CanAccess(deviceID int64) bool {
    for _, id := range c.VehicleIDs {
        if id == deviceID { return true }
    }
    return false
}

type ctxKeyCaller struct{}

func callerFrom(ctx context.Context) Caller {
    c, _ := ctx.Value(ctxKeyCaller{}).(Caller)
    return c
}

// RequireDispatcher authenticates the session cookie and rebuilds the
// caller's vehicle scope from the tracking server on every request. The
// scope is never cached: revoking a device upstream takes effect on the
// next request.
func (s *Server) RequireDispatcher(next http.HandlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        ck, err := r.Cookie(sessionCookieName)
        if err != nil || ck.Value == "" {
            writeProblem(w, http.StatusUnauthorized, "Unauthorized", "not authenticated", r.URL.Path)
            return
        }
        sess, err := s.Sessions.Get(r.Context(), ck.Value)
        if err != nil {
            if !errors.Is(err, auth.ErrNoSession) { log.Printf("session get: %v", err) }
            writeProblem(w, http.StatusUnauthorized, "Unauthorized", "not authenticated", r.URL.Path)
            return
        }
        devices, err := s.Tracker.DevicesWithCookie(r.Context(), sess.TrackerCookie)
        if err != nil {
            // upstream no longer honors the cookie; the session is dead
            _ = s.Sessions.Delete(r.Context(), sess.ID)
            clearSessionCookie(w)
            if !errors.Is(err, tracker.ErrUnauthorized) { log.Printf("tracker devices: %v", err) }
            writeProblem(w, http.StatusUnauthorized, "Unauthorized", "session expired", r.URL.Path)
            return
        }
        if len(devices) == 0 {
            writeProblem(w, http.StatusForbidden, "Forbidden", "no vehicles associated", r.URL.Path)
            return
        }
        ids := make([]int64, 0, len(devices))
        for _, d := range devices { ids = append(ids, d.ID) }
        _ = s.Sessions.Touch(r.Context(), sess.ID)
        caller := Caller{Kind: CallerDispatcher, Email: sess.Email, VehicleIDs: ids, TrackerCookie: sess.TrackerCookie}
        next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyCaller{}, caller)))
    }
}

// RequireDriver authenticates the bearer token and attaches the driver's
// linked vehicles as the caller's scope. An empty scope is allowed here;
// vehicle-scoped handlers reject it through CanAccess, while routes that
// only touch the driver's own account (password change) stay reachable.
func (s *Server) RequireDriver(next http.HandlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        header := r.Header.Get("Authorization")
        token, ok := strings.CutPrefix(header, "Bearer ")
        if !ok || token == "" {
            writeProblem(w, http.StatusUnauthorized, "Unauthorized", "not authenticated", r.URL.Path)
            return
        }
        driverID, err := s.Tokens.Verify(token)
        if err != nil {
            writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path)
            return
        }
        d, err := s.Store.GetDriver(r.Context(), driverID)
        if err != nil || !d.Active {
            writeProblem(w, http.StatusUnauthorized, "Unauthorized", "not authenticated", r.URL.Path)
            return
        }
        ids, err := s.Store.ListDriverVehicleIDs(r.Context(), driverID)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Internal error", "scope lookup failed", r.URL.Path)
            return
        }
        caller := Caller{Kind: CallerDriver, DriverID: driverID, VehicleIDs: ids}
        next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyCaller{}, caller)))
    }
}

func clearSessionCookie(w http.ResponseWriter) {
    http.SetCookie(w, &http.Cookie{
        Name:     sessionCookieName,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    })
}
