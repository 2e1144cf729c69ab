package api

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net/http"
    "net/url"
    "strconv"
    "time"

    "github.com/gorilla/websocket"

    "frota/internal/tracker"
)

var wsUpgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 4096,
    // the SPA is served from this origin; same-origin requests only
    CheckOrigin: func(r *http.Request) bool {
        origin := r.Header.Get("Origin")
        if origin == "" { return true }
        u, err := url.Parse(origin)
        return err == nil && u.Host == r.Host
    },
}

// RouteHistoryHandler handles GET /gestao/tracking/route?deviceId&from&to by
// proxying the upstream route report with the caller's forwarded cookie.
func (s *Server) RouteHistoryHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    caller := callerFrom(r.Context())
    q := r.URL.Query()
    deviceID, err := strconv.ParseInt(q.Get("deviceId"), 10, 64)
    if err != nil || deviceID <= 0 {
        writeProblem(w, http.StatusBadRequest, "Invalid request", "deviceId must be a positive integer", r.URL.Path)
        return
    }
    if !caller.CanAccess(deviceID) {
        writeProblem(w, http.StatusForbidden, "Forbidden", "vehicle outside your scope", r.URL.Path)
        return
    }
    from, err := time.Parse(time.RFC3339, q.Get("from"))
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid request", "from must be RFC3339", r.URL.Path)
        return
    }
    to, err := time.Parse(time.RFC3339, q.Get("to"))
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid request", "to must be RFC3339", r.URL.Path)
        return
    }
    positions, err := s.Tracker.RouteReport(r.Context(), caller.TrackerCookie, deviceID, from, to)
    if err != nil {
        if errors.Is(err, tracker.ErrUnauthorized) {
            writeProblem(w, http.StatusUnauthorized, "Unauthorized", "session expired", r.URL.Path)
            return
        }
        log.Printf("route report: %v", err)
        writeProblem(w, http.StatusBadGateway, "Upstream error", "could not fetch route", r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": positions})
}

// LiveStreamHandler handles GET /gestao/tracking/stream: the client websocket
// is bridged to the upstream position socket, relaying only positions for
// devices in the caller's scope.
func (s *Server) LiveStreamHandler(w http.ResponseWriter, r *http.Request) {
    caller := callerFrom(r.Context())
    upstream, err := s.Tracker.DialSocket(r.Context(), caller.TrackerCookie)
    if err != nil {
        log.Printf("dial tracker socket: %v", err)
        writeProblem(w, http.StatusBadGateway, "Upstream error", "could not open position stream", r.URL.Path)
        return
    }
    conn, err := wsUpgrader.Upgrade(w, r, nil)
    if err != nil {
        _ = upstream.Close()
        return
    }
    defer func(){ _ = conn.Close() }()
    defer func(){ _ = upstream.Close() }()

    scope := map[int64]struct{}{}
    for _, id := range caller.VehicleIDs { scope[id] = struct{}{} }

    // drain the client side so close frames and pings are processed
    go func() {
        for {
            if _, _, err := conn.ReadMessage(); err != nil {
                _ = upstream.Close()
                return
            }
        }
    }()

    for {
        var frame struct {
            Positions []tracker.Position `json:"positions"`
        }
        if err := upstream.ReadJSON(&frame); err != nil {
            return
        }
        if len(frame.Positions) == 0 { continue }
        filtered := frame.Positions[:0]
        for _, p := range frame.Positions {
            if _, ok := scope[p.DeviceID]; ok { filtered = append(filtered, p) }
        }
        if len(filtered) == 0 { continue }
        if err := conn.WriteJSON(map[string]any{"positions": filtered}); err != nil {
            return
        }
    }
}

// EventsStreamHandler handles GET /gestao/events/stream (SSE).
func (s *Server) EventsStreamHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        writeProblem(w, http.StatusInternalServerError, "Internal error", "streaming unsupported", r.URL.Path)
        return
    }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("Connection", "keep-alive")
    ch := s.Broker.Subscribe(topicFleet)
    defer s.Broker.Unsubscribe(topicFleet, ch)
    fmt.Fprintf(w, "event: heartbeat\n")
    fmt.Fprintf(w, "data: {\"ts\":\"%s\"}\n\n", time.Now().Format(time.RFC3339))
    flusher.Flush()
    notify := r.Context().Done()
    for {
        select {
        case <-notify:
            return
        case evt := <-ch:
            b, _ := json.Marshal(evt.Data)
            fmt.Fprintf(w, "event: %s\n", evt.Type)
            fmt.Fprintf(w, "data: %s\n\n", string(b))
            flusher.Flush()
        case <-time.After(15 * time.Second):
            fmt.Fprintf(w, "event: heartbeat\n")
            fmt.Fprintf(w, "data: {\"ts\":\"%s\"}\n\n", time.Now().Format(time.RFC3339))
            flusher.Flush()
        }
    }
}
