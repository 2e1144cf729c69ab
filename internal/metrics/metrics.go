package metrics

import (
    "sync"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // TrackerCalls counts upstream tracking-server calls by operation and outcome
    TrackerCalls = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "tracker_calls_total", Help: "Upstream tracking-server calls by operation and outcome."},
        []string{"op", "outcome"},
    )
    // LoginAttempts counts login outcomes by principal kind
    LoginAttempts = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "login_attempts_total", Help: "Login attempts by principal kind and outcome."},
        []string{"kind", "outcome"},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(TrackerCalls)
        Registry.MustRegister(LoginAttempts)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
