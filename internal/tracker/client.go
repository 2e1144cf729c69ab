// Package tracker wraps the upstream GPS-tracking HTTP API. Calls authenticate
// either with a forwarded session cookie (dispatcher requests) or with the
// service's own basic-auth credentials (vehicle sync).
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"frota/internal/metrics"
)

// ErrUnauthorized is returned when the upstream rejects the supplied
// credentials or session cookie.
var ErrUnauthorized = errors.New("tracker: unauthorized")

// Device is an upstream tracked unit; its ID doubles as the vehicle ID
// throughout this service.
type Device struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	UniqueID string `json:"uniqueId"`
	Status   string `json:"status"`
}

// Position is one point of a route report.
type Position struct {
	DeviceID   int64   `json:"deviceId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Speed      float64 `json:"speed"`
	Course     float64 `json:"course"`
	FixTime    string  `json:"fixTime"`
	DeviceTime string  `json:"deviceTime,omitempty"`
}

type Client struct {
	base     string
	email    string
	password string
	http     *http.Client
}

func NewClient(base, email, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		email:    email,
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

// Login exchanges dispatcher credentials for an upstream session cookie.
// Any non-2xx response maps to ErrUnauthorized; the upstream body is
// discarded so it can never leak to API clients.
func (c *Client) Login(ctx context.Context, email, password string) (cookie string, err error) {
	defer func() { observe("login", err) }()
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/session", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("tracker login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", ErrUnauthorized
	}
	cookie = sessionCookie(resp)
	if cookie == "" {
		return "", fmt.Errorf("tracker login: no session cookie in response")
	}
	return cookie, nil
}

// DevicesWithCookie lists the devices visible to the session behind the
// forwarded cookie. This is the per-request scope resolution call.
func (c *Client) DevicesWithCookie(ctx context.Context, cookie string) ([]Device, error) {
	var out []Device
	err := c.getJSON(ctx, c.base+"/devices", cookie, &out)
	observe("devices", err)
	return out, err
}

// Devices lists all devices using the service's basic-auth credentials.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var out []Device
	err := c.getJSON(ctx, c.base+"/devices", "", &out)
	observe("devices", err)
	return out, err
}

// Device fetches a single device using the service's basic-auth credentials.
func (c *Client) Device(ctx context.Context, id int64) (Device, error) {
	var out Device
	err := c.getJSON(ctx, c.base+"/devices/"+strconv.FormatInt(id, 10), "", &out)
	observe("device", err)
	return out, err
}

// RouteReport fetches the position history for one device in [from, to].
func (c *Client) RouteReport(ctx context.Context, cookie string, deviceID int64, from, to time.Time) ([]Position, error) {
	q := url.Values{}
	q.Set("deviceId", strconv.FormatInt(deviceID, 10))
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))
	var out []Position
	err := c.getJSON(ctx, c.base+"/reports/route?"+q.Encode(), cookie, &out)
	observe("route_report", err)
	return out, err
}

// DialSocket opens the upstream live-position websocket using the forwarded
// session cookie. The caller owns the returned connection.
func (c *Client) DialSocket(ctx context.Context, cookie string) (conn *websocket.Conn, err error) {
	defer func() { observe("socket", err) }()
	wsURL := c.base + "/socket"
	if strings.HasPrefix(wsURL, "https://") {
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	} else {
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	hdr := http.Header{}
	hdr.Set("Cookie", cookie)
	dialer := websocket.Dialer{HandshakeTimeout: c.http.Timeout}
	var resp *http.Response
	conn, resp, err = dialer.DialContext(ctx, wsURL, hdr)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("tracker socket: %w", err)
	}
	return conn, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL, cookie string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	} else {
		req.SetBasicAuth(c.email, c.password)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tracker: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("tracker: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// observe records one upstream call on the tracker_calls_total counter.
func observe(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrUnauthorized):
		outcome = "unauthorized"
	default:
		outcome = "error"
	}
	metrics.TrackerCalls.WithLabelValues(op, outcome).Inc()
}

// sessionCookie extracts the upstream session cookie pair from a login
// response, preserving only name=value for forwarding.
func sessionCookie(resp *http.Response) string {
	for _, ck := range resp.Cookies() {
		if strings.EqualFold(ck.Name, "JSESSIONID") {
			return ck.Name + "=" + ck.Value
		}
	}
	// fall back to the first cookie the upstream set
	if cks := resp.Cookies(); len(cks) > 0 {
		return cks[0].Name + "=" + cks[0].Value
	}
	return ""
}
