// Package main runs a demo client for the fleet event stream: it logs in as
// a dispatcher, starts a trip, and prints the SSE events that follow.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3666"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	email := os.Getenv("TRACKER_EMAIL")
	password := os.Getenv("TRACKER_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("TRACKER_EMAIL and TRACKER_PASSWORD are required")
	}

	// Login and keep the session cookie
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(base+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("login failed: %s", resp.Status)
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "frota_session" {
			cookie = c
		}
	}
	if cookie == nil {
		log.Fatal("no session cookie returned")
	}

	// Subscribe to the event stream
	streamReq, _ := http.NewRequest(http.MethodGet, base+"/gestao/events/stream", nil)
	streamReq.AddCookie(cookie)
	streamResp, err := http.DefaultClient.Do(streamReq)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = streamResp.Body.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(streamResp.Body)
		for sc.Scan() {
			if line := sc.Text(); line != "" {
				log.Printf("SSE <- %s", line)
			}
		}
	}()

	// Start a trip on the first visible vehicle to trigger an event
	time.Sleep(500 * time.Millisecond)
	vehReq, _ := http.NewRequest(http.MethodGet, base+"/gestao/vehicles", nil)
	vehReq.AddCookie(cookie)
	vehResp, err := http.DefaultClient.Do(vehReq)
	if err != nil {
		log.Fatal(err)
	}
	var vehicles struct {
		Items []struct {
			DeviceID int64  `json:"deviceId"`
			Name     string `json:"name"`
		} `json:"items"`
	}
	if err := json.NewDecoder(vehResp.Body).Decode(&vehicles); err != nil {
		log.Fatal(err)
	}
	_ = vehResp.Body.Close()
	if len(vehicles.Items) == 0 {
		log.Fatal("no vehicles in scope; run POST /gestao/vehicles/sync first")
	}
	v := vehicles.Items[0]
	log.Printf("starting trip on %s (%d)", v.Name, v.DeviceID)

	trip, _ := json.Marshal(map[string]any{
		"deviceId":        v.DeviceID,
		"vehicleName":     v.Name,
		"originCity":      "Springfield",
		"destinationCity": "Shelbyville",
	})
	tripReq, _ := http.NewRequest(http.MethodPost, base+"/gestao/trips/start", bytes.NewReader(trip))
	tripReq.Header.Set("Content-Type", "application/json")
	tripReq.AddCookie(cookie)
	_, _ = http.DefaultClient.Do(tripReq)

	// Wait briefly to receive a few events
	select {
	case <-time.After(3 * time.Second):
	case <-done:
	}
}
