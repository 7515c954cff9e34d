// Probe is a throwaway diagnostic for mapping the feed hub's stream
// surface: it asks the data-index service for currently active
// condition ids, then dials each candidate websocket endpoint, sends a
// subscribe request and logs every inbound frame for a fixed window.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type indexResponse struct {
	Conditions []struct {
		ID     string `json:"id"`
		Active bool   `json:"active"`
	} `json:"conditions"`
}

type subscribeRequest struct {
	Action       string   `json:"action"`
	ConditionIDs []string `json:"conditionIds"`
}

func main() {
	indexURL := flag.String("index", "http://127.0.0.1:8091/conditions", "Data-index service URL")
	endpoints := flag.String("endpoints", "ws://127.0.0.1:9000/stream", "Comma-separated candidate websocket endpoints")
	window := flag.Duration("window", 20*time.Second, "Observation window per endpoint")
	flag.Parse()

	ids, err := fetchActiveConditions(*indexURL)
	if err != nil {
		slog.Error("Failed to fetch conditions", "error", err)
		os.Exit(1)
	}
	slog.Info("Active conditions", "count", len(ids), "ids", strings.Join(ids, ","))

	for _, endpoint := range strings.Split(*endpoints, ",") {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint == "" {
			continue
		}
		probeEndpoint(endpoint, ids, *window)
	}
}

func fetchActiveConditions(indexURL string) ([]string, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(indexURL)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index returned status %d", resp.StatusCode)
	}

	var idx indexResponse
	if err := json.NewDecoder(resp.Body).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode index response: %w", err)
	}

	var ids []string
	for _, c := range idx.Conditions {
		if c.Active {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func probeEndpoint(endpoint string, ids []string, window time.Duration) {
	slog.Info("Probing endpoint", "endpoint", endpoint, "window", window)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		slog.Warn("Dial failed", "endpoint", endpoint, "error", err)
		return
	}
	defer conn.Close()

	sub := subscribeRequest{Action: "subscribe", ConditionIDs: ids}
	if err := conn.WriteJSON(sub); err != nil {
		slog.Warn("Subscribe failed", "endpoint", endpoint, "error", err)
		return
	}

	deadline := time.Now().Add(window)
	frames := 0
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Info("Read ended", "endpoint", endpoint, "frames", frames, "error", err)
			return
		}
		frames++
		slog.Info("Frame", "endpoint", endpoint, "n", frames, "data", string(data))
	}
	slog.Info("Window elapsed", "endpoint", endpoint, "frames", frames)
}
