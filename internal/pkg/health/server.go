// Package health serves the status endpoint: connection indicator and
// scan counters. Read-only; no control surface.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/livescout/matchrelay/internal/pkg/scheduler"
)

// StatusFunc supplies the current scheduler status.
type StatusFunc func() scheduler.Status

// Run starts the health server in the background and shuts it down
// when ctx is cancelled.
func Run(ctx context.Context, addr string, status StatusFunc, readHeaderTimeout time.Duration) {
	mux := http.NewServeMux()

	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "pong")
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		st := status()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(struct {
			scheduler.Status
			Uptime string `json:"uptime"`
		}{st, time.Since(st.StartedAt).Round(time.Second).String()}); err != nil {
			slog.Warn("Health response encode failed", "error", err)
		}
	})

	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("Health server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Health server failed", "error", err)
		}
	}()
}

// AddrFor formats a listen address for a port.
func AddrFor(port int) string {
	return fmt.Sprintf(":%d", port)
}
