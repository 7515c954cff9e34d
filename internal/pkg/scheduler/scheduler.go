// Package scheduler drives the scan and heartbeat cycles. All state
// transitions happen on one consuming loop: timer ticks and transport
// events are messages into the same select, so scan ticks never
// overlap and timers never run against a closed transport.
package scheduler

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/livescout/matchrelay/internal/pkg/config"
	"github.com/livescout/matchrelay/internal/pkg/feed"
	"github.com/livescout/matchrelay/internal/pkg/freshness"
	"github.com/livescout/matchrelay/internal/pkg/handoff"
	"github.com/livescout/matchrelay/internal/pkg/models"
	"github.com/livescout/matchrelay/internal/pkg/scrape"
)

const (
	defaultScanInterval      = 5 * time.Second
	defaultHeartbeatInterval = 30 * time.Second
)

// Notifier receives operator-facing lifecycle notifications. May be
// nil; everything still runs without one.
type Notifier interface {
	ConnectionUp()
	ConnectionDown()
	ViewReloaded(reason string)
}

// Status is a point-in-time view for the health endpoint.
type Status struct {
	ConnectionState feed.State `json:"connection_state"`
	SentCount       int64      `json:"sent_count"`
	LastScanCount   int        `json:"last_scan_count"`
	LastScanAt      time.Time  `json:"last_scan_at"`
	StartedAt       time.Time  `json:"started_at"`
}

type Scheduler struct {
	cfg      *config.Config
	source   scrape.Source
	monitor  *freshness.Monitor
	handoff  *handoff.Store // nil when hand-off is not configured
	notifier Notifier

	origin       string // scheme://host of the page, for snapshot URLs
	scanInterval time.Duration
	hbInterval   time.Duration

	mu            sync.RWMutex
	client        *feed.Client
	lastScanCount int
	lastScanAt    time.Time
	startedAt     time.Time
}

func New(cfg *config.Config, source scrape.Source, store *handoff.Store, notifier Notifier) *Scheduler {
	scanInterval := cfg.Scrape.Interval
	if scanInterval <= 0 {
		scanInterval = defaultScanInterval
	}
	hbInterval := cfg.Feed.HeartbeatInterval
	if hbInterval <= 0 {
		hbInterval = defaultHeartbeatInterval
	}

	origin := ""
	if u, err := url.Parse(cfg.Scrape.PageURL); err == nil && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}

	return &Scheduler{
		cfg:          cfg,
		source:       source,
		monitor:      freshness.NewMonitor(cfg.Freshness.StaleAfter, cfg.Freshness.ReloadEvery, cfg.Freshness.MatchPoint, time.Now()),
		handoff:      store,
		notifier:     notifier,
		origin:       origin,
		scanInterval: scanInterval,
		hbInterval:   hbInterval,
		startedAt:    time.Now(),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.setClient(s.newClient())
	s.Client().Connect()

	var scanTicker, hbTicker *time.Ticker
	var scanC, hbC <-chan time.Time

	startTimers := func() {
		if scanTicker != nil {
			return
		}
		scanTicker = time.NewTicker(s.scanInterval)
		hbTicker = time.NewTicker(s.hbInterval)
		scanC = scanTicker.C
		hbC = hbTicker.C
		slog.Info("Scan timers armed", "scan_interval", s.scanInterval, "heartbeat_interval", s.hbInterval)
	}
	stopTimers := func() {
		if scanTicker == nil {
			return
		}
		scanTicker.Stop()
		hbTicker.Stop()
		scanTicker, hbTicker = nil, nil
		scanC, hbC = nil, nil
		slog.Info("Scan timers stopped")
	}
	defer stopTimers()

	for {
		select {
		case <-ctx.Done():
			s.Client().Close()
			slog.Info("Scheduler stopped")
			return nil

		case ev := <-s.Client().Events():
			switch ev.Kind {
			case feed.EventConnected:
				s.restoreHandoff(ctx)
				startTimers()
				if s.notifier != nil {
					s.notifier.ConnectionUp()
				}
			case feed.EventDisconnected:
				stopTimers()
				if s.notifier != nil {
					s.notifier.ConnectionDown()
				}
			}

		case <-scanC:
			if reason := s.scanOnce(ctx); reason != "" {
				stopTimers()
				s.reloadView(ctx, reason)
			}

		case <-hbC:
			s.heartbeat()
		}
	}
}

// scanOnce runs one full scan tick and returns a non-empty reload
// reason when the freshness monitor demands a view reload.
func (s *Scheduler) scanOnce(ctx context.Context) string {
	html, err := s.source.HTML(ctx)
	if err != nil {
		slog.Warn("Scan skipped, page read failed", "error", err)
		return ""
	}
	doc, err := scrape.ParseDocument(html)
	if err != nil {
		slog.Warn("Scan skipped, document parse failed", "error", err)
		return ""
	}

	snaps := scrape.Scrape(doc, s.origin)

	s.mu.Lock()
	s.lastScanCount = len(snaps)
	s.lastScanAt = time.Now()
	s.mu.Unlock()

	decision := s.monitor.Observe(snaps, time.Now())

	client := s.Client()
	for _, snap := range snaps {
		// A false return means the message was dropped (usually a
		// disconnect mid-tick); the next tick resends current state.
		client.Send(models.NewLiveMatch(s.cfg.Feed.Source, snap))
	}

	if decision.Reload {
		return decision.Reason
	}
	return ""
}

func (s *Scheduler) heartbeat() {
	s.Client().Send(models.NewHeartbeat(s.cfg.Feed.Source, s.source.Location(), s.LastScanCount()))
}

// reloadView tears down the current connection epoch, reloads the
// document view and starts a fresh epoch. The sent counter survives
// only through the hand-off record.
func (s *Scheduler) reloadView(ctx context.Context, reason string) {
	slog.Info("Reloading page view", "reason", reason)

	client := s.Client()
	if s.handoff != nil {
		rec := handoff.Record{Reason: reason, At: time.Now(), SentCount: client.SentCount()}
		if err := s.handoff.Stash(ctx, rec); err != nil {
			slog.Warn("Handoff stash failed, sent counter will restart", "error", err)
		}
	}
	client.Close()

	if err := s.source.Reload(ctx); err != nil {
		slog.Error("Page reload failed, keeping stale view until next cycle", "error", err)
	}

	next := s.newClient()
	s.setClient(next)
	next.Connect()

	if s.notifier != nil {
		s.notifier.ViewReloaded(reason)
	}
}

// restoreHandoff consumes a pending hand-off record, if any, and
// seeds the fresh epoch's sent counter. One-shot: the record is
// cleared by the read.
func (s *Scheduler) restoreHandoff(ctx context.Context) {
	if s.handoff == nil {
		return
	}
	rec, err := s.handoff.Consume(ctx)
	if err != nil {
		slog.Warn("Handoff consume failed, sent counter restarts at 0", "error", err)
		return
	}
	if rec == nil {
		return
	}
	s.Client().RestoreSentCount(rec.SentCount)
	slog.Info("Restored sent counter after reload", "reason", rec.Reason, "sent_count", rec.SentCount)
}

func (s *Scheduler) newClient() *feed.Client {
	return feed.NewClient(
		s.cfg.Feed.URL,
		s.cfg.Feed.Source,
		s.cfg.Feed.ReconnectDelay,
		s.cfg.Feed.WriteTimeout,
		func() (string, int) { return s.source.Location(), s.LastScanCount() },
	)
}

func (s *Scheduler) Client() *feed.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *Scheduler) setClient(c *feed.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}

func (s *Scheduler) LastScanCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastScanCount
}

func (s *Scheduler) Status() Status {
	client := s.Client()
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		LastScanCount: s.lastScanCount,
		LastScanAt:    s.lastScanAt,
		StartedAt:     s.startedAt,
	}
	if client != nil {
		st.ConnectionState = client.State()
		st.SentCount = client.SentCount()
	}
	return st
}
