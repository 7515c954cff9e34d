// Package freshness decides when the document view has gone stale and
// must be reloaded. It is the only component with memory between scan
// ticks; the scraper itself stays pure.
package freshness

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/livescout/matchrelay/internal/pkg/models"
)

// Reload reasons reported in Decision and in the hand-off record.
const (
	ReasonStaleData = "stale-data"
	ReasonAutoTimer = "auto-timer"
)

const (
	defaultStaleAfter  = 90 * time.Second
	defaultReloadEvery = 10 * time.Minute
	defaultMatchPoint  = 12
)

// Decision is the outcome of observing one scan.
type Decision struct {
	Reload bool
	Reason string
}

// Monitor tracks scan fingerprints across ticks. Not safe for
// concurrent use; the scheduler owns it on its single loop.
type Monitor struct {
	staleAfter  time.Duration
	reloadEvery time.Duration
	matchPoint  int

	lastFingerprint string
	staleSince      time.Time
	nextReloadAt    time.Time
}

func NewMonitor(staleAfter, reloadEvery time.Duration, matchPoint int, now time.Time) *Monitor {
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	if reloadEvery <= 0 {
		reloadEvery = defaultReloadEvery
	}
	if matchPoint <= 0 {
		matchPoint = defaultMatchPoint
	}
	return &Monitor{
		staleAfter:   staleAfter,
		reloadEvery:  reloadEvery,
		matchPoint:   matchPoint,
		nextReloadAt: now.Add(reloadEvery),
	}
}

// Observe updates freshness state from one scan's snapshots and
// reports whether the page must be reloaded. At most one reload is
// signalled per call; the periodic timer wins over staleness.
func (m *Monitor) Observe(snaps []models.MatchSnapshot, now time.Time) Decision {
	if !now.Before(m.nextReloadAt) {
		m.Reset(now)
		return Decision{Reload: true, Reason: ReasonAutoTimer}
	}

	fp := Fingerprint(snaps)

	if fp != "" && fp == m.lastFingerprint {
		if m.staleSince.IsZero() {
			m.staleSince = now
		} else if now.Sub(m.staleSince) > m.staleAfter {
			m.Reset(now)
			return Decision{Reload: true, Reason: ReasonStaleData}
		}
	} else {
		m.lastFingerprint = fp
		m.staleSince = time.Time{}
	}

	// A side at match point usually means the card is about to change
	// or vanish; start the stale clock early so a frozen card after a
	// concluded map gets reloaded promptly. Never a reload cause on
	// its own.
	if m.atMatchPoint(snaps) && m.staleSince.IsZero() {
		m.staleSince = now
	}

	return Decision{}
}

// Reset clears fingerprint state and re-arms the periodic reload
// timer. Called after every reload decision and on page (re)load.
func (m *Monitor) Reset(now time.Time) {
	m.lastFingerprint = ""
	m.staleSince = time.Time{}
	m.nextReloadAt = now.Add(m.reloadEvery)
}

func (m *Monitor) atMatchPoint(snaps []models.MatchSnapshot) bool {
	for _, s := range snaps {
		if s.RoundScore1 >= m.matchPoint || s.RoundScore2 >= m.matchPoint {
			slog.Info("match at match point",
				"team1", s.Team1, "team2", s.Team2,
				"rounds", fmt.Sprintf("%d-%d", s.RoundScore1, s.RoundScore2))
			return true
		}
	}
	return false
}

// Fingerprint derives a deterministic digest of one scan: per-match
// lines sorted lexicographically so scan order does not matter.
func Fingerprint(snaps []models.MatchSnapshot) string {
	if len(snaps) == 0 {
		return ""
	}
	lines := make([]string, 0, len(snaps))
	for _, s := range snaps {
		lines = append(lines, fmt.Sprintf("%s|%s|%d-%d|%d-%d",
			s.Team1, s.Team2, s.RoundScore1, s.RoundScore2, s.MapScore1, s.MapScore2))
	}
	sort.Strings(lines)
	return strings.Join(lines, ";")
}
