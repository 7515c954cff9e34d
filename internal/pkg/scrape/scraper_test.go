package scrape

import (
	"testing"

	"github.com/livescout/matchrelay/internal/pkg/models"
)

const listingFixture = `
<html><body>
  <section>
    <h2>Live</h2>
    <div>
      <a href="/matches/42/red-canids-vs-sharks">RED Canids 6 (1) Sharks 10 (1)</a>
      <a href="/matches/42/red-canids-vs-sharks?tab=stats">RED Canids 6 (1) Sharks 10 (1)</a>
      <a href="/matches/43/team-spirit-vs-navi">Team Spirit 12 (0) NAVI 9 (0)</a>
      <a href="/matches/broken/bad-link">odds 1.87</a>
    </div>
  </section>
</body></html>`

func TestScrape(t *testing.T) {
	snaps := Scrape(mustDoc(t, listingFixture), "https://site.gg")

	if len(snaps) != 2 {
		t.Fatalf("Scrape returned %d snapshots, want 2", len(snaps))
	}

	first := snaps[0]
	want := models.MatchSnapshot{
		MatchID:     "42",
		Team1:       "Red Canids",
		Team2:       "Sharks",
		RoundScore1: 6,
		RoundScore2: 10,
		MapScore1:   1,
		MapScore2:   1,
		Status:      models.StatusLive,
		SourceURL:   "https://site.gg/matches/42/red-canids-vs-sharks",
	}
	if first != want {
		t.Errorf("first snapshot = %+v, want %+v", first, want)
	}

	// "Team Spirit" loses its qualifier during normalization.
	if snaps[1].Team1 != "Spirit" || snaps[1].Team2 != "Navi" {
		t.Errorf("second snapshot teams = %q/%q, want Spirit/Navi", snaps[1].Team1, snaps[1].Team2)
	}
}

func TestScrapeDeduplicatesByMatchID(t *testing.T) {
	snaps := Scrape(mustDoc(t, listingFixture), "https://site.gg")

	seen := make(map[string]bool)
	for _, s := range snaps {
		if seen[s.MatchID] {
			t.Fatalf("duplicate match id %q in scan result", s.MatchID)
		}
		seen[s.MatchID] = true
	}
}

func TestScrapeEmptyOnMismatch(t *testing.T) {
	snaps := Scrape(mustDoc(t, "<html><body><h1>redesigned</h1></body></html>"), "https://site.gg")
	if len(snaps) != 0 {
		t.Fatalf("Scrape returned %d snapshots from unrecognized page, want 0", len(snaps))
	}
}
