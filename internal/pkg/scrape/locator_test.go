package scrape

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := ParseDocument(html)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestLocateStructural(t *testing.T) {
	html := `
	<html><body>
	  <section>
	    <h2>Live Matches</h2>
	    <div class="cards">
	      <a href="/matches/1/red-canids-vs-sharks">Red Canids 6 (1) Sharks 10 (1)</a>
	      <a href="/matches/2/astralis-vs-vitality">Astralis 3 (0) Vitality 9 (1)</a>
	    </div>
	  </section>
	  <section>
	    <h2>Upcoming</h2>
	    <a href="/matches/3/navi-vs-faze">NaVi vs FaZe 18:00</a>
	  </section>
	</body></html>`

	cards := Locate(mustDoc(t, html))
	if len(cards) != 2 {
		t.Fatalf("Locate found %d cards, want 2", len(cards))
	}
	if cards[0].Href != "/matches/1/red-canids-vs-sharks" {
		t.Errorf("first card href = %q", cards[0].Href)
	}
	if cards[1].Href != "/matches/2/astralis-vs-vitality" {
		t.Errorf("second card href = %q", cards[1].Href)
	}
}

func TestLocateHeadingProbeDepth(t *testing.T) {
	// Links two ancestor levels above the heading's parent must not be
	// scooped up: the probe walks exactly one extra level.
	html := `
	<html><body>
	  <div>
	    <a href="/matches/9/outer-team-vs-far-away">Outer 1 (0)</a>
	    <div>
	      <div>
	        <h3>Live</h3>
	      </div>
	    </div>
	  </div>
	</body></html>`

	cards := Locate(mustDoc(t, html))
	// The structural probe gives up, but the content fallback still
	// catches the card via its score pattern.
	if len(cards) != 1 {
		t.Fatalf("Locate found %d cards, want 1 (content fallback only)", len(cards))
	}
}

func TestLocateContentFallback(t *testing.T) {
	// No live heading at all: only links bearing a score pattern
	// qualify.
	html := `
	<html><body>
	  <div class="ticker">
	    <a href="/matches/5/big-vs-mouz">BIG 11 (1) MOUZ 7 (0)</a>
	    <a href="/matches/6/heroic-vs-ence">HEROIC vs ENCE tomorrow</a>
	  </div>
	</body></html>`

	cards := Locate(mustDoc(t, html))
	if len(cards) != 1 {
		t.Fatalf("Locate found %d cards, want 1", len(cards))
	}
	if cards[0].Href != "/matches/5/big-vs-mouz" {
		t.Errorf("card href = %q", cards[0].Href)
	}
}

func TestLocateUnionFirstWins(t *testing.T) {
	// A card inside the live section that also matches the score
	// pattern must appear once, in structural order.
	html := `
	<html><body>
	  <section>
	    <h2>LIVE</h2>
	    <a href="/matches/1/red-canids-vs-sharks">Red Canids 6 (1) Sharks 10 (1)</a>
	  </section>
	  <a href="/matches/8/ticker-team-vs-other-side">Ticker 2 (0) Other 5 (1)</a>
	</body></html>`

	cards := Locate(mustDoc(t, html))
	if len(cards) != 2 {
		t.Fatalf("Locate found %d cards, want 2", len(cards))
	}
	if cards[0].Href != "/matches/1/red-canids-vs-sharks" {
		t.Errorf("structural card must come first, got %q", cards[0].Href)
	}
	if cards[1].Href != "/matches/8/ticker-team-vs-other-side" {
		t.Errorf("fallback card href = %q", cards[1].Href)
	}
}

func TestLocateEmptyDocument(t *testing.T) {
	cards := Locate(mustDoc(t, "<html><body><p>maintenance</p></body></html>"))
	if len(cards) != 0 {
		t.Fatalf("Locate found %d cards in empty page, want 0", len(cards))
	}
}
