package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/livescout/matchrelay/internal/pkg/models"
	"github.com/livescout/matchrelay/internal/pkg/normalize"
)

// Scrape turns the current document into live-match snapshots:
// locate cards, extract each, normalize names, deduplicate by match
// id (first occurrence wins). Pure; cards that fail extraction are
// skipped without aborting the scan.
func Scrape(doc *goquery.Document, baseURL string) []models.MatchSnapshot {
	cards := Locate(doc)

	var out []models.MatchSnapshot
	seen := make(map[string]bool, len(cards))
	for _, card := range cards {
		ex, ok := Extract(card)
		if !ok {
			continue
		}
		if seen[ex.MatchID] {
			continue
		}
		seen[ex.MatchID] = true

		out = append(out, models.MatchSnapshot{
			MatchID:     ex.MatchID,
			Team1:       normalize.TeamName(ex.Team1),
			Team2:       normalize.TeamName(ex.Team2),
			RoundScore1: ex.Round1,
			RoundScore2: ex.Round2,
			MapScore1:   ex.Map1,
			MapScore2:   ex.Map2,
			Status:      models.StatusLive,
			SourceURL:   absoluteURL(baseURL, card.Href),
		})
	}
	return out
}

func absoluteURL(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(baseURL, "/") + href
}
