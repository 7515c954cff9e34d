package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const matchLinkSelector = `a[href*="/matches/"]`

var liveHeadingPattern = regexp.MustCompile(`(?i)\blive\b`)

// Card is one candidate live-match element: its link target and
// visible text, plus the underlying selection for text-node probing.
type Card struct {
	Href string
	Text string

	sel *goquery.Selection
}

// Locate finds the cards that represent currently-live matches.
//
// Two strategies, union by first href occurrence:
//  1. structural: a heading matching the word "Live" marks the live
//     section; match links are collected from its nearest ancestor
//     that contains any, probing at most one extra level up;
//  2. content fallback: any match link whose text carries an
//     "N (M)" score pattern, wherever it sits (e.g. a ticker bar).
//
// Returns an empty slice when nothing matches; never errors.
func Locate(doc *goquery.Document) []Card {
	var cards []Card
	seen := make(map[string]bool)

	collect := func(link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok || href == "" || seen[href] {
			return
		}
		seen[href] = true
		cards = append(cards, Card{
			Href: href,
			Text: link.Text(),
			sel:  link,
		})
	}

	doc.Find("h1,h2,h3,h4,h5,h6").Each(func(_ int, heading *goquery.Selection) {
		if !liveHeadingPattern.MatchString(strings.TrimSpace(heading.Text())) {
			return
		}
		container := heading.Parent()
		if container.Length() > 0 && container.Find(matchLinkSelector).Length() == 0 {
			// Bounded probe: one more ancestor level, then give up on
			// this heading so unrelated sections are not scooped up.
			container = container.Parent()
		}
		if container.Length() == 0 {
			return
		}
		container.Find(matchLinkSelector).Each(func(_ int, link *goquery.Selection) {
			collect(link)
		})
	})

	doc.Find(matchLinkSelector).Each(func(_ int, link *goquery.Selection) {
		if scorePairPattern.MatchString(link.Text()) {
			collect(link)
		}
	})

	return cards
}
