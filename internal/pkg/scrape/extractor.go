package scrape

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	matchHrefPattern = regexp.MustCompile(`/matches/(\d+)/([^/?#]+)`)
	scorePairPattern = regexp.MustCompile(`(\d{1,2})\s*\((\d{1,2})\)`)
	numeralPattern   = regexp.MustCompile(`^\d{1,2}$`)
)

// maxStandaloneScore bounds the numeral fallback so odds, dates and
// other unrelated numbers on the card are not mistaken for scores.
const maxStandaloneScore = 50

// Extraction is the raw result of parsing one card, before name
// normalization. Scores default to 0 when absent.
type Extraction struct {
	MatchID string
	Team1   string
	Team2   string
	Round1  int
	Round2  int
	Map1    int
	Map2    int
}

// Extract parses a card's href and text. Returns false when the href
// does not have the /matches/{id}/{team1}-vs-{team2} shape or the slug
// does not yield two usable team names.
func Extract(card Card) (*Extraction, bool) {
	m := matchHrefPattern.FindStringSubmatch(card.Href)
	if m == nil {
		return nil, false
	}
	parts := strings.Split(m[2], "-vs-")
	if len(parts) != 2 {
		return nil, false
	}
	team1 := teamFromSlug(parts[0])
	team2 := teamFromSlug(parts[1])
	if len(team1) < 2 || len(team2) < 2 {
		return nil, false
	}

	ex := &Extraction{MatchID: m[1], Team1: team1, Team2: team2}

	// Layered score strategy: "R (M)" pairs first, bare numerals as a
	// last resort. The fallback recovers round scores only; map scores
	// stay 0 there.
	pairs := scorePairPattern.FindAllStringSubmatch(card.Text, -1)
	switch {
	case len(pairs) >= 2:
		ex.Round1, ex.Map1 = atoiPair(pairs[0])
		ex.Round2, ex.Map2 = atoiPair(pairs[1])
	case len(pairs) == 1:
		ex.Round1, ex.Map1 = atoiPair(pairs[0])
	default:
		nums := standaloneNumerals(card)
		if len(nums) > 0 {
			ex.Round1 = nums[0]
		}
		if len(nums) > 1 {
			ex.Round2 = nums[1]
		}
	}
	return ex, true
}

func atoiPair(m []string) (int, int) {
	round, _ := strconv.Atoi(m[1])
	mapScore, _ := strconv.Atoi(m[2])
	return round, mapScore
}

func teamFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	kept := words[:0]
	for _, w := range words {
		if w == "" {
			continue
		}
		kept = append(kept, titleFragment(w))
	}
	return strings.Join(kept, " ")
}

func titleFragment(w string) string {
	lower := strings.ToLower(w)
	r, size := utf8.DecodeRuneInString(lower)
	if size == 0 {
		return lower
	}
	return string(unicode.ToUpper(r)) + lower[size:]
}

// standaloneNumerals collects 1-2 digit numbers that appear as whole
// isolated text runs inside the card, in document order.
func standaloneNumerals(card Card) []int {
	var nums []int
	appendNumeral := func(run string) {
		run = strings.TrimSpace(run)
		if !numeralPattern.MatchString(run) {
			return
		}
		n, err := strconv.Atoi(run)
		if err != nil || n > maxStandaloneScore {
			return
		}
		nums = append(nums, n)
	}

	if card.sel == nil {
		// Cards built without a document (tests, fixtures): treat each
		// whitespace-separated token as a text run.
		for _, tok := range strings.Fields(card.Text) {
			appendNumeral(tok)
		}
		return nums
	}

	for _, node := range card.sel.Nodes {
		walkTextNodes(node, appendNumeral)
	}
	return nums
}

func walkTextNodes(n *html.Node, fn func(string)) {
	if n.Type == html.TextNode {
		fn(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkTextNodes(c, fn)
	}
}
