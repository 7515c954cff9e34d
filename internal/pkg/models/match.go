package models

// MatchStatus describes the lifecycle phase of a scraped match.
// Only live matches are relayed, so LIVE is the only value the
// scraper produces today.
type MatchStatus string

const StatusLive MatchStatus = "LIVE"

// MatchSnapshot — one live match as observed in a single scan tick.
// Snapshots are rebuilt from scratch every tick; MatchID is only used
// to deduplicate cards within one scan, no cross-scan identity exists.
type MatchSnapshot struct {
	MatchID     string      `json:"match_id"`
	Team1       string      `json:"team1"`
	Team2       string      `json:"team2"`
	RoundScore1 int         `json:"round_score1"`
	RoundScore2 int         `json:"round_score2"`
	MapScore1   int         `json:"map_score1"`
	MapScore2   int         `json:"map_score2"`
	Status      MatchStatus `json:"status"`
	SourceURL   string      `json:"source_url"`
}
