package models

import (
	"fmt"
	"time"
)

// Wire message types accepted by the feed hub.
const (
	TypeHeartbeat = "heartbeat"
	TypeLiveMatch = "live_match"
)

// Message is the envelope for everything sent over the feed connection.
type Message struct {
	V       int    `json:"v"`
	Type    string `json:"type"`
	Source  string `json:"source"`
	TS      string `json:"ts"`
	Payload any    `json:"payload"`
}

// HeartbeatPayload reports liveness plus the last scan's yield.
type HeartbeatPayload struct {
	Page         string `json:"page"`
	MatchesFound int    `json:"matches_found"`
}

// LiveMatchPayload carries one match state. Score1/Score2 are the
// map/series scores; round detail only appears inside DetailedScore.
type LiveMatchPayload struct {
	Sport         string `json:"sport"`
	Team1         string `json:"team1"`
	Team2         string `json:"team2"`
	Score1        int    `json:"score1"`
	Score2        int    `json:"score2"`
	DetailedScore string `json:"detailed_score"`
	Status        string `json:"status"`
	URL           string `json:"url"`
}

// NewHeartbeat builds a heartbeat envelope stamped with the current time.
func NewHeartbeat(source, page string, matchesFound int) Message {
	return Message{
		V:      1,
		Type:   TypeHeartbeat,
		Source: source,
		TS:     time.Now().UTC().Format(time.RFC3339),
		Payload: HeartbeatPayload{
			Page:         page,
			MatchesFound: matchesFound,
		},
	}
}

// NewLiveMatch converts a scan snapshot into its wire form.
func NewLiveMatch(source string, snap MatchSnapshot) Message {
	return Message{
		V:      1,
		Type:   TypeLiveMatch,
		Source: source,
		TS:     time.Now().UTC().Format(time.RFC3339),
		Payload: LiveMatchPayload{
			Sport:  "cs2",
			Team1:  snap.Team1,
			Team2:  snap.Team2,
			Score1: snap.MapScore1,
			Score2: snap.MapScore2,
			DetailedScore: fmt.Sprintf("R:%d-%d M:%d-%d",
				snap.RoundScore1, snap.RoundScore2, snap.MapScore1, snap.MapScore2),
			Status: string(snap.Status),
			URL:    snap.SourceURL,
		},
	}
}
