package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Ball is one delivery in a fixture over.
type Ball struct {
	Batter     string
	Bowler     string
	NonStriker string
	Runs       int // off the bat
	Extras     int
	WicketKind string
	PlayerOut  string
}

// Innings is one fixture innings: the batting team and its overs in order.
type Innings struct {
	Team  string
	Overs [][]Ball
}

// Match describes a fixture document in the cricsheet JSON layout.
type Match struct {
	Date      string
	Venue     string
	MatchType string
	Season    any
	Teams     []string
	Winner    string
	ByRuns    int
	ByWickets int
	Innings   []Innings
}

// JSON renders m as a cricsheet-style document.
func (m Match) JSON() []byte {
	info := map[string]any{
		"dates":      []string{m.Date},
		"venue":      m.Venue,
		"match_type": m.MatchType,
		"gender":     "male",
		"teams":      m.Teams,
	}
	if m.Season != nil {
		info["season"] = m.Season
	}
	if len(m.Teams) > 0 {
		info["toss"] = map[string]any{"winner": m.Teams[0], "decision": "bat"}
	}
	if m.Winner != "" {
		by := map[string]any{}
		if m.ByRuns > 0 {
			by["runs"] = m.ByRuns
		}
		if m.ByWickets > 0 {
			by["wickets"] = m.ByWickets
		}
		info["outcome"] = map[string]any{"winner": m.Winner, "by": by}
	}

	innings := make([]any, 0, len(m.Innings))
	for _, inn := range m.Innings {
		overs := make([]any, 0, len(inn.Overs))
		for i, balls := range inn.Overs {
			deliveries := make([]any, 0, len(balls))
			for _, b := range balls {
				d := map[string]any{
					"batter":      b.Batter,
					"bowler":      b.Bowler,
					"non_striker": b.NonStriker,
					"runs": map[string]any{
						"batter": b.Runs,
						"extras": b.Extras,
						"total":  b.Runs + b.Extras,
					},
				}
				if b.WicketKind != "" {
					d["wickets"] = []any{map[string]any{"kind": b.WicketKind, "player_out": b.PlayerOut}}
				}
				deliveries = append(deliveries, d)
			}
			overs = append(overs, map[string]any{"over": i, "deliveries": deliveries})
		}
		innings = append(innings, map[string]any{"team": inn.Team, "overs": overs})
	}

	data, err := json.MarshalIndent(map[string]any{
		"meta":    map[string]any{"data_version": "1.1.0"},
		"info":    info,
		"innings": innings,
	}, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("marshal fixture: %v", err))
	}
	return data
}

// SampleMatch returns a small T20 fixture with two innings of one over each
// and the given number of balls per over.
func SampleMatch(balls int) Match {
	over := func(batter, bowler string) []Ball {
		out := make([]Ball, balls)
		for i := range out {
			out[i] = Ball{Batter: batter, Bowler: bowler, NonStriker: "NS", Runs: i % 3}
		}
		return out
	}
	return Match{
		Date:      "2019-03-23",
		Venue:     "M Chinnaswamy Stadium",
		MatchType: "T20",
		Season:    2019,
		Teams:     []string{"Royal Challengers Bangalore", "Chennai Super Kings"},
		Winner:    "Chennai Super Kings",
		ByWickets: 7,
		Innings: []Innings{
			{Team: "Royal Challengers Bangalore", Overs: [][]Ball{over("V Kohli", "DL Chahar")}},
			{Team: "Chennai Super Kings", Overs: [][]Ball{over("AT Rayudu", "YS Chahal")}},
		},
	}
}

// WriteDocument writes data to dir/name and returns the path.
func WriteDocument(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
