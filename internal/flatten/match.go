// Package flatten turns decoded match documents into fixed-width rows.
//
// Extraction is a series of independent, null-safe lookups against the
// columns defined in pkg/core. A missing key at any depth resolves to NULL
// (or zero for run components) and never fails the document.
package flatten

import (
	"errors"

	"github.com/leapstack-labs/crickflat/internal/parser"
	"github.com/leapstack-labs/crickflat/pkg/core"
)

// ErrNoDocument is returned when a flattener is handed no document at all.
var ErrNoDocument = errors.New("no document to flatten")

// Match extracts the match summary row for the document identified by id.
func Match(id string, doc parser.Document) (core.MatchRecord, error) {
	if doc == nil {
		return core.MatchRecord{}, ErrNoDocument
	}

	info := object(doc, "info")
	teams := list(info, "teams")
	toss := object(info, "toss")
	outcome := object(info, "outcome")
	by := object(outcome, "by")

	return core.MatchRecord{
		MatchID:      id,
		Date:         textAt(list(info, "dates"), 0),
		Venue:        text(info, "venue"),
		MatchType:    text(info, "match_type"),
		Gender:       text(info, "gender"),
		Season:       text(info, "season"),
		Event:        text(object(info, "event"), "name"),
		Team1:        textAt(teams, 0),
		Team2:        textAt(teams, 1),
		TossWinner:   text(toss, "winner"),
		TossDecision: text(toss, "decision"),
		Winner:       text(outcome, "winner"),
		ByRuns:       integer(by, "runs"),
		ByWickets:    integer(by, "wickets"),
	}, nil
}
