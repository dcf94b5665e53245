package flatten

import (
	"iter"

	"github.com/leapstack-labs/crickflat/internal/parser"
	"github.com/leapstack-labs/crickflat/pkg/core"
)

// Deliveries yields one row per ball in document order: innings, then
// overs, then deliveries within the over. The sequence is meant to be
// consumed once; entries that are not objects are skipped.
//
// When a delivery lists several wickets only the last one is kept.
func Deliveries(id string, doc parser.Document) iter.Seq[core.DeliveryRecord] {
	return func(yield func(core.DeliveryRecord) bool) {
		for _, inn := range list(doc, "innings") {
			innings, ok := inn.(map[string]any)
			if !ok {
				continue
			}
			team := text(innings, "team")

			for _, o := range list(innings, "overs") {
				over, ok := o.(map[string]any)
				if !ok {
					continue
				}
				number := integer(over, "over")

				for _, d := range list(over, "deliveries") {
					delivery, ok := d.(map[string]any)
					if !ok {
						continue
					}
					if !yield(deliveryRecord(id, team, number, delivery)) {
						return
					}
				}
			}
		}
	}
}

func deliveryRecord(id string, team *string, over *int64, d map[string]any) core.DeliveryRecord {
	runs := object(d, "runs")

	rec := core.DeliveryRecord{
		MatchID:     id,
		BattingTeam: team,
		Over:        over,
		Batter:      text(d, "batter"),
		Bowler:      text(d, "bowler"),
		NonStriker:  text(d, "non_striker"),
		RunsBatter:  count(runs, "batter"),
		RunsExtras:  count(runs, "extras"),
		RunsTotal:   count(runs, "total"),
	}

	for _, w := range list(d, "wickets") {
		wicket, _ := w.(map[string]any)
		rec.WicketKind = text(wicket, "kind")
		rec.WicketPlayerOut = text(wicket, "player_out")
	}

	return rec
}

// CountDeliveries returns the number of rows Deliveries yields for doc: the
// sum of delivery-list lengths over all innings and overs, counting only
// object entries.
func CountDeliveries(doc parser.Document) int {
	n := 0
	for range Deliveries("", doc) {
		n++
	}
	return n
}
