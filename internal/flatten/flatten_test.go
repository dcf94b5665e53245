package flatten

import (
	"slices"
	"testing"

	"github.com/leapstack-labs/crickflat/internal/parser"
	"github.com/leapstack-labs/crickflat/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) parser.Document {
	t.Helper()
	doc, err := parser.Parse("test", []byte(src))
	require.NoError(t, err)
	return doc
}

func str(s string) *string { return &s }
func num(n int64) *int64   { return &n }

const fullMatch = `{
  "meta": {"data_version": "1.1.0"},
  "info": {
    "dates": ["2017-04-05", "2017-04-06"],
    "venue": "Rajiv Gandhi International Stadium",
    "match_type": "T20",
    "gender": "male",
    "season": "2017",
    "event": {"name": "Indian Premier League", "match_number": 1},
    "teams": ["Sunrisers Hyderabad", "Royal Challengers Bangalore"],
    "toss": {"winner": "Royal Challengers Bangalore", "decision": "field"},
    "outcome": {"winner": "Sunrisers Hyderabad", "by": {"runs": 35}}
  },
  "innings": []
}`

func TestMatch_AllFields(t *testing.T) {
	rec, err := Match("1082591", mustParse(t, fullMatch))
	require.NoError(t, err)

	want := core.MatchRecord{
		MatchID:      "1082591",
		Date:         str("2017-04-05"),
		Venue:        str("Rajiv Gandhi International Stadium"),
		MatchType:    str("T20"),
		Gender:       str("male"),
		Season:       str("2017"),
		Event:        str("Indian Premier League"),
		Team1:        str("Sunrisers Hyderabad"),
		Team2:        str("Royal Challengers Bangalore"),
		TossWinner:   str("Royal Challengers Bangalore"),
		TossDecision: str("field"),
		Winner:       str("Sunrisers Hyderabad"),
		ByRuns:       num(35),
	}
	assert.Equal(t, want, rec)
}

func TestMatch_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		verify func(t *testing.T, rec core.MatchRecord)
	}{
		{
			name: "no info object",
			src:  `{"innings": []}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Equal(t, core.MatchRecord{MatchID: "m"}, rec)
			},
		},
		{
			name: "no outcome",
			src:  `{"info": {"teams": ["A", "B"]}}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Nil(t, rec.Winner)
				assert.Nil(t, rec.ByRuns)
				assert.Nil(t, rec.ByWickets)
			},
		},
		{
			name: "no result outcome",
			src:  `{"info": {"outcome": {"result": "no result"}}}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Nil(t, rec.Winner)
				assert.Nil(t, rec.ByRuns)
				assert.Nil(t, rec.ByWickets)
			},
		},
		{
			name: "won by wickets",
			src:  `{"info": {"outcome": {"winner": "B", "by": {"wickets": 7}}}}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Equal(t, str("B"), rec.Winner)
				assert.Nil(t, rec.ByRuns)
				assert.Equal(t, num(7), rec.ByWickets)
			},
		},
		{
			name: "single team",
			src:  `{"info": {"teams": ["A"]}}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Equal(t, str("A"), rec.Team1)
				assert.Nil(t, rec.Team2)
			},
		},
		{
			name: "empty teams and dates",
			src:  `{"info": {"teams": [], "dates": []}}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Nil(t, rec.Team1)
				assert.Nil(t, rec.Team2)
				assert.Nil(t, rec.Date)
			},
		},
		{
			name: "three teams keeps first two in order",
			src:  `{"info": {"teams": ["A", "B", "C"]}}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Equal(t, str("A"), rec.Team1)
				assert.Equal(t, str("B"), rec.Team2)
			},
		},
		{
			name: "numeric season",
			src:  `{"info": {"season": 2009}}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Equal(t, str("2009"), rec.Season)
			},
		},
		{
			name: "event without name",
			src:  `{"info": {"event": {"match_number": 4}}}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Nil(t, rec.Event)
			},
		},
		{
			name: "wrong-typed intermediate objects",
			src:  `{"info": {"event": "IPL", "toss": ["x"], "outcome": "tie", "teams": "A v B"}}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Equal(t, core.MatchRecord{MatchID: "m"}, rec)
			},
		},
		{
			name: "non-integral margin",
			src:  `{"info": {"outcome": {"by": {"runs": 3.5, "wickets": "two"}}}}`,
			verify: func(t *testing.T, rec core.MatchRecord) {
				assert.Nil(t, rec.ByRuns)
				assert.Nil(t, rec.ByWickets)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Match("m", mustParse(t, tt.src))
			require.NoError(t, err)
			tt.verify(t, rec)
		})
	}
}

func TestMatch_NilDocument(t *testing.T) {
	_, err := Match("m", nil)
	assert.ErrorIs(t, err, ErrNoDocument)
}

func collect(id string, doc parser.Document) []core.DeliveryRecord {
	return slices.Collect(Deliveries(id, doc))
}

func TestDeliveries_OneOverThreeBalls(t *testing.T) {
	doc := mustParse(t, `{
	  "innings": [{
	    "team": "India",
	    "overs": [{
	      "over": 0,
	      "deliveries": [
	        {"batter": "RG Sharma", "bowler": "MA Starc", "non_striker": "S Dhawan", "runs": {"batter": 0, "extras": 0, "total": 0}},
	        {"batter": "S Dhawan", "bowler": "MA Starc", "non_striker": "RG Sharma", "runs": {"batter": 4, "extras": 0, "total": 4}},
	        {"batter": "S Dhawan", "bowler": "JR Hazlewood", "non_striker": "RG Sharma", "runs": {"batter": 1, "extras": 1, "total": 2}}
	      ]
	    }]
	  }]
	}`)

	rows := collect("64", doc)
	require.Len(t, rows, 3)

	pairs := make([][2]string, len(rows))
	for i, r := range rows {
		assert.Equal(t, "64", r.MatchID)
		assert.Equal(t, str("India"), r.BattingTeam)
		assert.Equal(t, num(0), r.Over)
		assert.Nil(t, r.WicketKind)
		assert.Nil(t, r.WicketPlayerOut)
		pairs[i] = [2]string{*r.Batter, *r.Bowler}
	}

	assert.Equal(t, [][2]string{
		{"RG Sharma", "MA Starc"},
		{"S Dhawan", "MA Starc"},
		{"S Dhawan", "JR Hazlewood"},
	}, pairs)
	assert.Equal(t, int64(4), rows[1].RunsTotal)
	assert.Equal(t, int64(2), rows[2].RunsTotal)
}

func TestDeliveries_DocumentOrder(t *testing.T) {
	doc := mustParse(t, `{
	  "innings": [
	    {"team": "A", "overs": [
	      {"over": 0, "deliveries": [{"batter": "a1"}, {"batter": "a2"}]},
	      {"over": 1, "deliveries": [{"batter": "a3"}]}
	    ]},
	    {"team": "B", "overs": [
	      {"over": 0, "deliveries": [{"batter": "b1"}]},
	      {"over": 1, "deliveries": [{"batter": "b2"}, {"batter": "b3"}]}
	    ]}
	  ]
	}`)

	rows := collect("m", doc)
	require.Len(t, rows, 6)

	type key struct {
		team   string
		over   int64
		batter string
	}
	got := make([]key, len(rows))
	for i, r := range rows {
		got[i] = key{*r.BattingTeam, *r.Over, *r.Batter}
	}
	assert.Equal(t, []key{
		{"A", 0, "a1"}, {"A", 0, "a2"}, {"A", 1, "a3"},
		{"B", 0, "b1"}, {"B", 1, "b2"}, {"B", 1, "b3"},
	}, got)
}

func TestDeliveries_RunsPolicy(t *testing.T) {
	tests := []struct {
		name     string
		delivery string
		batter   int64
		extras   int64
		total    int64
	}{
		{name: "no runs object", delivery: `{"batter": "x"}`},
		{name: "empty runs object", delivery: `{"runs": {}}`},
		{name: "total only", delivery: `{"runs": {"total": 1}}`, total: 1},
		{
			name:     "explicit total is authoritative",
			delivery: `{"runs": {"batter": 1, "extras": 1, "total": 5}}`,
			batter:   1, extras: 1, total: 5,
		},
		{
			name:     "wide with extras",
			delivery: `{"runs": {"batter": 0, "extras": 5, "total": 5}, "extras": {"wides": 5}}`,
			extras:   5, total: 5,
		},
		{name: "non-numeric components", delivery: `{"runs": {"batter": "four", "total": null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, `{"innings": [{"team": "A", "overs": [{"over": 3, "deliveries": [`+tt.delivery+`]}]}]}`)
			rows := collect("m", doc)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.batter, rows[0].RunsBatter)
			assert.Equal(t, tt.extras, rows[0].RunsExtras)
			assert.Equal(t, tt.total, rows[0].RunsTotal)
		})
	}
}

func TestDeliveries_Wickets(t *testing.T) {
	tests := []struct {
		name     string
		wickets  string
		kind     *string
		out      *string
		noField  bool
	}{
		{name: "no wickets key", noField: true},
		{name: "empty list", wickets: `[]`},
		{
			name:    "single wicket",
			wickets: `[{"player_out": "V Kohli", "kind": "caught", "fielders": [{"name": "SPD Smith"}]}]`,
			kind:    str("caught"),
			out:     str("V Kohli"),
		},
		{
			name:    "two wickets keeps the last",
			wickets: `[{"player_out": "A", "kind": "run out"}, {"player_out": "B", "kind": "retired hurt"}]`,
			kind:    str("retired hurt"),
			out:     str("B"),
		},
		{
			name:    "last wicket missing kind",
			wickets: `[{"player_out": "A", "kind": "bowled"}, {"player_out": "B"}]`,
			out:     str("B"),
		},
		{name: "wickets not a list", wickets: `{"kind": "bowled"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := `{"batter": "x", "runs": {"total": 0}}`
			if !tt.noField {
				d = `{"batter": "x", "runs": {"total": 0}, "wickets": ` + tt.wickets + `}`
			}
			doc := mustParse(t, `{"innings": [{"team": "A", "overs": [{"over": 0, "deliveries": [`+d+`]}]}]}`)

			rows := collect("m", doc)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.kind, rows[0].WicketKind)
			assert.Equal(t, tt.out, rows[0].WicketPlayerOut)
		})
	}
}

func TestDeliveries_MissingStructure(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{name: "no innings", src: `{"info": {}}`, want: 0},
		{name: "innings not a list", src: `{"innings": {"team": "A"}}`, want: 0},
		{name: "innings without overs", src: `{"innings": [{"team": "A"}]}`, want: 0},
		{name: "over without deliveries", src: `{"innings": [{"team": "A", "overs": [{"over": 0}]}]}`, want: 0},
		{
			name: "non-object entries are skipped",
			src:  `{"innings": [1, {"team": "A", "overs": ["x", {"over": 0, "deliveries": [null, {"batter": "a"}]}]}]}`,
			want: 1,
		},
		{
			name: "legacy format keyed overs",
			src:  `{"innings": [{"1st innings": {"team": "A", "deliveries": [{"0.1": {"batsman": "a"}}]}}]}`,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.src)
			rows := collect("m", doc)
			assert.Len(t, rows, tt.want)
			assert.Equal(t, tt.want, CountDeliveries(doc))
		})
	}
}

func TestDeliveries_MissingTeamAndOver(t *testing.T) {
	doc := mustParse(t, `{"innings": [{"overs": [{"deliveries": [{"batter": "a"}]}]}]}`)
	rows := collect("m", doc)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].BattingTeam)
	assert.Nil(t, rows[0].Over)
	assert.Equal(t, str("a"), rows[0].Batter)
	assert.Nil(t, rows[0].Bowler)
}

func TestDeliveries_EarlyStop(t *testing.T) {
	doc := mustParse(t, `{"innings": [{"team": "A", "overs": [{"over": 0, "deliveries": [{}, {}, {}]}]}]}`)

	n := 0
	for range Deliveries("m", doc) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestDeliveries_CountMatchesSumOfLists(t *testing.T) {
	doc := mustParse(t, `{
	  "innings": [
	    {"team": "A", "overs": [
	      {"over": 0, "deliveries": [{}, {}, {}, {}, {}, {}]},
	      {"over": 1, "deliveries": [{}, {}, {}, {}, {}, {}, {}]}
	    ]},
	    {"team": "B", "overs": [
	      {"over": 0, "deliveries": [{}, {}, {}, {}, {}, {}]}
	    ]}
	  ]
	}`)

	assert.Len(t, collect("m", doc), 19)
	assert.Equal(t, 19, CountDeliveries(doc))
}

func TestDeliveries_NilDocument(t *testing.T) {
	assert.Empty(t, collect("m", nil))
}
