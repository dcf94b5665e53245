package core

// ColumnType is the portable SQL type of a sink column.
type ColumnType string

// Column types used by the fixed sink schema.
const (
	ColumnText    ColumnType = "TEXT"
	ColumnInteger ColumnType = "INTEGER"
)

// Table names of the two flattened datasets.
const (
	MatchesTableName    = "matches"
	DeliveriesTableName = "deliveries"
)

// MatchRecord is one match summary row. Nil pointers are NULL.
type MatchRecord struct {
	MatchID      string
	Date         *string
	Venue        *string
	MatchType    *string
	Gender       *string
	Season       *string
	Event        *string
	Team1        *string
	Team2        *string
	TossWinner   *string
	TossDecision *string
	Winner       *string
	ByRuns       *int64
	ByWickets    *int64
}

// DeliveryRecord is one ball bowled. Run components are never NULL.
type DeliveryRecord struct {
	MatchID         string
	BattingTeam     *string
	Over            *int64
	Batter          *string
	Bowler          *string
	NonStriker      *string
	RunsBatter      int64
	RunsExtras      int64
	RunsTotal       int64
	WicketKind      *string
	WicketPlayerOut *string
}

// MatchColumns is the fixed schema of the matches table, in column order.
var MatchColumns = []Column{
	{Name: "match_id", Type: ColumnText, PrimaryKey: true, Position: 1},
	{Name: "date", Type: ColumnText, Nullable: true, Position: 2},
	{Name: "venue", Type: ColumnText, Nullable: true, Position: 3},
	{Name: "match_type", Type: ColumnText, Nullable: true, Position: 4},
	{Name: "gender", Type: ColumnText, Nullable: true, Position: 5},
	{Name: "season", Type: ColumnText, Nullable: true, Position: 6},
	{Name: "event", Type: ColumnText, Nullable: true, Position: 7},
	{Name: "team1", Type: ColumnText, Nullable: true, Position: 8},
	{Name: "team2", Type: ColumnText, Nullable: true, Position: 9},
	{Name: "toss_winner", Type: ColumnText, Nullable: true, Position: 10},
	{Name: "toss_decision", Type: ColumnText, Nullable: true, Position: 11},
	{Name: "winner", Type: ColumnText, Nullable: true, Position: 12},
	{Name: "by_runs", Type: ColumnInteger, Nullable: true, Position: 13},
	{Name: "by_wickets", Type: ColumnInteger, Nullable: true, Position: 14},
}

// DeliveryColumns is the fixed schema of the deliveries table, in column order.
var DeliveryColumns = []Column{
	{Name: "match_id", Type: ColumnText, Position: 1},
	{Name: "batting_team", Type: ColumnText, Nullable: true, Position: 2},
	{Name: "over", Type: ColumnInteger, Nullable: true, Position: 3},
	{Name: "batter", Type: ColumnText, Nullable: true, Position: 4},
	{Name: "bowler", Type: ColumnText, Nullable: true, Position: 5},
	{Name: "non_striker", Type: ColumnText, Nullable: true, Position: 6},
	{Name: "runs_batter", Type: ColumnInteger, Position: 7},
	{Name: "runs_extras", Type: ColumnInteger, Position: 8},
	{Name: "runs_total", Type: ColumnInteger, Position: 9},
	{Name: "wicket_kind", Type: ColumnText, Nullable: true, Position: 10},
	{Name: "wicket_player_out", Type: ColumnText, Nullable: true, Position: 11},
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// Values returns the row in MatchColumns order. NULL columns are nil.
func (m MatchRecord) Values() []any {
	return []any{
		m.MatchID,
		nullable(m.Date),
		nullable(m.Venue),
		nullable(m.MatchType),
		nullable(m.Gender),
		nullable(m.Season),
		nullable(m.Event),
		nullable(m.Team1),
		nullable(m.Team2),
		nullable(m.TossWinner),
		nullable(m.TossDecision),
		nullable(m.Winner),
		nullable(m.ByRuns),
		nullable(m.ByWickets),
	}
}

// Values returns the row in DeliveryColumns order. NULL columns are nil.
func (d DeliveryRecord) Values() []any {
	return []any{
		d.MatchID,
		nullable(d.BattingTeam),
		nullable(d.Over),
		nullable(d.Batter),
		nullable(d.Bowler),
		nullable(d.NonStriker),
		d.RunsBatter,
		d.RunsExtras,
		d.RunsTotal,
		nullable(d.WicketKind),
		nullable(d.WicketPlayerOut),
	}
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// TableData is a named, fully materialized table handed to a sink adapter.
type TableData struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// MatchesTable builds the matches table payload from accumulated records.
func MatchesTable(records []MatchRecord) TableData {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return TableData{Name: MatchesTableName, Columns: MatchColumns, Rows: rows}
}

// DeliveriesTable builds the deliveries table payload from accumulated records.
func DeliveriesTable(records []DeliveryRecord) TableData {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return TableData{Name: DeliveriesTableName, Columns: DeliveryColumns, Rows: rows}
}
