package query

import (
	"context"
	"fmt"
	"sort"
)

// Report is a canned analysis query over the sink tables. The SQL is
// portable across the supported sinks.
type Report struct {
	Name  string
	Title string
	SQL   string
}

var reports = []Report{
	{
		Name:  "matches-by-format",
		Title: "Matches by format",
		SQL: `SELECT match_type, COUNT(*) AS matches
FROM matches
GROUP BY match_type
ORDER BY matches DESC, match_type`,
	},
	{
		Name:  "top-winners",
		Title: "Teams with the most wins",
		SQL: `SELECT winner AS team, COUNT(*) AS wins
FROM matches
WHERE winner IS NOT NULL
GROUP BY winner
ORDER BY wins DESC, team
LIMIT 10`,
	},
	{
		Name:  "top-batters",
		Title: "Top run scorers",
		SQL: `SELECT batter, SUM(runs_batter) AS runs
FROM deliveries
WHERE batter IS NOT NULL
GROUP BY batter
ORDER BY runs DESC, batter
LIMIT 10`,
	},
	{
		Name:  "dismissal-kinds",
		Title: "Dismissals by kind",
		SQL: `SELECT wicket_kind, COUNT(*) AS dismissals
FROM deliveries
WHERE wicket_kind IS NOT NULL
GROUP BY wicket_kind
ORDER BY dismissals DESC, wicket_kind`,
	},
	{
		Name:  "top-bowlers",
		Title: "Top wicket takers",
		SQL: `SELECT bowler, COUNT(*) AS wickets
FROM deliveries
WHERE wicket_kind IS NOT NULL
GROUP BY bowler
ORDER BY wickets DESC, bowler
LIMIT 10`,
	},
	{
		Name:  "runs-per-ball",
		Title: "Distribution of runs per ball",
		SQL: `SELECT runs_total, COUNT(*) AS balls
FROM deliveries
GROUP BY runs_total
ORDER BY runs_total`,
	},
	{
		Name:  "toss-decisions",
		Title: "Toss decisions by format",
		SQL: `SELECT match_type, toss_decision, COUNT(*) AS matches
FROM matches
WHERE toss_decision IS NOT NULL
GROUP BY match_type, toss_decision
ORDER BY match_type, toss_decision`,
	},
	{
		Name:  "matches-by-season",
		Title: "Matches per season",
		SQL: `SELECT season, COUNT(*) AS matches
FROM matches
GROUP BY season
ORDER BY season`,
	},
	{
		Name:  "top-six-hitters",
		Title: "Most sixes",
		SQL: `SELECT batter, COUNT(*) AS sixes
FROM deliveries
WHERE runs_batter = 6
GROUP BY batter
ORDER BY sixes DESC, batter
LIMIT 10`,
	},
	{
		Name:  "avg-t20-score",
		Title: "Top teams by average T20 match score",
		SQL: `SELECT batting_team, ROUND(AVG(total), 2) AS avg_score
FROM (
    SELECT d.match_id, d.batting_team, SUM(d.runs_total) AS total
    FROM deliveries d
    JOIN matches m ON m.match_id = d.match_id
    WHERE m.match_type = 'T20'
    GROUP BY d.match_id, d.batting_team
) AS innings_totals
GROUP BY batting_team
ORDER BY avg_score DESC, batting_team
LIMIT 10`,
	},
}

// Reports returns all canned reports in display order.
func Reports() []Report {
	out := make([]Report, len(reports))
	copy(out, reports)
	return out
}

// ReportNames returns the report names sorted.
func ReportNames() []string {
	names := make([]string, len(reports))
	for i, r := range reports {
		names[i] = r.Name
	}
	sort.Strings(names)
	return names
}

// LookupReport finds a report by name.
func LookupReport(name string) (Report, bool) {
	for _, r := range reports {
		if r.Name == name {
			return r, true
		}
	}
	return Report{}, false
}

// UnknownReportError is returned for a report name that does not exist.
type UnknownReportError struct {
	Name      string
	Available []string
}

func (e *UnknownReportError) Error() string {
	return fmt.Sprintf("unknown report %q (available: %v)", e.Name, e.Available)
}

// RunReport runs the named report.
func (r *Runner) RunReport(ctx context.Context, name string, limit int) (Report, *Result, error) {
	rep, ok := LookupReport(name)
	if !ok {
		return Report{}, nil, &UnknownReportError{Name: name, Available: ReportNames()}
	}
	res, err := r.Run(ctx, rep.SQL, limit)
	if err != nil {
		return rep, nil, fmt.Errorf("report %s: %w", name, err)
	}
	return rep, res, nil
}
