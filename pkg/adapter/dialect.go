package adapter

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/crickflat/pkg/core"
)

// PlaceholderStyle selects how bind parameters are written.
type PlaceholderStyle int

const (
	// PlaceholderQuestion writes "?" for every parameter.
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar writes "$1", "$2", ...
	PlaceholderDollar
)

// Dialect describes the SQL differences between sinks that matter for
// creating and filling the fixed tables.
type Dialect struct {
	Name          string
	DefaultSchema string
	Placeholder   PlaceholderStyle
	// Types maps portable column types to native ones. Unmapped types are
	// written as-is.
	Types map[core.ColumnType]string
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	if d.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

// QuoteIdent quotes an identifier. Column names such as "over" are keywords
// in every supported dialect, so all identifiers are quoted.
func (d *Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnType returns the native type for a portable column type.
func (d *Dialect) ColumnType(t core.ColumnType) string {
	if native, ok := d.Types[t]; ok {
		return native
	}
	return string(t)
}

// CreateTableSQL renders the DDL for a table with the given columns.
func (d *Dialect) CreateTableSQL(table string, cols []core.Column) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(d.QuoteIdent(table))
	b.WriteString(" (\n")

	var pk []string
	for i, c := range cols {
		b.WriteString("    ")
		b.WriteString(d.QuoteIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(d.ColumnType(c.Type))
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		if c.PrimaryKey {
			pk = append(pk, d.QuoteIdent(c.Name))
		}
		if i < len(cols)-1 || len(pk) > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	if len(pk) > 0 {
		b.WriteString("    PRIMARY KEY (")
		b.WriteString(strings.Join(pk, ", "))
		b.WriteString(")\n")
	}
	b.WriteString(")")
	return b.String()
}

// DropTableSQL renders a DROP TABLE IF EXISTS statement.
func (d *Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table)
}

// InsertSQL renders a single-row INSERT with one placeholder per column.
func (d *Dialect) InsertSQL(table string, cols []core.Column) string {
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.QuoteIdent(c.Name)
		params[i] = d.FormatPlaceholder(i + 1)
	}
	return "INSERT INTO " + d.QuoteIdent(table) +
		" (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")"
}
