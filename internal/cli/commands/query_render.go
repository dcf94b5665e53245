package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	jsoniter "github.com/json-iterator/go"
	"github.com/leapstack-labs/crickflat/internal/query"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func renderResults(w io.Writer, res *query.Result, format string) error {
	switch format {
	case "json":
		return renderJSON(w, res)
	case "csv":
		return renderCSV(w, res)
	case "md", "markdown":
		return renderMarkdown(w, res)
	default:
		return renderTable(w, res)
	}
}

func renderTable(w io.Writer, res *query.Result) error {
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, values := range res.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintln(w, rowCount(res))
	return nil
}

func rowCount(res *query.Result) string {
	if res.Truncated() {
		return fmt.Sprintf("(showing %d of %d rows)", len(res.Rows), res.Total)
	}
	return fmt.Sprintf("(%d rows)", len(res.Rows))
}

func renderJSON(w io.Writer, res *query.Result) error {
	results := make([]map[string]any, 0, len(res.Rows))
	for _, values := range res.Rows {
		row := make(map[string]any, len(res.Columns))
		for i, col := range res.Columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, res *query.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	record := make([]string, len(res.Columns))
	for _, values := range res.Rows {
		for i, v := range values {
			if v == nil {
				record[i] = ""
				continue
			}
			record[i] = fmt.Sprintf("%v", v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, res *query.Result) error {
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(res.Columns, " | "))
	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, values := range res.Rows {
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = strings.ReplaceAll(formatValue(v), "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	if res.Truncated() {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, rowCount(res))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

// Helpers for the tables/schema subcommands and REPL dot-commands

func listTables(ctx context.Context, w io.Writer, runner *query.Runner, format string) error {
	tables, err := runner.Tables(ctx)
	if err != nil {
		return err
	}

	res := &query.Result{Columns: []string{"name"}, Total: len(tables)}
	for _, name := range tables {
		res.Rows = append(res.Rows, []any{name})
	}
	return renderResults(w, res, format)
}

// columnInfo represents schema column information.
type columnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable string `json:"nullable"`
	PK       bool   `json:"pk"`
}

type schemaOutput struct {
	Name     string       `json:"name"`
	Schema   string       `json:"schema,omitempty"`
	RowCount int64        `json:"row_count"`
	Columns  []columnInfo `json:"columns"`
}

func showSchema(ctx context.Context, w io.Writer, runner *query.Runner, tableName, format string) error {
	meta, err := runner.Schema(ctx, tableName)
	if err != nil {
		return err
	}
	if len(meta.Columns) == 0 {
		return fmt.Errorf("table '%s' not found", tableName)
	}

	columns := make([]columnInfo, len(meta.Columns))
	for i, c := range meta.Columns {
		nullable := "YES"
		if !c.Nullable {
			nullable = "NO"
		}
		columns[i] = columnInfo{Name: c.Name, Type: string(c.Type), Nullable: nullable, PK: c.PrimaryKey}
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schemaOutput{
			Name:     meta.Name,
			Schema:   meta.Schema,
			RowCount: meta.RowCount,
			Columns:  columns,
		})
	}

	_, _ = fmt.Fprintf(w, "Table: %s (%d rows)\n", tableName, meta.RowCount)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 60))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable", "Key"})
	for _, col := range columns {
		key := ""
		if col.PK {
			key = "PK"
		}
		t.AppendRow(table.Row{col.Name, col.Type, col.Nullable, key})
	}
	t.Render()

	return nil
}
