// Package export writes the flattened tables as CSV files for reporting and
// reads them back for reloading into a sink.
//
// Files carry a header row in schema column order. NULL is written as an
// empty field, and an empty field reads back as NULL.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/crickflat/pkg/core"
)

// FileName returns the CSV file name for a table.
func FileName(table string) string {
	return table + ".csv"
}

// WriteAll writes every table into dir as <table>.csv and returns the paths
// in table order. dir is created if missing.
func WriteAll(dir string, tables ...core.TableData) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, FileName(t.Name))
		if err := WriteTable(path, t); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteTable writes t to path atomically: rows go to a temp file in the same
// directory which then replaces path.
func WriteTable(path string, t core.TableData) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+t.Name+"-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", t.Name, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = encode(bw, t); err != nil {
		return fmt.Errorf("failed to write %s: %w", t.Name, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", t.Name, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", t.Name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", t.Name, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func encode(w io.Writer, t core.TableData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(core.ColumnNames(t.Columns)); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(t.Columns))
		}
		for j, v := range row {
			s, err := formatValue(v)
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", i, t.Columns[j].Name, err)
			}
			record[j] = s
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// ErrHeaderMismatch is returned when a CSV header does not match the schema.
var ErrHeaderMismatch = errors.New("csv header does not match table schema")

// ReadTable reads a CSV written by WriteTable back into typed rows using
// cols. Empty fields become nil; INTEGER fields are parsed as int64.
func ReadTable(path, name string, cols []core.Column) (core.TableData, error) {
	out := core.TableData{Name: name, Columns: cols}

	f, err := os.Open(path) //nolint:gosec // path is the configured export location
	if err != nil {
		return out, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = len(cols)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return out, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	want := core.ColumnNames(cols)
	for i := range want {
		if header[i] != want[i] {
			return out, fmt.Errorf("%w: %s column %d is %q, want %q", ErrHeaderMismatch, path, i+1, header[i], want[i])
		}
	}

	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to read %s: %w", path, err)
		}

		row := make([]any, len(cols))
		for i, c := range cols {
			v, err := parseValue(rec[i], c)
			if err != nil {
				return out, fmt.Errorf("%s line %d column %s: %w", path, line, c.Name, err)
			}
			row[i] = v
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func parseValue(field string, c core.Column) (any, error) {
	if field == "" {
		if c.Type == core.ColumnText && !c.Nullable {
			return "", nil
		}
		if c.Type == core.ColumnInteger && !c.Nullable {
			return int64(0), nil
		}
		return nil, nil
	}
	if c.Type == core.ColumnInteger {
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", field)
		}
		return n, nil
	}
	return field, nil
}

// ReadAll reads matches.csv and deliveries.csv from dir.
func ReadAll(dir string) ([]core.TableData, error) {
	matches, err := ReadTable(filepath.Join(dir, FileName(core.MatchesTableName)), core.MatchesTableName, core.MatchColumns)
	if err != nil {
		return nil, err
	}
	deliveries, err := ReadTable(filepath.Join(dir, FileName(core.DeliveriesTableName)), core.DeliveriesTableName, core.DeliveryColumns)
	if err != nil {
		return nil, err
	}
	return []core.TableData{matches, deliveries}, nil
}
