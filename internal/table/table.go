// Package table provides the tabular result type returned by the bridge.
// A Table is an ordered sequence of rows, each an arbitrary field mapping,
// plus the two provenance columns appended by the fetch path.
package table

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Provenance columns appended to every fetched row.
// By convention, metadata field names start with underscore.
const (
	// SourceIDColumn holds the identifier of the originating source.
	SourceIDColumn = "_source_id"

	// FetchedAtColumn holds the UTC fetch timestamp (RFC 3339).
	FetchedAtColumn = "_fetched_at"
)

// ErrNoPrimaryKeys is returned when a key check is requested without key columns.
var ErrNoPrimaryKeys = errors.New("no primary key columns declared")

// Row is a single table row: field name to value.
type Row = map[string]interface{}

// Table is an ordered collection of rows.
// The zero value is an empty table ready for use.
type Table struct {
	rows []Row
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// FromRows returns a table wrapping the given rows.
// The rows are not copied; the table takes ownership.
func FromRows(rows []Row) *Table {
	return &Table{rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Empty returns true if the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Append adds a row to the end of the table.
func (t *Table) Append(row Row) {
	t.rows = append(t.rows, row)
}

// Rows returns the underlying row slice.
func (t *Table) Rows() []Row {
	return t.rows
}

// Row returns the row at index i.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Columns returns the sorted union of field names across all rows.
// Provenance columns sort after the data columns despite the leading
// underscore, matching how rows are rendered by WriteCSV.
func (t *Table) Columns() []string {
	seen := make(map[string]bool)
	var data, meta []string
	for _, row := range t.rows {
		for k := range row {
			if seen[k] {
				continue
			}
			seen[k] = true
			if strings.HasPrefix(k, "_") {
				meta = append(meta, k)
			} else {
				data = append(data, k)
			}
		}
	}
	sort.Strings(data)
	sort.Strings(meta)
	return append(data, meta...)
}

// Column returns all values of a single column, one per row.
// Rows missing the field contribute nil.
func (t *Table) Column(name string) []interface{} {
	values := make([]interface{}, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[name]
	}
	return values
}

// DuplicateKeyError reports rows sharing the same primary key values.
type DuplicateKeyError struct {
	// Keys is the declared primary key column list
	Keys []string
	// Values holds the duplicated key values in column order
	Values []interface{}
	// FirstRow and DuplicateRow are the indices of the colliding rows
	FirstRow     int
	DuplicateRow int
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate primary key %v=%v: rows %d and %d",
		e.Keys, e.Values, e.FirstRow, e.DuplicateRow)
}

// ValidatePrimaryKeys checks that the declared key columns uniquely identify
// every row. The primary key contract is otherwise unchecked; this is an
// explicit, opt-in post-fetch check.
func (t *Table) ValidatePrimaryKeys(keys []string) error {
	if len(keys) == 0 {
		return ErrNoPrimaryKeys
	}

	seen := make(map[string]int, len(t.rows))
	for i, row := range t.rows {
		var sb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&sb, "%v\x1f", row[k])
		}
		composite := sb.String()
		if first, ok := seen[composite]; ok {
			values := make([]interface{}, len(keys))
			for j, k := range keys {
				values[j] = row[k]
			}
			return &DuplicateKeyError{
				Keys:         keys,
				Values:       values,
				FirstRow:     first,
				DuplicateRow: i,
			}
		}
		seen[composite] = i
	}
	return nil
}

// WriteCSV writes the table in CSV format with a header row.
// Missing fields are written as empty strings.
func (t *Table) WriteCSV(w io.Writer) error {
	cols := t.Columns()
	cw := csv.NewWriter(w)

	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	record := make([]string, len(cols))
	for _, row := range t.rows {
		for i, col := range cols {
			if v, ok := row[col]; ok && v != nil {
				record[i] = fmt.Sprintf("%v", v)
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the table as a JSON array of row objects.
func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if t.rows == nil {
		return enc.Encode([]Row{})
	}
	return enc.Encode(t.rows)
}
