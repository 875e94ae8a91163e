package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CellKind identifies the scalar held by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
	CellTime
)

// Cell is one spreadsheet value.
type Cell struct {
	Kind   CellKind
	Text   string // the value as read from the sheet
	Number float64
	Time   time.Time
}

// TextCell classifies a raw sheet string as empty, number, or string.
func TextCell(s string) Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Cell{Kind: CellEmpty}
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Cell{Kind: CellNumber, Text: s, Number: n}
	}
	return Cell{Kind: CellString, Text: s}
}

// NumberCell wraps a typed numeric value; text is the stored value, not its
// display form.
func NumberCell(n float64, text string) Cell {
	return Cell{Kind: CellNumber, Text: text, Number: n}
}

// TimeCell wraps a parsed date/time, keeping the original text.
func TimeCell(t time.Time, text string) Cell {
	return Cell{Kind: CellTime, Text: text, Time: t}
}

func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// String returns the cell's string form.
func (c Cell) String() string {
	switch c.Kind {
	case CellEmpty:
		return ""
	case CellTime:
		if c.Time.Hour() == 0 && c.Time.Minute() == 0 && c.Time.Second() == 0 {
			return c.Time.Format("2006-01-02")
		}
		return c.Time.Format("2006-01-02 15:04:05")
	default:
		return c.Text
	}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellEmpty:
		return []byte("null"), nil
	case CellNumber:
		return json.Marshal(c.Number)
	case CellTime:
		return json.Marshal(c.Time.Format(time.RFC3339))
	default:
		return json.Marshal(c.Text)
	}
}

// RawGrid is a sheet read without assuming a header row. Every row has Width cells.
type RawGrid struct {
	Rows [][]Cell
}

// NewRawGrid pads every row to the widest row's length.
func NewRawGrid(rows [][]Cell) *RawGrid {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	padded := make([][]Cell, len(rows))
	for i, r := range rows {
		row := make([]Cell, width)
		copy(row, r)
		padded[i] = row
	}
	return &RawGrid{Rows: padded}
}

func (g *RawGrid) Width() int {
	if len(g.Rows) == 0 {
		return 0
	}
	return len(g.Rows[0])
}

func (g *RawGrid) Len() int {
	return len(g.Rows)
}

// ColumnKind is the declared type of a table column.
type ColumnKind string

const (
	ColumnText     ColumnKind = "text"
	ColumnNumber   ColumnKind = "number"
	ColumnDatetime ColumnKind = "datetime"
)

// Table is a block of named columns: the metadata block or the data block.
type Table struct {
	Columns []string     `json:"columns"`
	Kinds   []ColumnKind `json:"kinds"`
	Rows    [][]Cell     `json:"rows"`
}

// NewTable builds a table and infers each column's kind from its cells.
func NewTable(columns []string, rows [][]Cell) *Table {
	t := &Table{
		Columns: append([]string(nil), columns...),
		Rows:    rows,
	}
	if t.Rows == nil {
		t.Rows = [][]Cell{}
	}
	t.Kinds = make([]ColumnKind, len(columns))
	for i := range columns {
		t.Kinds[i] = inferKind(t.Column(i))
	}
	return t
}

// EmptyTable returns a table with no columns and no rows.
func EmptyTable() *Table {
	return &Table{Columns: []string{}, Kinds: []ColumnKind{}, Rows: [][]Cell{}}
}

func inferKind(cells []Cell) ColumnKind {
	kind := ColumnText
	seen := false
	for _, c := range cells {
		switch c.Kind {
		case CellEmpty:
			continue
		case CellNumber:
			if !seen {
				kind = ColumnNumber
			} else if kind != ColumnNumber {
				return ColumnText
			}
		case CellTime:
			if !seen {
				kind = ColumnDatetime
			} else if kind != ColumnDatetime {
				return ColumnText
			}
		default:
			return ColumnText
		}
		seen = true
	}
	return kind
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) Width() int {
	return len(t.Columns)
}

func (t *Table) IsEmpty() bool {
	return len(t.Rows) == 0 || len(t.Columns) == 0
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the i-th column's cells.
func (t *Table) Column(i int) []Cell {
	out := make([]Cell, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	rows := make([][]Cell, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]Cell(nil), r...)
	}
	return &Table{
		Columns: append([]string(nil), t.Columns...),
		Kinds:   append([]ColumnKind(nil), t.Kinds...),
		Rows:    rows,
	}
}

// DateBucket selects how datetime values are bucketed when grouping.
type DateBucket string

const (
	BucketTimestamp DateBucket = "timestamp"
	BucketDate      DateBucket = "date"
	BucketMonth     DateBucket = "month"
	BucketYear      DateBucket = "year"
)

// ParseDateBucket maps user input to a bucket; unknown input means timestamp.
func ParseDateBucket(s string) DateBucket {
	switch DateBucket(strings.ToLower(strings.TrimSpace(s))) {
	case BucketDate:
		return BucketDate
	case BucketMonth:
		return BucketMonth
	case BucketYear:
		return BucketYear
	default:
		return BucketTimestamp
	}
}

// Group is one bucket of a GroupBy result.
type Group struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// GroupBy counts rows per distinct value of column, sorted by key. The bucket
// only applies when the column is declared datetime. Empty cells are skipped.
func (t *Table) GroupBy(column string, bucket DateBucket) ([]Group, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	isTime := t.Kinds[idx] == ColumnDatetime

	counts := make(map[string]int)
	for _, c := range t.Column(idx) {
		if c.IsEmpty() {
			continue
		}
		key := c.String()
		if isTime && c.Kind == CellTime {
			key = bucketKey(c.Time, bucket)
		}
		counts[key]++
	}

	groups := make([]Group, 0, len(counts))
	for k, n := range counts {
		groups = append(groups, Group{Key: k, Count: n})
	}
	numeric := t.Kinds[idx] == ColumnNumber
	sort.Slice(groups, func(i, j int) bool {
		if numeric {
			a, _ := strconv.ParseFloat(strings.TrimSpace(groups[i].Key), 64)
			b, _ := strconv.ParseFloat(strings.TrimSpace(groups[j].Key), 64)
			if a != b {
				return a < b
			}
		}
		return groups[i].Key < groups[j].Key
	})
	return groups, nil
}

func bucketKey(t time.Time, bucket DateBucket) string {
	switch bucket {
	case BucketDate:
		return t.Format("2006-01-02")
	case BucketMonth:
		return t.Format("2006-01")
	case BucketYear:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02 15:04:05")
	}
}
