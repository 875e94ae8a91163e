package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/statement-structurer/internal/models"
	"github.com/insightdelivered/statement-structurer/internal/source"
)

var headerKeywords = []string{"date", "description", "credit", "debit", "amount", "balance"}

// Result is the located metadata block and data block of one workbook.
type Result struct {
	Metadata    *models.Table `json:"metadata"`
	Data        *models.Table `json:"data"`
	HeaderRow   int           `json:"header_row"`
	HeaderFound bool          `json:"header_found"`
}

// Locate runs the whole pipeline: load, find the header, split, clean both
// blocks and normalise datetime columns in the data block.
func Locate(src source.Source) (*Result, error) {
	grid, err := LoadRawGrid(src)
	if err != nil {
		return nil, err
	}

	row, found := FindHeaderRow(grid)
	meta, data := SplitMetadataAndData(grid, row, found)

	res := &Result{
		Metadata:    CleanBlock(meta),
		Data:        NormalizeDatetimeColumns(CleanBlock(data)),
		HeaderRow:   row,
		HeaderFound: found,
	}
	if !found {
		res.HeaderRow = -1
	}
	return res, nil
}

// FindHeaderRow returns the index of the first row with a cell whose lower-cased
// text contains a header keyword. The bool is false when no row qualifies.
func FindHeaderRow(grid *models.RawGrid) (int, bool) {
	for i, row := range grid.Rows {
		for _, c := range row {
			if c.IsEmpty() {
				continue
			}
			s := strings.ToLower(c.String())
			for _, kw := range headerKeywords {
				if strings.Contains(s, kw) {
					return i, true
				}
			}
		}
	}
	return 0, false
}

// SplitMetadataAndData cuts the grid at the header row. Metadata holds the rows
// strictly above it and is empty when the header is row 0 or missing. Without a
// header the whole grid is data, with positional column names.
func SplitMetadataAndData(grid *models.RawGrid, headerRow int, found bool) (meta, data *models.Table) {
	width := grid.Width()

	if !found || headerRow < 0 || headerRow >= grid.Len() {
		return models.EmptyTable(), models.NewTable(positionalNames(width), copyRows(grid.Rows))
	}

	if headerRow > 0 {
		meta = models.NewTable(positionalNames(width), copyRows(grid.Rows[:headerRow]))
	} else {
		meta = models.EmptyTable()
	}
	data = models.NewTable(headerNames(grid.Rows[headerRow]), copyRows(grid.Rows[headerRow+1:]))
	return meta, data
}

// CleanBlock drops rows that are entirely empty, then columns that are entirely
// empty across the remaining rows. Column kinds are kept.
func CleanBlock(t *models.Table) *models.Table {
	var rows [][]models.Cell
	for _, row := range t.Rows {
		for _, c := range row {
			if !c.IsEmpty() {
				rows = append(rows, row)
				break
			}
		}
	}

	var keep []int
	for i := range t.Columns {
		for _, row := range rows {
			if i < len(row) && !row[i].IsEmpty() {
				keep = append(keep, i)
				break
			}
		}
	}

	out := &models.Table{
		Columns: make([]string, len(keep)),
		Kinds:   make([]models.ColumnKind, len(keep)),
		Rows:    make([][]models.Cell, len(rows)),
	}
	for j, i := range keep {
		out.Columns[j] = t.Columns[i]
		out.Kinds[j] = t.Kinds[i]
	}
	for r, row := range rows {
		cells := make([]models.Cell, len(keep))
		for j, i := range keep {
			if i < len(row) {
				cells[j] = row[i]
			}
		}
		out.Rows[r] = cells
	}
	return out
}

// NormalizeDatetimeColumns reinterprets each column as date/time values. A
// column is converted only when every non-empty value parses; otherwise it is
// returned exactly as it was.
func NormalizeDatetimeColumns(t *models.Table) *models.Table {
	out := t.Clone()
	for i := range out.Columns {
		if out.Kinds[i] == models.ColumnDatetime {
			continue
		}
		parsed, ok := parseColumn(out.Column(i))
		if !ok {
			continue
		}
		for r := range out.Rows {
			out.Rows[r][i] = parsed[r]
		}
		out.Kinds[i] = models.ColumnDatetime
	}
	return out
}

func parseColumn(cells []models.Cell) ([]models.Cell, bool) {
	parsed := make([]models.Cell, len(cells))
	values := 0
	for r, c := range cells {
		switch c.Kind {
		case models.CellEmpty:
			parsed[r] = c
		case models.CellTime:
			parsed[r] = c
			values++
		case models.CellString:
			ts, ok := ParseDateTime(c.Text)
			if !ok {
				return nil, false
			}
			parsed[r] = models.TimeCell(ts, c.Text)
			values++
		default:
			// numbers are amounts or ids, never dates
			return nil, false
		}
	}
	return parsed, values > 0
}

// Day-first for slashes; dashed two-digit years follow the sheet's default
// mm-dd-yy date format.
var dateLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01-02-06",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2.1.2006",
}

// ParseDateTime tries every supported layout against s.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func positionalNames(width int) []string {
	names := make([]string, width)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return names
}

// headerNames turns a header row into unique column names.
func headerNames(row []models.Cell) []string {
	names := make([]string, len(row))
	seen := make(map[string]int)
	for i, c := range row {
		base := strings.TrimSpace(c.String())
		if base == "" {
			base = fmt.Sprintf("Unnamed: %d", i)
		}
		name := base
		if n := seen[base]; n > 0 {
			name = fmt.Sprintf("%s.%d", base, n)
		}
		seen[base]++
		names[i] = name
	}
	return names
}

func copyRows(rows [][]models.Cell) [][]models.Cell {
	out := make([][]models.Cell, len(rows))
	for i, r := range rows {
		out[i] = append([]models.Cell(nil), r...)
	}
	return out
}
