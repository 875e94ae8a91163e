// Package excel locates the transaction table inside a spreadsheet whose layout
// and preamble are not known in advance.
package excel

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-structurer/internal/models"
	"github.com/insightdelivered/statement-structurer/internal/source"
)

// Compound File Binary signature used by legacy .xls workbooks.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// LoadRawGrid reads the first worksheet of src with no header assumption: row 0
// is data like every other row. Anything that is not a readable workbook fails
// with models.ErrSourceUnreadable.
func LoadRawGrid(src source.Source) (grid *models.RawGrid, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid = nil
			err = fmt.Errorf("%w: workbook reader crashed: %v", models.ErrSourceUnreadable, r)
		}
	}()

	data, err := src.Bytes()
	if err != nil {
		return nil, err
	}

	var rows [][]models.Cell
	if bytes.HasPrefix(data, oleSignature) {
		rows, err = readXLS(data)
	} else {
		rows, err = readXLSX(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrSourceUnreadable, src.Name, err)
	}
	return models.NewRawGrid(rows), nil
}

// readXLSX reads stored values rather than display strings, so numbers keep
// their value and date-formatted serials become times.
func readXLSX(data []byte) ([][]models.Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	sh := &xlsxSheet{f: f, name: sheets[0], dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		sh.date1904 = *props.Date1904
	}

	out := make([][]models.Cell, len(rows))
	for r, row := range rows {
		cells := make([]models.Cell, len(row))
		for c, raw := range row {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			cells[c] = sh.cell(ref, raw)
		}
		out[r] = cells
	}
	return out, nil
}

type xlsxSheet struct {
	f          *excelize.File
	name       string
	date1904   bool
	dateStyles map[int]bool // style index -> renders as date
}

func (s *xlsxSheet) cell(ref, raw string) models.Cell {
	typ, err := s.f.GetCellType(s.name, ref)
	if err != nil {
		return models.TextCell(raw)
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return models.TextCell(raw)
		}
		if s.isDate(ref) {
			if t, err := excelize.ExcelDateToTime(n, s.date1904); err == nil {
				return models.TimeCell(t, s.display(ref, raw))
			}
		}
		return models.NumberCell(n, raw)
	case excelize.CellTypeDate:
		if t, ok := ParseDateTime(raw); ok {
			return models.TimeCell(t, raw)
		}
		return models.TextCell(raw)
	case excelize.CellTypeBool:
		if raw == "1" {
			return models.TextCell("TRUE")
		}
		return models.TextCell("FALSE")
	default:
		return models.TextCell(raw)
	}
}

// display returns the cell as the sheet shows it.
func (s *xlsxSheet) display(ref, raw string) string {
	v, err := s.f.GetCellValue(s.name, ref, excelize.Options{})
	if err != nil || v == "" {
		return raw
	}
	return v
}

func (s *xlsxSheet) isDate(ref string) bool {
	idx, err := s.f.GetCellStyle(s.name, ref)
	if err != nil {
		return false
	}
	if v, ok := s.dateStyles[idx]; ok {
		return v
	}

	isDate := false
	if style, err := s.f.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFmtCode(*style.CustomNumFmt)
		} else {
			isDate = isBuiltinDateFmt(style.NumFmt)
		}
	}
	s.dateStyles[idx] = isDate
	return isDate
}

// Built-in number formats 14-22 render dates and clock times; 27-36 and 50-58
// are the locale date formats. Elapsed-time formats (45-47) stay numeric.
func isBuiltinDateFmt(id int) bool {
	return 14 <= id && id <= 22 || 27 <= id && id <= 36 || 50 <= id && id <= 58
}

// isDateFmtCode reports whether a custom format code has a date or time token.
// Quoted literals, bracketed sections and escaped, padding or fill characters
// are skipped.
func isDateFmtCode(code string) bool {
	var inQuote, inBracket, skip bool
	for _, r := range strings.ToLower(code) {
		switch {
		case skip:
			skip = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == '\\', r == '_', r == '*':
			skip = true
		case strings.ContainsRune("dmyhs", r):
			return true
		}
	}
	return false
}

func readXLS(data []byte) ([][]models.Cell, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open XLS workbook: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, fmt.Errorf("no sheets found in XLS file")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("could not get first sheet")
	}

	rows := make([][]models.Cell, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]models.Cell, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells[c] = xlsCell(row.Col(c))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// xlsCell types one value from the xls reader, which renders numbers plainly
// and custom-formatted dates as RFC 3339.
func xlsCell(v string) models.Cell {
	// the reader has no formula results, only this placeholder
	if v == "FormulaCol" {
		return models.Cell{}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
		return models.TimeCell(t, v)
	}
	return models.TextCell(v)
}
