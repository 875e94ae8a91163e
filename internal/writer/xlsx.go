package writer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-structurer/internal/models"
)

const (
	transactionsSheet = "Transactions"
	metadataSheet     = "Metadata"
)

// XLSXWriter writes transactions to an Excel workbook. The first sheet always
// holds the transaction table.
type XLSXWriter struct {
	IncludeMetadata bool
}

func (w *XLSXWriter) Ext() string { return ".xlsx" }

func (w *XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (w *XLSXWriter) Write(out io.Writer, stmt *models.Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), transactionsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := make([][]interface{}, 0, len(stmt.Transactions)+1)
	rows = append(rows, stringsToRow(TransactionColumns))
	for _, r := range transactionRows(stmt.Transactions) {
		rows = append(rows, r.values())
	}
	if err := writeRows(f, transactionsSheet, rows); err != nil {
		return err
	}

	if w.IncludeMetadata {
		if _, err := f.NewSheet(metadataSheet); err != nil {
			return fmt.Errorf("failed to add metadata sheet: %w", err)
		}
		meta := [][]interface{}{{"Field", "Value"}}
		for _, r := range metadataRows(stmt) {
			meta = append(meta, []interface{}{r[0], r[1]})
		}
		if err := writeRows(f, metadataSheet, meta); err != nil {
			return err
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteTableXLSX writes a located table to a single-sheet workbook.
func WriteTableXLSX(out io.Writer, t *models.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := make([][]interface{}, 0, len(t.Rows)+1)
	rows = append(rows, stringsToRow(t.Columns))
	for _, row := range t.Rows {
		values := make([]interface{}, len(t.Columns))
		for i := range values {
			if i >= len(row) {
				continue
			}
			switch c := row[i]; c.Kind {
			case models.CellNumber:
				values[i] = c.Number
			case models.CellTime:
				values[i] = c.Time
			case models.CellString:
				values[i] = c.Text
			}
		}
		rows = append(rows, values)
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

func stringsToRow(ss []string) []interface{} {
	row := make([]interface{}, len(ss))
	for i, s := range ss {
		row[i] = s
	}
	return row
}
