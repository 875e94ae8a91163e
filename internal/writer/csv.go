package writer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/insightdelivered/statement-structurer/internal/models"
)

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

func (w *CSVWriter) Ext() string         { return ".csv" }
func (w *CSVWriter) ContentType() string { return "text/csv" }

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, stmt *models.Statement) error {
	cw := csv.NewWriter(out)

	// Metadata goes first as "# Field" comment rows
	if w.IncludeHeader {
		for _, row := range metadataRows(stmt) {
			if err := cw.Write([]string{"# " + row[0], row[1]}); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := gocsv.MarshalCSV(transactionRows(stmt.Transactions), gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteTableCSV writes a located table with its column names as the first row.
func WriteTableCSV(out io.Writer, t *models.Table) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i := range record {
			if i < len(row) {
				record[i] = row[i].String()
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
