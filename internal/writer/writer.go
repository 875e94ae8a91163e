// Package writer exports parsed statements and located tables.
package writer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-structurer/internal/models"
)

// TransactionColumns is the column order of every transaction export.
var TransactionColumns = []string{
	"Value Date", "Post Date", "Details", "Chq.No.", "Debit", "Credit", "Balance", "More Info",
}

// Writer serialises a statement's transactions.
type Writer interface {
	Write(out io.Writer, stmt *models.Statement) error
	// Ext is the file extension of the output, with the dot.
	Ext() string
	ContentType() string
}

// New returns the writer for format ("csv" or "xlsx"). includeHeader adds the
// account metadata to the output.
func New(format string, includeHeader bool) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return &CSVWriter{IncludeHeader: includeHeader}, nil
	case "xlsx", "excel":
		return &XLSXWriter{IncludeMetadata: includeHeader}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

// WriteToFile writes stmt to path using w.
func WriteToFile(w Writer, path string, stmt *models.Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	if err := w.Write(f, stmt); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// transactionRow is one exported record; tags give the CSV column names.
type transactionRow struct {
	ValueDate    string `csv:"Value Date"`
	PostDate     string `csv:"Post Date"`
	Details      string `csv:"Details"`
	ChequeNumber string `csv:"Chq.No."`
	Debit        string `csv:"Debit"`
	Credit       string `csv:"Credit"`
	Balance      string `csv:"Balance"`
	MoreInfo     string `csv:"More Info"`
}

func (r transactionRow) values() []interface{} {
	return []interface{}{
		r.ValueDate, r.PostDate, r.Details, r.ChequeNumber, r.Debit, r.Credit, r.Balance, r.MoreInfo,
	}
}

func transactionRows(records []models.TransactionRecord) []*transactionRow {
	rows := make([]*transactionRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &transactionRow{
			ValueDate:    rec.ValueDate,
			PostDate:     rec.PostDate,
			Details:      rec.Details,
			ChequeNumber: rec.ChequeNumber,
			Debit:        formatAmount(rec.Debit),
			Credit:       formatAmount(rec.Credit),
			Balance:      rec.Balance.StringFixed(2),
			MoreInfo:     rec.MoreInfo,
		})
	}
	return rows
}

func formatAmount(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return ""
	}
	return amount.Decimal.StringFixed(2)
}

// metadataRows lists the non-empty metadata fields and the opening balance.
func metadataRows(stmt *models.Statement) [][2]string {
	var rows [][2]string
	for _, f := range stmt.Metadata.Ordered() {
		if f.Value != "" {
			rows = append(rows, [2]string{f.Field, f.Value})
		}
	}
	if ob := stmt.OpeningBalance; ob != nil {
		rows = append(rows, [2]string{"Opening Balance", ob.Amount.StringFixed(2) + " " + string(ob.Side)})
	}
	return rows
}
