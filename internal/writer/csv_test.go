package writer

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-structurer/internal/models"
)

func sampleStatement() *models.Statement {
	md := models.NewAccountMetadata()
	md[models.FieldBank] = "CENTRAL BANK OF INDIA"
	md[models.FieldAccountNumber] = "3456789012"
	md[models.FieldCustomerName] = "RAVI KUMAR"

	return &models.Statement{
		Bank:     models.BankCentral,
		Metadata: md,
		OpeningBalance: &models.OpeningBalance{
			Amount: decimal.RequireFromString("5432.1"),
			Side:   models.SideCredit,
		},
		Transactions: []models.TransactionRecord{
			{ValueDate: "01/03/24", PostDate: "01/03/24", Details: "BY CASH", Balance: decimal.RequireFromString("1000")},
			{
				ValueDate: "05/03/24", PostDate: "05/03/24", Details: "NEFT SALARY, ACME",
				Credit:   decimal.NewNullDecimal(decimal.RequireFromString("200")),
				Balance:  decimal.RequireFromString("1200"),
				MoreInfo: "EXTRA NOTE",
			},
			{
				ValueDate: "10/03/24", PostDate: "11/03/24", Details: "CHQ PAID", ChequeNumber: "000123",
				Debit:   decimal.NewNullDecimal(decimal.RequireFromString("150.5")),
				Balance: decimal.RequireFromString("1049.5"),
			},
		},
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	require.NoError(t, w.Write(&buf, sampleStatement()))

	output := buf.String()
	assert.Contains(t, output, "# Bank,CENTRAL BANK OF INDIA")
	assert.Contains(t, output, "# Account Number,3456789012")
	assert.Contains(t, output, "# Opening Balance,5432.10 Cr")
	assert.NotContains(t, output, "# Branch,")

	assert.Contains(t, output, "Value Date,Post Date,Details,Chq.No.,Debit,Credit,Balance,More Info")
	assert.Contains(t, output, `05/03/24,05/03/24,"NEFT SALARY, ACME",,,200.00,1200.00,EXTRA NOTE`)
	assert.Contains(t, output, "10/03/24,11/03/24,CHQ PAID,000123,150.50,,1049.50,")

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 4 metadata lines + 1 header + 3 transactions
	assert.Len(t, lines, 8)
}

func TestCSVWriter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	require.NoError(t, w.Write(&buf, sampleStatement()))

	output := buf.String()
	assert.NotContains(t, output, "# Bank")
	assert.True(t, strings.HasPrefix(output, "Value Date,"))
}

func TestCSVWriter_RoundTrip(t *testing.T) {
	stmt := sampleStatement()
	var buf bytes.Buffer
	require.NoError(t, (&CSVWriter{}).Write(&buf, stmt))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(stmt.Transactions)+1)
	assert.Equal(t, TransactionColumns, records[0])
	assert.Equal(t, "NEFT SALARY, ACME", records[2][2])
}

func TestCSVWriter_EmptyStatement(t *testing.T) {
	var buf bytes.Buffer
	stmt := &models.Statement{Metadata: models.NewAccountMetadata()}
	require.NoError(t, (&CSVWriter{IncludeHeader: true}).Write(&buf, stmt))

	assert.Equal(t, strings.Join(TransactionColumns, ",")+"\n", buf.String())
}

func TestWriteTableCSV(t *testing.T) {
	tbl := models.NewTable([]string{"Date", "Amount"}, [][]models.Cell{
		{models.TextCell("2024-01-15"), models.TextCell("10.5")},
		{{}, models.TextCell("7")},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, tbl))
	assert.Equal(t, "Date,Amount\n2024-01-15,10.5\n,7\n", buf.String())
}

func TestNew(t *testing.T) {
	w, err := New("CSV", true)
	require.NoError(t, err)
	assert.Equal(t, ".csv", w.Ext())

	w, err = New("xlsx", false)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", w.Ext())

	_, err = New("pdf", false)
	assert.Error(t, err)
}

func TestWriteToFile(t *testing.T) {
	path := t.TempDir() + "/out.csv"
	require.NoError(t, WriteToFile(&CSVWriter{}, path, sampleStatement()))

	err := WriteToFile(&CSVWriter{}, t.TempDir()+"/missing/dir/out.csv", sampleStatement())
	assert.Error(t, err)
}
