package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-structurer/internal/pdftest"
)

func setupTestApp() *fiber.App {
	h := &Handler{
		Log:          zerolog.Nop(),
		ExportFormat: "csv",
		Version:      "test",
	}
	return NewApp(h, 4*1024*1024)
}

// upload builds a multipart POST with an optional file and extra form fields.
func upload(t *testing.T, target, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func statementPDF() []byte {
	return pdftest.Build(
		[]string{
			"CENTRAL BANK OF INDIA",
			"RAVI KUMAR",
			"Account No. : 3456789012",
			"BROUGHT FORWARD 5,432.10 Cr",
			"01/03/24 01/03/24 BY CASH . - 1,000.00 1,000.00Cr",
			"05/03/24 05/03/24 NEFT SALARY . - 200.00 1,200.00Cr",
			". .EXTRA NOTE",
			"10/03/24 10/03/24 UPI/4012/SHOP . - 150.00 1,050.00Cr",
		},
	)
}

func statementWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Account Name", "RAVI KUMAR"},
		{"Txn Date", "Description", "Amount"},
		{"15/01/2024", "NEFT", 100},
		{"20/01/2024", "UPI", 50},
		{"02/02/2024", "UPI", 75},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	result := decode(t, resp)
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "fiber", result["engine"])
	assert.Equal(t, "test", result["version"])
}

func TestRequestIDPassthrough(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(fiber.HeaderXRequestID))
}

func TestParsePDF(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(upload(t, "/api/pdf/parse", "statement.pdf", statementPDF(), nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode(t, resp)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "central", result["bank"])
	assert.EqualValues(t, 3, result["count"])
	assert.Equal(t, "150", result["totalDebit"])
	assert.Equal(t, "200", result["totalCredit"])
	assert.Nil(t, result["trace"])

	txns := result["transactions"].([]interface{})
	second := txns[1].(map[string]interface{})
	assert.Equal(t, "EXTRA NOTE", second["moreInfo"])

	metadata := result["metadata"].([]interface{})
	first := metadata[0].(map[string]interface{})
	assert.Equal(t, "Bank", first["field"])
	assert.Equal(t, "CENTRAL BANK OF INDIA", first["value"])

	opening := result["openingBalance"].(map[string]interface{})
	assert.Equal(t, "Cr", opening["side"])
}

func TestParsePDF_DebugTrace(t *testing.T) {
	app := setupTestApp()

	req := upload(t, "/api/pdf/parse", "statement.pdf", statementPDF(), map[string]string{"debug": "true"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode(t, resp)
	assert.Len(t, result["trace"], 8)
}

func TestParsePDF_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		fields   map[string]string
		status   int
	}{
		{"missing file", "", nil, nil, fiber.StatusBadRequest},
		{"not a pdf extension", "statement.txt", []byte("hello"), nil, fiber.StatusBadRequest},
		{"corrupt pdf", "statement.pdf", []byte("definitely not a pdf"), nil, fiber.StatusUnprocessableEntity},
		{"unknown bank", "statement.pdf", statementPDF(), map[string]string{"bank": "metro"}, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp()
			resp, err := app.Test(upload(t, "/api/pdf/parse", tt.filename, tt.data, tt.fields), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			result := decode(t, resp)
			assert.Equal(t, false, result["success"])
			assert.NotEmpty(t, result["error"])
		})
	}
}

func TestExportPDF(t *testing.T) {
	app := setupTestApp()

	t.Run("csv", func(t *testing.T) {
		resp, err := app.Test(upload(t, "/api/pdf/export?format=csv", "march.pdf", statementPDF(), map[string]string{"header": "false"}), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "march.csv")

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(body, []byte("Value Date,Post Date,Details,Chq.No.,Debit,Credit,Balance,More Info")))
	})

	t.Run("xlsx", func(t *testing.T) {
		resp, err := app.Test(upload(t, "/api/pdf/export?format=xlsx", "march.pdf", statementPDF(), nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		f, err := excelize.OpenReader(resp.Body)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Transactions")
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})

	t.Run("bad format", func(t *testing.T) {
		resp, err := app.Test(upload(t, "/api/pdf/export?format=pdf", "march.pdf", statementPDF(), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestParseExcel(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(upload(t, "/api/excel/parse", "statement.xlsx", statementWorkbook(t), nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode(t, resp)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, true, result["header_found"])
	assert.EqualValues(t, 1, result["header_row"])

	data := result["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Txn Date", "Description", "Amount"}, data["columns"])
	assert.Equal(t, []interface{}{"datetime", "text", "number"}, data["kinds"])

	meta := result["metadata"].(map[string]interface{})
	assert.Len(t, meta["rows"], 1)
}

func TestParseExcel_Unreadable(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(upload(t, "/api/excel/parse", "broken.xlsx", []byte("nope"), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGroupExcel(t *testing.T) {
	app := setupTestApp()

	t.Run("by month", func(t *testing.T) {
		req := upload(t, "/api/excel/group", "statement.xlsx", statementWorkbook(t), map[string]string{
			"column": "Txn Date",
			"bucket": "month",
		})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		result := decode(t, resp)
		assert.Equal(t, "month", result["bucket"])
		assert.Equal(t, []interface{}{
			map[string]interface{}{"key": "2024-01", "count": float64(2)},
			map[string]interface{}{"key": "2024-02", "count": float64(1)},
		}, result["groups"])
	})

	t.Run("text column", func(t *testing.T) {
		req := upload(t, "/api/excel/group", "statement.xlsx", statementWorkbook(t), map[string]string{
			"column": "Description",
		})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		result := decode(t, resp)
		assert.Equal(t, []interface{}{
			map[string]interface{}{"key": "NEFT", "count": float64(1)},
			map[string]interface{}{"key": "UPI", "count": float64(2)},
		}, result["groups"])
	})

	t.Run("unknown column", func(t *testing.T) {
		req := upload(t, "/api/excel/group", "statement.xlsx", statementWorkbook(t), map[string]string{"column": "Nope"})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing column", func(t *testing.T) {
		req := upload(t, "/api/excel/group", "statement.xlsx", statementWorkbook(t), nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
