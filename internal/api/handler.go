package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-structurer/internal/excel"
	"github.com/insightdelivered/statement-structurer/internal/logger"
	"github.com/insightdelivered/statement-structurer/internal/models"
	"github.com/insightdelivered/statement-structurer/internal/parser"
	"github.com/insightdelivered/statement-structurer/internal/source"
	"github.com/insightdelivered/statement-structurer/internal/writer"
)

// ErrorResponse is returned by every endpoint on failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// PDFResponse is the JSON response from /api/pdf/parse.
type PDFResponse struct {
	Success        bool                       `json:"success"`
	Bank           string                     `json:"bank"`
	Metadata       []models.MetadataField     `json:"metadata"`
	Transactions   []models.TransactionRecord `json:"transactions"`
	Keywords       []models.KeywordCount      `json:"keywords"`
	OpeningBalance *models.OpeningBalance     `json:"openingBalance,omitempty"`
	TotalDebit     decimal.Decimal            `json:"totalDebit"`
	TotalCredit    decimal.Decimal            `json:"totalCredit"`
	Count          int                        `json:"count"`
	Version        string                     `json:"version,omitempty"`
	Trace          []models.LineTrace         `json:"trace,omitempty"`
}

// ExcelResponse is the JSON response from /api/excel/parse.
type ExcelResponse struct {
	Success bool `json:"success"`
	*excel.Result
}

// GroupResponse is the JSON response from /api/excel/group.
type GroupResponse struct {
	Success bool           `json:"success"`
	Column  string         `json:"column"`
	Bucket  string         `json:"bucket"`
	Groups  []models.Group `json:"groups"`
}

// Handler holds the HTTP handlers for the API. Handlers keep no state between
// requests; each upload is parsed in isolation.
type Handler struct {
	Log          zerolog.Logger
	DefaultBank  models.BankType
	ExportFormat string
	Version      string
}

// NewApp builds the fiber application with middleware and all routes.
func NewApp(h *Handler, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(fiberrecover.New())
	app.Use(cors.New())
	app.Use(h.requestContext)
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Post("/pdf/parse", h.HandleParsePDF)
	api.Post("/pdf/export", h.HandleExportPDF)
	api.Post("/excel/parse", h.HandleParseExcel)
	api.Post("/excel/group", h.HandleGroupExcel)
}

// requestContext tags each request with an id and a request-scoped logger.
func (h *Handler) requestContext(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)

	log := logger.WithFields(h.Log, map[string]interface{}{
		"request_id": id,
		"method":     c.Method(),
		"path":       c.Path(),
	})
	c.SetUserContext(logger.WithContext(c.UserContext(), log))

	start := time.Now()
	err := c.Next()
	log.Info().
		Int("status", c.Response().StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("request handled")
	return err
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": h.Version,
	})
}

func (h *Handler) HandleParsePDF(c *fiber.Ctx) error {
	stmt, status, err := h.parsePDF(c)
	if err != nil {
		return writeError(c, status, err.Error())
	}

	debit, credit := stmt.Totals()
	resp := PDFResponse{
		Success:        true,
		Bank:           string(stmt.Bank),
		Metadata:       stmt.Metadata.Ordered(),
		Transactions:   stmt.Transactions,
		Keywords:       stmt.Keywords.Sorted(),
		OpeningBalance: stmt.OpeningBalance,
		TotalDebit:     debit,
		TotalCredit:    credit,
		Count:          len(stmt.Transactions),
		Version:        h.Version,
		Trace:          stmt.Trace,
	}
	return c.JSON(resp)
}

func (h *Handler) HandleExportPDF(c *fiber.Ctx) error {
	format := c.Query("format", c.FormValue("format", h.ExportFormat))
	w, err := writer.New(format, c.FormValue("header") != "false")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	stmt, status, err := h.parsePDF(c)
	if err != nil {
		return writeError(c, status, err.Error())
	}

	var buf bytes.Buffer
	if err := w.Write(&buf, stmt); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Export failed: %v", err))
	}

	name := "transactions"
	if fh, err := c.FormFile("file"); err == nil {
		name = strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
	}
	c.Attachment(name + w.Ext())
	c.Set(fiber.HeaderContentType, w.ContentType())
	return c.Send(buf.Bytes())
}

func (h *Handler) HandleParseExcel(c *fiber.Ctx) error {
	res, status, err := h.locate(c)
	if err != nil {
		return writeError(c, status, err.Error())
	}
	return c.JSON(ExcelResponse{Success: true, Result: res})
}

func (h *Handler) HandleGroupExcel(c *fiber.Ctx) error {
	column := c.FormValue("column")
	if column == "" {
		return writeError(c, fiber.StatusBadRequest, "Form field 'column' is required.")
	}
	bucket := models.ParseDateBucket(c.FormValue("bucket"))

	res, status, err := h.locate(c)
	if err != nil {
		return writeError(c, status, err.Error())
	}

	groups, err := res.Data.GroupBy(column, bucket)
	if err != nil {
		if errors.Is(err, models.ErrColumnNotFound) {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(GroupResponse{
		Success: true,
		Column:  column,
		Bucket:  string(bucket),
		Groups:  groups,
	})
}

func (h *Handler) parsePDF(c *fiber.Ctx) (*models.Statement, int, error) {
	log := logger.FromContext(c.UserContext())

	src, err := readUpload(c)
	if err != nil {
		return nil, fiber.StatusBadRequest, err
	}
	if src.Ext() != ".pdf" {
		return nil, fiber.StatusBadRequest, errors.New("Only PDF files are supported.")
	}

	bank, err := parser.ParseBankType(c.FormValue("bank"))
	if err != nil {
		return nil, fiber.StatusBadRequest, err
	}
	if bank == "" {
		bank = h.DefaultBank
	}

	var opts []parser.Option
	if c.FormValue("debug") == "true" {
		opts = append(opts, parser.WithTrace())
	}

	stmt, err := parser.ParseStatement(src, bank, opts...)
	if err != nil {
		log.Warn().Err(err).Str("file", src.Name).Msg("PDF parse failed")
		if errors.Is(err, models.ErrSourceUnreadable) {
			return nil, fiber.StatusUnprocessableEntity, fmt.Errorf("PDF extraction failed: %w", err)
		}
		return nil, fiber.StatusBadRequest, err
	}

	log.Info().
		Str("file", src.Name).
		Str("bank", string(stmt.Bank)).
		Int("transactions", len(stmt.Transactions)).
		Bool("opening_balance", stmt.OpeningBalance != nil).
		Msg("statement parsed")
	return stmt, fiber.StatusOK, nil
}

func (h *Handler) locate(c *fiber.Ctx) (*excel.Result, int, error) {
	log := logger.FromContext(c.UserContext())

	src, err := readUpload(c)
	if err != nil {
		return nil, fiber.StatusBadRequest, err
	}

	res, err := excel.Locate(src)
	if err != nil {
		log.Warn().Err(err).Str("file", src.Name).Msg("workbook parse failed")
		if errors.Is(err, models.ErrSourceUnreadable) {
			return nil, fiber.StatusUnprocessableEntity, err
		}
		return nil, fiber.StatusInternalServerError, err
	}

	log.Info().
		Str("file", src.Name).
		Bool("header_found", res.HeaderFound).
		Int("header_row", res.HeaderRow).
		Int("metadata_rows", res.Metadata.Len()).
		Int("data_rows", res.Data.Len()).
		Msg("workbook located")
	return res, fiber.StatusOK, nil
}

// readUpload reads the multipart "file" field into memory.
func readUpload(c *fiber.Ctx) (source.Source, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return source.Source{}, errors.New("No file uploaded. Use form field 'file'.")
	}
	f, err := fh.Open()
	if err != nil {
		return source.Source{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return source.Source{}, fmt.Errorf("failed to read upload: %w", err)
	}
	return source.FromBytes(fh.Filename, data), nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return writeError(c, code, err.Error())
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   msg,
	})
}
