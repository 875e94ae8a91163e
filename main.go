package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-structurer/internal/api"
	"github.com/insightdelivered/statement-structurer/internal/config"
	"github.com/insightdelivered/statement-structurer/internal/excel"
	"github.com/insightdelivered/statement-structurer/internal/logger"
	"github.com/insightdelivered/statement-structurer/internal/models"
	"github.com/insightdelivered/statement-structurer/internal/parser"
	"github.com/insightdelivered/statement-structurer/internal/source"
	"github.com/insightdelivered/statement-structurer/internal/writer"
)

const version = "1.0.0"

type options struct {
	bank          models.BankType
	format        string
	output        string
	includeHeader bool
	groupBy       string
	bucket        models.DateBucket
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("Invalid configuration: %v\n", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	// CLI flags
	bankFlag := flag.String("bank", cfg.Parse.DefaultBank, "Bank type for PDF statements: central (auto-detected if omitted)")
	formatFlag := flag.String("format", cfg.Parse.ExportFormat, "Output format: csv or xlsx")
	outputFlag := flag.String("output", "", "Output file path (defaults to input filename with the format's extension)")
	headerFlag := flag.Bool("header", true, "Include account metadata in the PDF export")
	groupByFlag := flag.String("group-by", "", "Spreadsheets only: print row counts per value of this data column")
	bucketFlag := flag.String("bucket", "timestamp", "Date bucket for --group-by on a datetime column: timestamp, date, month, year")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of converting files")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Statement Structurer
by Insight Delivered (QEA AutoLens)

Turns bank statement exports into structured data:
  - Excel workbooks (.xlsx, .xls): locates the transaction table below any
    preamble and splits it into a metadata block and a data block.
  - Central Bank of India PDF statements: extracts account metadata and
    transactions with debit/credit inferred from the running balance.

Usage:
  statement-structurer [flags] <input> [input2 ...]
  statement-structurer --serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert a PDF statement to CSV
  statement-structurer statement.pdf

  # Export to a workbook with Transactions and Metadata sheets
  statement-structurer --format=xlsx statement.pdf

  # Extract the data block of a workbook and count rows per month
  statement-structurer --group-by="Txn Date" --bucket=month export.xlsx

  # Start the HTTP API on SERVER_HOST:SERVER_PORT
  statement-structurer --serve

Environment:
  SERVER_HOST, SERVER_PORT, UPLOAD_LIMIT_MB, LOG_LEVEL, LOG_FORMAT,
  DEFAULT_BANK, EXPORT_FORMAT (read from .env when present)
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-structurer v%s\n", version)
		os.Exit(0)
	}

	if *serveFlag {
		serve(cfg, log)
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	bankType, err := parser.ParseBankType(*bankFlag)
	if err != nil {
		fatalf("%v\n", err)
	}
	if _, err := writer.New(*formatFlag, false); err != nil {
		fatalf("%v\n", err)
	}

	format := strings.ToLower(strings.TrimSpace(*formatFlag))
	if format == "excel" {
		format = "xlsx"
	}

	opts := options{
		bank:          bankType,
		format:        format,
		output:        *outputFlag,
		includeHeader: *headerFlag,
		groupBy:       *groupByFlag,
		bucket:        models.ParseDateBucket(*bucketFlag),
	}
	if opts.output != "" && flag.NArg() > 1 {
		fatalf("--output can only be used with a single input file\n")
	}

	for _, inputPath := range flag.Args() {
		if err := processFile(inputPath, opts, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func serve(cfg *config.Config, log zerolog.Logger) {
	bank, err := parser.ParseBankType(cfg.Parse.DefaultBank)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DEFAULT_BANK")
	}
	h := &api.Handler{
		Log:          log,
		DefaultBank:  bank,
		ExportFormat: cfg.Parse.ExportFormat,
		Version:      version,
	}

	app := api.NewApp(h, cfg.Server.UploadLimitBytes())
	addr := cfg.Server.Addr()
	log.Info().Str("addr", addr).Str("version", version).Msg("starting server")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func processFile(inputPath string, opts options, log zerolog.Logger) error {
	// Validate input file
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	src := source.FromPath(inputPath)
	fmt.Printf("Processing: %s\n", inputPath)

	switch src.Ext() {
	case ".pdf":
		return processStatement(src, opts, log)
	case ".xlsx", ".xlsm", ".xls":
		return processWorkbook(src, opts, log)
	default:
		return fmt.Errorf("expected .pdf, .xlsx or .xls file, got %q", src.Ext())
	}
}

func processStatement(src source.Source, opts options, log zerolog.Logger) error {
	stmt, err := parser.ParseStatement(src, opts.bank)
	if err != nil {
		if errors.Is(err, models.ErrSourceUnreadable) {
			return fmt.Errorf("PDF extraction failed: %w", err)
		}
		return fmt.Errorf("parsing failed: %w", err)
	}

	fmt.Printf("  Found %d transaction(s)\n", len(stmt.Transactions))
	if len(stmt.Transactions) == 0 {
		fmt.Println("  Warning: No transactions found. The PDF layout may not match a Central Bank of India statement.")
	}

	w, err := writer.New(opts.format, opts.includeHeader)
	if err != nil {
		return err
	}
	outPath := outputPath(src.Path, opts.output, w.Ext())
	if err := writer.WriteToFile(w, outPath, stmt); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Printf("  Output: %s\n", outPath)

	// Print summary
	md := stmt.Metadata
	if v := md[models.FieldCustomerName]; v != "" {
		fmt.Printf("  Customer: %s\n", v)
	}
	if v := md[models.FieldAccountNumber]; v != "" {
		fmt.Printf("  Account number: %s\n", v)
	}
	if v := md[models.FieldStatementPeriod]; v != "" {
		fmt.Printf("  Period: %s\n", v)
	}
	if ob := stmt.OpeningBalance; ob != nil {
		fmt.Printf("  Opening balance: %s %s\n", ob.Amount.StringFixed(2), ob.Side)
	}
	debit, credit := stmt.Totals()
	fmt.Printf("  Total debit: %s  Total credit: %s\n", debit.StringFixed(2), credit.StringFixed(2))
	if top := stmt.Keywords.Sorted(); len(top) > 0 {
		fmt.Printf("  Most frequent: %s (%d)\n", top[0].Keyword, top[0].Count)
	}

	log.Debug().
		Str("file", src.Name).
		Int("transactions", len(stmt.Transactions)).
		Msg("statement converted")
	fmt.Println("  Done.")
	return nil
}

func processWorkbook(src source.Source, opts options, log zerolog.Logger) error {
	res, err := excel.Locate(src)
	if err != nil {
		return err
	}

	if res.HeaderFound {
		fmt.Printf("  Header row: %d\n", res.HeaderRow+1)
	} else {
		fmt.Println("  Warning: No header row found; using the whole sheet as data.")
	}
	fmt.Printf("  Metadata rows: %d, data rows: %d\n", res.Metadata.Len(), res.Data.Len())

	outPath := outputPath(src.Path, opts.output, "."+opts.format)
	if outPath == src.Path {
		outPath = strings.TrimSuffix(src.Path, filepath.Ext(src.Path)) + "_data." + opts.format
	}
	if err := writeTable(outPath, opts.format, res.Data); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Printf("  Output: %s\n", outPath)

	if opts.groupBy != "" {
		groups, err := res.Data.GroupBy(opts.groupBy, opts.bucket)
		if err != nil {
			return err
		}
		fmt.Printf("  Rows per %s:\n", opts.groupBy)
		for _, g := range groups {
			fmt.Printf("    %s: %d\n", g.Key, g.Count)
		}
	}

	log.Debug().
		Str("file", src.Name).
		Bool("header_found", res.HeaderFound).
		Msg("workbook located")
	fmt.Println("  Done.")
	return nil
}

func writeTable(path, format string, t *models.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	if format == "xlsx" {
		err = writer.WriteTableXLSX(f, t)
	} else {
		err = writer.WriteTableCSV(f, t)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func outputPath(inputPath, explicit, ext string) string {
	if explicit != "" {
		return explicit
	}
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ext
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
