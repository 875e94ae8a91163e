package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-structurer/internal/extractor"
	"github.com/insightdelivered/statement-structurer/internal/models"
	"github.com/insightdelivered/statement-structurer/internal/source"
)

// Parser defines the interface for bank statement parsers.
type Parser interface {
	// Parse takes the text of each PDF page and returns structured statement data.
	Parse(pages []string) (*models.Statement, error)
	// BankName returns the human-readable bank name.
	BankName() string
}

// Option tweaks a parser built by New.
type Option func(*options)

type options struct {
	trace bool
}

// WithTrace records what the parser did with every line in Statement.Trace.
func WithTrace() Option {
	return func(o *options) { o.trace = true }
}

// New returns the appropriate parser for the given bank type.
func New(bankType models.BankType, opts ...Option) (Parser, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch bankType {
	case models.BankCentral:
		return &CentralBankParser{trace: o.trace}, nil
	default:
		return nil, fmt.Errorf("unsupported bank type: %q", bankType)
	}
}

// ParseBankType maps a user-supplied bank name to a BankType. Empty input means
// auto-detect and returns "".
func ParseBankType(name string) (models.BankType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return "", nil
	case "central", "centralbank", "cbi":
		return models.BankCentral, nil
	default:
		return "", fmt.Errorf("unknown bank type %q; supported: central", name)
	}
}

// AutoDetect tries to identify the bank from the PDF text content.
func AutoDetect(pages []string) (models.BankType, error) {
	for _, p := range pages {
		if containsAny(p, []string{"CENTRAL BANK OF INDIA", "centralbank.co.in", "centralbankofindia"}) {
			return models.BankCentral, nil
		}
	}
	return "", fmt.Errorf("could not auto-detect bank from statement content; please specify --bank flag")
}

// ParseStatement extracts the pages of src and parses them. An empty bank means
// auto-detect, falling back to the Central Bank of India layout.
func ParseStatement(src source.Source, bank models.BankType, opts ...Option) (*models.Statement, error) {
	pages, err := extractor.ExtractPages(src)
	if err != nil {
		return nil, err
	}

	if bank == "" {
		bank = models.BankCentral
		if detected, err := AutoDetect(pages); err == nil {
			bank = detected
		}
	}

	p, err := New(bank, opts...)
	if err != nil {
		return nil, err
	}
	return p.Parse(pages)
}
