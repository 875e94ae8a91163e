package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-structurer/internal/extractor"
	"github.com/insightdelivered/statement-structurer/internal/models"
)

// CentralBankParser handles Central Bank of India account statement PDFs.
//
// Transaction rows look like:
//
//	VALUE-DATE POST-DATE DETAILS . CHQ.NO AMOUNT BALANCE
//	05/03/24 05/03/24 NEFT SALARY ACME CORP . - 200.00 1,200.00Cr
//
// AMOUNT is unsigned; whether it is a debit or a credit follows from the
// movement of the running balance. Lines starting with ". ." continue the
// previous transaction's narration.
type CentralBankParser struct {
	trace bool
}

func (p *CentralBankParser) BankName() string {
	return "Central Bank of India"
}

var (
	centralTxnPattern = regexp.MustCompile(
		`^(\d{2}/\d{2}/\d{2})\s+(\d{2}/\d{2}/\d{2})\s+(.*?)\s+\.\s+(.*?)` +
			`\s+([\d,]+\.\d{2}|-)\s+([\d,]+\.\d{2}Cr)$`,
	)
	broughtForwardPattern = regexp.MustCompile(`(?i)([\d,]+\.\d{2})\s*(Cr|Dr)`)
	shortKeyPattern       = regexp.MustCompile(`^([A-Z.\s]+)`)
)

const continuationPrefix = ". ."

func (p *CentralBankParser) Parse(pages []string) (*models.Statement, error) {
	stmt := &models.Statement{
		Bank:     models.BankCentral,
		Metadata: extractMetadata(newMetadataRegion(pages)),
	}

	state := newScanState()
	for pageIdx, page := range pages {
		for lineIdx, line := range extractor.SplitLines(page) {
			outcome := state.step(line)
			if p.trace {
				stmt.Trace = append(stmt.Trace, models.LineTrace{
					Page:    pageIdx + 1,
					LineNum: lineIdx + 1,
					Text:    line,
					Outcome: outcome,
				})
			}
		}
	}

	stmt.Transactions = state.records
	stmt.Keywords = state.keywords
	stmt.OpeningBalance = state.opening
	return stmt, nil
}

// scanState is threaded through every line of the statement in order.
type scanState struct {
	opening     *models.OpeningBalance
	cursor      int // record that continuation lines extend; -1 before the first
	lastBalance decimal.NullDecimal
	records     []models.TransactionRecord
	keywords    *models.KeywordFrequency
}

func newScanState() *scanState {
	return &scanState{
		cursor:   -1,
		records:  []models.TransactionRecord{},
		keywords: models.NewKeywordFrequency(),
	}
}

// step applies one trimmed line to the state and reports what it was.
func (s *scanState) step(line string) models.LineOutcome {
	if s.opening == nil && strings.Contains(strings.ToUpper(line), "BROUGHT FORWARD") {
		if m := broughtForwardPattern.FindStringSubmatch(line); m != nil {
			if amount, side, err := parseBalance(m[1] + m[2]); err == nil {
				s.opening = &models.OpeningBalance{Amount: amount, Side: side}
				return models.LineOpeningBalance
			}
		}
		return models.LineIgnored
	}

	if m := centralTxnPattern.FindStringSubmatch(line); m != nil {
		if s.appendTransaction(m) {
			return models.LineTransaction
		}
		return models.LineIgnored
	}

	if strings.HasPrefix(line, continuationPrefix) && s.cursor >= 0 {
		extra := strings.TrimSpace(strings.ReplaceAll(line, continuationPrefix, ""))
		extra = strings.TrimSpace(strings.Trim(extra, "."))
		if extra != "" {
			rec := &s.records[s.cursor]
			if rec.MoreInfo == "" {
				rec.MoreInfo = extra
			} else {
				rec.MoreInfo += " " + extra
			}
		}
		return models.LineContinuation
	}

	return models.LineIgnored
}

func (s *scanState) appendTransaction(m []string) bool {
	amount, err := parseAmount(m[5])
	if err != nil {
		return false
	}
	balance, _, err := parseBalance(m[6])
	if err != nil {
		return false
	}

	details := strings.TrimSpace(m[3])
	chq := strings.TrimSpace(m[4])
	if chq == "-" {
		chq = ""
	}

	rec := models.TransactionRecord{
		ValueDate:    m[1],
		PostDate:     m[2],
		Details:      details,
		ChequeNumber: chq,
		Balance:      balance,
	}
	if s.lastBalance.Valid {
		switch balance.Cmp(s.lastBalance.Decimal) {
		case 1:
			rec.Credit = decimal.NewNullDecimal(amount)
		case -1:
			rec.Debit = decimal.NewNullDecimal(amount)
		}
	}
	s.lastBalance = decimal.NewNullDecimal(balance)

	s.keywords.Add(shortKey(details))
	s.records = append(s.records, rec)
	s.cursor = len(s.records) - 1
	return true
}

// shortKey is the leading run of upper-case letters, periods and spaces of a
// description, used to group similar transactions.
func shortKey(details string) string {
	m := shortKeyPattern.FindStringSubmatch(details)
	if m == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(m[1]))
}
