package models

import (
	"github.com/shopspring/decimal"
)

// TransactionRecord represents a single statement row and its continuation lines.
type TransactionRecord struct {
	ValueDate    string              `json:"valueDate"`
	PostDate     string              `json:"postDate"`
	Details      string              `json:"details"`
	ChequeNumber string              `json:"chequeNumber"`
	Debit        decimal.NullDecimal `json:"debit"`  // set only when the balance went down
	Credit       decimal.NullDecimal `json:"credit"` // set only when the balance went up
	Balance      decimal.Decimal     `json:"balance"`
	MoreInfo     string              `json:"moreInfo"`
}

// BankType represents supported PDF statement layouts.
type BankType string

const (
	BankCentral BankType = "central"
)

// BalanceSide is the Cr/Dr marker printed after a balance.
type BalanceSide string

const (
	SideCredit BalanceSide = "Cr"
	SideDebit  BalanceSide = "Dr"
)

// OpeningBalance is the balance carried in by the "brought forward" line.
type OpeningBalance struct {
	Amount decimal.Decimal `json:"amount"`
	Side   BalanceSide     `json:"side"`
}

// LineOutcome describes what the statement scan did with a line.
type LineOutcome string

const (
	LineOpeningBalance LineOutcome = "opening-balance"
	LineTransaction    LineOutcome = "transaction"
	LineContinuation   LineOutcome = "continuation"
	LineIgnored        LineOutcome = "ignored"
)

// LineTrace captures what the parser did with each input line.
type LineTrace struct {
	Page    int         `json:"page"`
	LineNum int         `json:"lineNum"`
	Text    string      `json:"text"`
	Outcome LineOutcome `json:"outcome"`
}

// Statement holds everything extracted from one PDF statement.
type Statement struct {
	Bank           BankType
	Metadata       AccountMetadata
	Transactions   []TransactionRecord
	Keywords       *KeywordFrequency
	OpeningBalance *OpeningBalance
	Trace          []LineTrace
}

// Totals sums the debit and credit columns.
func (s *Statement) Totals() (debit, credit decimal.Decimal) {
	for _, txn := range s.Transactions {
		if txn.Debit.Valid {
			debit = debit.Add(txn.Debit.Decimal)
		}
		if txn.Credit.Valid {
			credit = credit.Add(txn.Credit.Decimal)
		}
	}
	return debit, credit
}
