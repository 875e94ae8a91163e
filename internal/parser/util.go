package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-structurer/internal/models"
)

// parseAmount converts a string like "1,234.56" to a decimal. A bare "-" (or
// nothing) means no amount and parses as zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00A0", "") // non-breaking space

	if s == "" || s == "-" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// parseBalance parses a balance such as "5,432.10Cr". The Cr/Dr marker is
// returned separately; the amount itself is unsigned.
func parseBalance(s string) (decimal.Decimal, models.BalanceSide, error) {
	s = strings.TrimSpace(s)
	var side models.BalanceSide
	if n := len(s); n >= 2 {
		switch strings.ToUpper(s[n-2:]) {
		case "CR":
			side = models.SideCredit
			s = s[:n-2]
		case "DR":
			side = models.SideDebit
			s = s[:n-2]
		}
	}
	amount, err := parseAmount(s)
	if err != nil {
		return decimal.Zero, "", err
	}
	return amount, side, nil
}

func containsAny(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, needle := range needles {
		if needle != "" && strings.Contains(lower, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}
