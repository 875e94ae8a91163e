package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/insightdelivered/statement-structurer/internal/extractor"
	"github.com/insightdelivered/statement-structurer/internal/models"
)

const centralBankName = "CENTRAL BANK OF INDIA"

// A transaction row starts with value date and post date.
var txnStartPattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{2}\s+\d{2}/\d{2}/\d{2}`)

// metadataRegion is the header text of a statement: the first page's lines up
// to the first transaction row.
type metadataRegion struct {
	lines []string
	text  string
}

func newMetadataRegion(pages []string) metadataRegion {
	var region metadataRegion
	for _, page := range pages {
		lines := extractor.SplitLines(page)
		if len(lines) == 0 {
			continue
		}
		for _, line := range lines {
			if txnStartPattern.MatchString(line) {
				break
			}
			region.lines = append(region.lines, line)
		}
		break
	}
	region.text = strings.Join(region.lines, "\n")
	return region
}

type metadataRule struct {
	field   string
	extract func(metadataRegion) string
}

var metadataRules = []metadataRule{
	{models.FieldBank, func(metadataRegion) string { return centralBankName }},
	{models.FieldBranch, firstLine(func(l string) bool {
		return strings.Contains(l, "ROAD") && strings.Contains(l, "EXTN")
	})},
	{models.FieldBranchEmail, labeled(`Branch E-mail\s*:\s*(\S+)`)},
	{models.FieldBranchCode, labeled(`Branch Code\s*:\s*(\d+)`)},
	{models.FieldAccountNumber, labeled(`Account No.\s*:\s*(\d+)`)},
	{models.FieldCurrency, labeled(`Currency\s*:\s*(\w+)`)},
	{models.FieldProduct, labeled(`Product\s*:\s*(.*)`)},
	{models.FieldNomination, labeled(`Nomination\s*:\s*(\w+)`)},
	{models.FieldStatementDate, labeled(`Date\s*:\s*(\d{2}/\d{2}/\d{4})`)},
	{models.FieldStatementTime, labeled(`Time\s*:\s*(\d{2}:\d{2}:\d{2})`)},
	{models.FieldEmail, customerEmail},
	{models.FieldStatementPeriod, statementPeriod},
	{models.FieldCustomerName, firstLine(func(l string) bool {
		return isUpperLine(l) && !strings.Contains(l, ":") && !strings.Contains(l, "CENTRAL BANK")
	})},
	{models.FieldAddress, address},
}

// extractMetadata evaluates every rule against the region. Fields without a
// match stay "".
func extractMetadata(region metadataRegion) models.AccountMetadata {
	md := models.NewAccountMetadata()
	for _, rule := range metadataRules {
		md[rule.field] = rule.extract(region)
	}
	return md
}

// labeled builds an extractor returning the first capture group, trimmed.
func labeled(pattern string) func(metadataRegion) string {
	re := regexp.MustCompile(pattern)
	return func(r metadataRegion) string {
		if m := re.FindStringSubmatch(r.text); m != nil {
			return strings.TrimSpace(m[1])
		}
		return ""
	}
}

func firstLine(match func(string) bool) func(metadataRegion) string {
	return func(r metadataRegion) string {
		for _, l := range r.lines {
			if match(l) {
				return l
			}
		}
		return ""
	}
}

var emailPattern = regexp.MustCompile(`E-mail\s*:\s*(\S+)`)

// customerEmail skips the branch's own "Branch E-mail" label, so a statement
// that only prints the branch address has no customer email.
func customerEmail(r metadataRegion) string {
	for _, m := range emailPattern.FindAllStringSubmatchIndex(r.text, -1) {
		if strings.HasSuffix(strings.TrimRight(r.text[:m[0]], " \t"), "Branch") {
			continue
		}
		return r.text[m[2]:m[3]]
	}
	return ""
}

var periodPattern = regexp.MustCompile(`Statement From\s+(\d{2}/\d{2}/\d{4})\s+to\s+(\d{2}/\d{2}/\d{4})`)

func statementPeriod(r metadataRegion) string {
	m := periodPattern.FindStringSubmatch(r.text)
	if m == nil {
		return ""
	}
	return m[1] + " to " + m[2]
}

// address joins the lines before "Account No." that look like address lines.
func address(r metadataRegion) string {
	var parts []string
	for _, l := range r.lines {
		if strings.Contains(l, "Account No.") {
			break
		}
		if strings.ContainsAny(l, "0123456789") || strings.Contains(l, "ROAD") || strings.Contains(l, "BANGALORE") {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, ", ")
}

// isUpperLine reports whether l has at least one cased letter and no lower-case
// ones.
func isUpperLine(l string) bool {
	cased := false
	for _, r := range l {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
