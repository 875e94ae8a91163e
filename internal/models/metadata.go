package models

import "sort"

// Account metadata field names, in display order.
const (
	FieldBank            = "Bank"
	FieldBranch          = "Branch"
	FieldBranchEmail     = "Branch Email"
	FieldBranchCode      = "Branch Code"
	FieldAccountNumber   = "Account Number"
	FieldCurrency        = "Currency"
	FieldProduct         = "Product"
	FieldNomination      = "Nomination"
	FieldStatementDate   = "Statement Date"
	FieldStatementTime   = "Statement Time"
	FieldEmail           = "Email"
	FieldStatementPeriod = "Statement Period"
	FieldCustomerName    = "Customer Name"
	FieldAddress         = "Address"
)

// MetadataFields lists every key an AccountMetadata always carries.
var MetadataFields = []string{
	FieldBank,
	FieldBranch,
	FieldBranchEmail,
	FieldBranchCode,
	FieldAccountNumber,
	FieldCurrency,
	FieldProduct,
	FieldNomination,
	FieldStatementDate,
	FieldStatementTime,
	FieldEmail,
	FieldStatementPeriod,
	FieldCustomerName,
	FieldAddress,
}

// AccountMetadata maps field names to extracted values. Unmatched fields hold "".
type AccountMetadata map[string]string

// NewAccountMetadata returns metadata with every field present and empty.
func NewAccountMetadata() AccountMetadata {
	md := make(AccountMetadata, len(MetadataFields))
	for _, f := range MetadataFields {
		md[f] = ""
	}
	return md
}

// MetadataField is one field/value pair.
type MetadataField struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Ordered returns the fields in MetadataFields order.
func (md AccountMetadata) Ordered() []MetadataField {
	out := make([]MetadataField, 0, len(MetadataFields))
	for _, f := range MetadataFields {
		out = append(out, MetadataField{Field: f, Value: md[f]})
	}
	return out
}

// KeywordCount is one entry of a KeywordFrequency.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// KeywordFrequency counts description keys, remembering first-seen order.
type KeywordFrequency struct {
	order  []string
	counts map[string]int
}

func NewKeywordFrequency() *KeywordFrequency {
	return &KeywordFrequency{counts: make(map[string]int)}
}

// Add records one occurrence of key.
func (kf *KeywordFrequency) Add(key string) {
	if _, ok := kf.counts[key]; !ok {
		kf.order = append(kf.order, key)
	}
	kf.counts[key]++
}

// Count returns how often key was seen.
func (kf *KeywordFrequency) Count(key string) int {
	return kf.counts[key]
}

// Len returns the number of distinct keys.
func (kf *KeywordFrequency) Len() int {
	return len(kf.order)
}

// Keys returns the distinct keys in first-seen order.
func (kf *KeywordFrequency) Keys() []string {
	return append([]string(nil), kf.order...)
}

// Sorted returns the counts ordered by frequency, ties kept in first-seen order.
func (kf *KeywordFrequency) Sorted() []KeywordCount {
	out := make([]KeywordCount, 0, len(kf.order))
	for _, k := range kf.order {
		out = append(out, KeywordCount{Keyword: k, Count: kf.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
