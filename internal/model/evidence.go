package model

// DocType identifies the source document category of an evidence chunk.
type DocType string

// Known document types. Enrollment, summary and business-method documents
// feed the compare axis; policy text feeds the policy axis only.
const (
	DocTypeEnrollment DocType = "가입설계서"
	DocTypeSummary    DocType = "상품요약서"
	DocTypeMethod     DocType = "사업방법서"
	DocTypePolicy     DocType = "약관"
)

// DefaultCompareDocTypes returns the doc types eligible for the compare axis.
func DefaultCompareDocTypes() []DocType {
	return []DocType{DocTypeEnrollment, DocTypeSummary, DocTypeMethod}
}

// DefaultPolicyDocTypes returns the doc types eligible for the policy axis.
func DefaultPolicyDocTypes() []DocType {
	return []DocType{DocTypePolicy}
}

// Valid reports whether d is a known document type.
func (d DocType) Valid() bool {
	switch d {
	case DocTypeEnrollment, DocTypeSummary, DocTypeMethod, DocTypePolicy:
		return true
	}
	return false
}

// Confidence grades how trustworthy an extracted or matched value is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank returns an ordinal for comparing confidence levels (higher is better).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Unit is the Korean monetary unit an amount was written in. It is
// provenance only; AmountInfo.Value is always base KRW.
type Unit string

const (
	UnitWon      Unit = "원"
	UnitManwon   Unit = "만원"
	UnitCheonman Unit = "천만원"
	UnitEokwon   Unit = "억원"
)

// Multiplier returns the KRW factor for the unit, or 0 for an unknown unit.
func (u Unit) Multiplier() int64 {
	switch u {
	case UnitWon:
		return 1
	case UnitManwon:
		return 10_000
	case UnitCheonman:
		return 10_000_000
	case UnitEokwon:
		return 100_000_000
	default:
		return 0
	}
}

// AmountInfo is the monetary amount extracted from one evidence chunk.
// Value is nil when no amount cleared the extraction rules; the extractor
// never guesses a bare number without a unit.
type AmountInfo struct {
	Value      *int64     `json:"amount_value,omitempty"`
	Text       string     `json:"amount_text,omitempty"`
	Unit       Unit       `json:"unit,omitempty"`
	Confidence Confidence `json:"confidence"`
	Method     string     `json:"method,omitempty"`
}

// ConditionInfo is the payment-condition sentence extracted from one chunk.
type ConditionInfo struct {
	Snippet      string   `json:"snippet,omitempty"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
}

// Evidence is one retrieved text chunk with its document provenance.
// Immutable once produced by retrieval.
type Evidence struct {
	DocumentID   string         `json:"document_id"`
	InsurerCode  string         `json:"insurer_code"`
	DocType      DocType        `json:"doc_type"`
	PageStart    int            `json:"page_start"`
	Preview      string         `json:"preview"`
	Score        float64        `json:"relevance_score"`
	CoverageCode string         `json:"coverage_code,omitempty"`
	Amount       *AmountInfo    `json:"amount,omitempty"`
	Condition    *ConditionInfo `json:"condition,omitempty"`

	// Text is the full chunk content; kept out of JSON responses.
	Text string `json:"-"`
	// Rank is the retrieval position within its cell (0 = best).
	Rank int `json:"-"`
}
