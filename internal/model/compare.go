package model

// ResolvedAmount is the single accepted answer for one (insurer, coverage)
// cell. Absence means no evidence cleared the acceptance bar. Every resolved
// amount traces to exactly one source document.
type ResolvedAmount struct {
	Value            *int64     `json:"amount_value"`
	Text             string     `json:"amount_text,omitempty"`
	Unit             Unit       `json:"unit,omitempty"`
	Confidence       Confidence `json:"confidence"`
	SourceDocType    DocType    `json:"source_doc_type"`
	SourceDocumentID string     `json:"source_document_id"`
}

// InsurerCompareCell aggregates evidence and the resolved amount for one
// insurer within a coverage row.
type InsurerCompareCell struct {
	InsurerCode    string          `json:"insurer_code"`
	DocTypeCounts  map[DocType]int `json:"doc_type_counts"`
	BestEvidence   []Evidence      `json:"best_evidence"`
	ResolvedAmount *ResolvedAmount `json:"resolved_amount,omitempty"`
	LLM            *LLMTrace       `json:"llm,omitempty"`
}

// CoverageCompareRow is one coverage's cells, ordered to match the request's
// insurer order.
type CoverageCompareRow struct {
	CoverageCode string               `json:"coverage_code"`
	CoverageName string               `json:"coverage_name,omitempty"`
	Insurers     []InsurerCompareCell `json:"insurers"`
}

// AxisGroup is one retrieval cell on either axis: compare cells key on a
// coverage code, policy cells key on a keyword.
type AxisGroup struct {
	InsurerCode  string     `json:"insurer_code"`
	CoverageCode string     `json:"coverage_code,omitempty"`
	Keyword      string     `json:"keyword,omitempty"`
	Evidence     []Evidence `json:"evidence"`
}

// DiffEntry summarizes how one coverage's resolved amounts differ across
// insurers. Purely factual; no ranking of which insurer is better.
type DiffEntry struct {
	CoverageCode string            `json:"coverage_code"`
	CoverageName string            `json:"coverage_name,omitempty"`
	Amounts      map[string]*int64 `json:"amounts"`
	Differs      bool              `json:"differs"`
}

// PlanFilter narrows visible documents by product, gender and age.
type PlanFilter struct {
	ProductCode string `json:"product_code"`
	Gender      string `json:"gender,omitempty"`
	Age         int    `json:"age,omitempty"`
}

// CompareRequest is the /compare request body.
type CompareRequest struct {
	Insurers        []string    `json:"insurers"`
	Query           string      `json:"query"`
	CoverageCodes   []string    `json:"coverage_codes,omitempty"`
	TopKPerInsurer  int         `json:"top_k_per_insurer,omitempty"`
	CompareDocTypes []DocType   `json:"compare_doc_types,omitempty"`
	PolicyDocTypes  []DocType   `json:"policy_doc_types,omitempty"`
	PolicyKeywords  []string    `json:"policy_keywords,omitempty"`
	Plan            *PlanFilter `json:"plan,omitempty"`
	SessionID       string      `json:"session_id,omitempty"`
}

// RecommendedCoverage is one auto-recommended coverage code with the alias
// evidence that suggested it.
type RecommendedCoverage struct {
	InsurerCode  string `json:"insurer_code"`
	CoverageCode string `json:"coverage_code"`
	CoverageName string `json:"coverage_name,omitempty"`
	AliasHit     string `json:"alias_hit,omitempty"`
}

// DebugInfo carries resolution provenance and timing for one request.
type DebugInfo struct {
	ResolvedCoverageCodes      []string              `json:"resolved_coverage_codes"`
	ResolvedPolicyKeywords     []string              `json:"resolved_policy_keywords"`
	RecommendedCoverageCodes   []string              `json:"recommended_coverage_codes"`
	RecommendedCoverageDetails []RecommendedCoverage `json:"recommended_coverage_details"`
	TimingMS                   map[string]int64      `json:"timing_ms"`
}

// CompareResult is the full /compare response.
type CompareResult struct {
	RequestID   string               `json:"request_id"`
	CompareAxis []AxisGroup          `json:"compare_axis"`
	PolicyAxis  []AxisGroup          `json:"policy_axis"`
	Rows        []CoverageCompareRow `json:"coverage_compare_result"`
	DiffSummary []DiffEntry          `json:"diff_summary"`
	Debug       DebugInfo            `json:"debug"`
}
