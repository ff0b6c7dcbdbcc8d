package model

// MatchSource identifies which tier of the coverage resolver produced a match.
type MatchSource string

const (
	MatchSourceMapping          MatchSource = "mapping"
	MatchSourceClauseHeader     MatchSource = "clause_header"
	MatchSourceFallbackRemap    MatchSource = "fallback_remap"
	MatchSourceFallbackUnmapped MatchSource = "fallback_unmapped"
)

// CoverageMatch is the result of resolving free text to a coverage code.
// Code is empty for fallback_unmapped matches: the canonical code space never
// contains unverified values, so an ontology hit without a canonical remap
// stays codeless on purpose.
type CoverageMatch struct {
	Code         string      `json:"code,omitempty"`
	Name         string      `json:"name,omitempty"`
	AliasHit     string      `json:"alias_hit,omitempty"`
	Position     int         `json:"position"`
	MatchSource  MatchSource `json:"match_source"`
	OntologyCode string      `json:"ontology_code,omitempty"`
	TagSource    string      `json:"tag_source,omitempty"`
	Confidence   Confidence  `json:"confidence"`
}

// CoverageAlias maps a raw coverage name to a canonical code for one insurer.
type CoverageAlias struct {
	ID            string  `json:"id,omitempty"`
	InsurerCode   string  `json:"insurer_code"`
	Alias         string  `json:"alias"`
	CoverageCode  string  `json:"coverage_code"`
	CoverageName  string  `json:"coverage_name"`
	SourceDocType DocType `json:"source_doc_type,omitempty"`
}

// CanonicalCoverage is one entry in the canonical coverage table, carrying
// the ontology codes that remap onto it.
type CanonicalCoverage struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Domain        string   `json:"domain,omitempty"`
	OntologyCodes []string `json:"ontology_codes,omitempty"`
}

// Plan narrows which documents are visible for a product given gender/age.
type Plan struct {
	ID          string   `json:"id,omitempty"`
	ProductCode string   `json:"product_code"`
	InsurerCode string   `json:"insurer_code"`
	Gender      string   `json:"gender"`
	AgeMin      int      `json:"age_min"`
	AgeMax      int      `json:"age_max"`
	DocumentIDs []string `json:"document_ids"`
}
