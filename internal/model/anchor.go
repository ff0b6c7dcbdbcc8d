package model

// QueryClass classifies how a conversational query relates to prior context.
type QueryClass string

const (
	// QueryClassNew means the query carries (or lacks) its own coverage
	// context and does not reuse a prior anchor's coverage.
	QueryClassNew QueryClass = "new"
	// QueryClassInsurerOnly means the query names insurers but no coverage;
	// the prior anchor's coverage is reused with the insurer list replaced.
	QueryClassInsurerOnly QueryClass = "insurer_only"
)

// QueryAnchor is the coverage/domain context carried across a session.
type QueryAnchor struct {
	CoverageCode  string `json:"coverage_code"`
	CoverageName  string `json:"coverage_name,omitempty"`
	Domain        string `json:"domain,omitempty"`
	OriginalQuery string `json:"original_query"`
}
