package model

// LLM refinement outcomes recorded per cell.
const (
	LLMOutcomeUpgraded  = "upgraded"
	LLMOutcomeDiscarded = "discarded"
	LLMOutcomeSkipped   = "skipped"
	LLMOutcomeError     = "error"
)

// Skip/discard reasons. Recorded for auditability; never consumed by
// business logic beyond gating.
const (
	LLMReasonAmountExists  = "amount_exists"
	LLMReasonNoEnrollment  = "no_enrollment_evidence"
	LLMReasonAlreadyHigh   = "already_high"
	LLMReasonNoIntent      = "no_amount_intent"
	LLMReasonMaxCalls      = "max_calls"
	LLMReasonDisabled      = "disabled"
	LLMReasonTimeout       = "timeout"
	LLMReasonProviderError = "provider_error"
	LLMReasonHallucination = "hallucination"
	LLMReasonPremiumLabel  = "premium_amount"
	LLMReasonUnknownLabel  = "unknown_label"
	LLMReasonLowConfidence = "low_confidence"
	LLMReasonBadResponse   = "unparseable_response"
)

// LLMCallMetrics records latency and retry behavior of one external call.
type LLMCallMetrics struct {
	LatencyMS int64  `json:"latency_ms"`
	Retries   int    `json:"retries"`
	Success   bool   `json:"success"`
	Model     string `json:"model,omitempty"`
}

// LLMTrace is the per-cell audit record of the refinement gate decision.
type LLMTrace struct {
	Called  bool            `json:"llm_used"`
	Outcome string          `json:"outcome"`
	Reason  string          `json:"reason,omitempty"`
	Metrics *LLMCallMetrics `json:"metrics,omitempty"`
}
