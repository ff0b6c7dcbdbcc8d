// Package refine escalates unresolved cells to an external model under
// strict guardrails: eligibility gating, a request-scoped call budget, and
// span verification against the source chunk.
package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/planlens/compare-cli/internal/config"
	"github.com/planlens/compare-cli/internal/model"
	"github.com/planlens/compare-cli/internal/resilience"
	"github.com/planlens/compare-cli/pkg/anthropic"
)

// amountIntentKeywords gate refinement on the query actually asking about
// money; condition-only queries never trigger a model call.
var amountIntentKeywords = []string{"얼마", "한도", "금액", "지급", "보험금", "보장금액", "가입금액"}

const systemPrompt = `너는 보험 문서에서 금액을 분류하는 도구다. 주어진 문서 조각에서 질문과 관련된 금액을 찾아 JSON으로만 답하라.
형식: {"label":"benefit_amount|premium_amount|unknown","amount_text":"...","amount_value":숫자(KRW),"confidence":"high|medium|low","span":"문서에서 그대로 인용한 구절"}
span은 반드시 문서 조각에 실제로 존재하는 구절이어야 한다.`

// Gate runs the refinement decision for one cell at a time.
type Gate struct {
	client  anthropic.Client
	cfg     config.LLMConfig
	limiter *rate.Limiter
}

// NewGate builds a gate over the given client. A disabled client keeps every
// cell on its rule-based result.
func NewGate(client anthropic.Client, cfg config.LLMConfig) *Gate {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 2
	}
	return &Gate{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Budget is the request-scoped call counter shared across concurrent cells.
type Budget struct {
	mu        sync.Mutex
	remaining int
}

// NewBudget returns a fresh per-request budget.
func (g *Gate) NewBudget() *Budget {
	n := g.cfg.MaxCallsPerRequest
	if n <= 0 {
		n = 4
	}
	return &Budget{remaining: n}
}

func (b *Budget) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// answer is the JSON contract the model must follow.
type answer struct {
	Label       string `json:"label"`
	AmountText  string `json:"amount_text"`
	AmountValue *int64 `json:"amount_value"`
	Confidence  string `json:"confidence"`
	Span        string `json:"span"`
}

// Refine returns the possibly upgraded amount for one cell plus the audit
// trace. It never returns an error: every failure soft-fails to the
// rule-based result.
func (g *Gate) Refine(ctx context.Context, budget *Budget, query string, evidence []model.Evidence, resolved *model.ResolvedAmount) (*model.ResolvedAmount, *model.LLMTrace) {
	if resolved != nil {
		return resolved, skipped(model.LLMReasonAmountExists)
	}

	chunk := firstEnrollment(evidence)
	if chunk == nil {
		return nil, skipped(model.LLMReasonNoEnrollment)
	}
	if chunk.Amount != nil && chunk.Amount.Confidence == model.ConfidenceHigh {
		return nil, skipped(model.LLMReasonAlreadyHigh)
	}
	if !hasAmountIntent(query) {
		return nil, skipped(model.LLMReasonNoIntent)
	}
	if !g.client.Enabled() {
		return nil, skipped(model.LLMReasonDisabled)
	}
	if !budget.take() {
		return nil, skipped(model.LLMReasonMaxCalls)
	}

	text := chunk.Text
	if max := g.cfg.MaxCharsPerCall; max > 0 {
		if runes := []rune(text); len(runes) > max {
			text = string(runes[:max])
		}
	}

	start := time.Now()
	resp, retries, err := g.call(ctx, query, text)
	metrics := &model.LLMCallMetrics{
		LatencyMS: time.Since(start).Milliseconds(),
		Retries:   retries,
		Model:     g.cfg.Model,
	}

	if err != nil {
		reason := model.LLMReasonProviderError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
			reason = model.LLMReasonTimeout
		}
		zap.L().Warn("refine: model call failed", zap.Error(err))
		return nil, &model.LLMTrace{
			Called:  true,
			Outcome: model.LLMOutcomeError,
			Reason:  reason,
			Metrics: metrics,
		}
	}
	metrics.Success = true
	resp.Usage.LogCost(g.cfg.Model, "refine")

	ans, ok := parseAnswer(resp.Text())
	if !ok {
		return nil, discarded(model.LLMReasonBadResponse, metrics)
	}

	switch ans.Label {
	case "benefit_amount":
	case "premium_amount":
		return nil, discarded(model.LLMReasonPremiumLabel, metrics)
	default:
		return nil, discarded(model.LLMReasonUnknownLabel, metrics)
	}
	if ans.Confidence != string(model.ConfidenceMedium) && ans.Confidence != string(model.ConfidenceHigh) {
		return nil, discarded(model.LLMReasonLowConfidence, metrics)
	}
	if ans.AmountValue == nil {
		return nil, discarded(model.LLMReasonBadResponse, metrics)
	}
	if !ValidateSpanInText(ans.Span, chunk.Text) {
		zap.L().Warn("refine: span not found in chunk, discarding",
			zap.String("span", ans.Span),
			zap.String("document_id", chunk.DocumentID),
		)
		return nil, discarded(model.LLMReasonHallucination, metrics)
	}

	upgraded := &model.ResolvedAmount{
		Value:            ans.AmountValue,
		Text:             ans.AmountText,
		Confidence:       model.Confidence(ans.Confidence),
		SourceDocType:    chunk.DocType,
		SourceDocumentID: chunk.DocumentID,
	}
	return upgraded, &model.LLMTrace{
		Called:  true,
		Outcome: model.LLMOutcomeUpgraded,
		Metrics: metrics,
	}
}

func (g *Gate) call(ctx context.Context, query, text string) (*anthropic.MessageResponse, int, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	cfg := resilience.DefaultRetryConfig()
	if g.cfg.MaxRetries > 0 {
		cfg.MaxAttempts = g.cfg.MaxRetries
	}

	prompt := fmt.Sprintf("질문: %s\n\n문서 조각:\n%s", query, text)
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout())
		defer cancel()

		return g.client.CreateMessage(callCtx, anthropic.MessageRequest{
			Model:     g.cfg.Model,
			MaxTokens: 512,
			System:    []anthropic.SystemBlock{{Text: systemPrompt}},
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
}

// parseAnswer extracts the first JSON object from the model output. Models
// sometimes wrap the JSON in prose or code fences.
func parseAnswer(text string) (answer, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return answer{}, false
	}

	var ans answer
	if err := json.Unmarshal([]byte(text[start:end+1]), &ans); err != nil {
		return answer{}, false
	}
	return ans, true
}

func firstEnrollment(evidence []model.Evidence) *model.Evidence {
	for i := range evidence {
		if evidence[i].DocType == model.DocTypeEnrollment && evidence[i].Text != "" {
			return &evidence[i]
		}
	}
	return nil
}

func hasAmountIntent(query string) bool {
	for _, kw := range amountIntentKeywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

func skipped(reason string) *model.LLMTrace {
	return &model.LLMTrace{Outcome: model.LLMOutcomeSkipped, Reason: reason}
}

func discarded(reason string, metrics *model.LLMCallMetrics) *model.LLMTrace {
	return &model.LLMTrace{
		Called:  true,
		Outcome: model.LLMOutcomeDiscarded,
		Reason:  reason,
		Metrics: metrics,
	}
}
