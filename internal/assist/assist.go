// Package assist provides the advisory query-rewrite and summary helpers.
// They never influence the compare pipeline; with the model disabled both
// degrade to rule-based output.
package assist

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/planlens/compare-cli/internal/anchor"
	"github.com/planlens/compare-cli/internal/config"
	"github.com/planlens/compare-cli/internal/model"
	"github.com/planlens/compare-cli/pkg/anthropic"
)

// Source marks which path produced an advisory answer.
const (
	SourceModel = "llm"
	SourceRules = "rules"
)

// QueryAssist is the rewritten search query with extracted structure.
type QueryAssist struct {
	Query    string   `json:"query"`
	Insurers []string `json:"insurers"`
	Source   string   `json:"source"`
}

// Summary is a short prose summary of one comparison result.
type Summary struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Assistant answers the /assist endpoints.
type Assistant struct {
	client anthropic.Client
	cfg    config.LLMConfig
}

// New builds an assistant over the given client.
func New(client anthropic.Client, cfg config.LLMConfig) *Assistant {
	return &Assistant{client: client, cfg: cfg}
}

// fillerWords are stripped from queries in the rule-based rewrite.
var fillerWords = []string{"알려줘", "알려주세요", "비교해줘", "비교해주세요", "어때", "궁금해", "좀", "요?"}

// RewriteQuery turns a conversational query into a retrieval-friendly one.
// Model failures fall back to the rule-based rewrite.
func (a *Assistant) RewriteQuery(ctx context.Context, query string) QueryAssist {
	insurers := anchor.ExtractInsurers(query)

	if a.client.Enabled() {
		resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.cfg.Model,
			MaxTokens: 256,
			System: []anthropic.SystemBlock{{
				Text: "보험 비교 질문을 검색용 핵심 키워드로 정리하라. 담보명과 조건 용어만 남기고 한 줄로 답하라.",
			}},
			Messages: []anthropic.Message{{Role: "user", Content: query}},
		})
		if err == nil {
			if text := strings.TrimSpace(resp.Text()); text != "" {
				return QueryAssist{Query: text, Insurers: insurers, Source: SourceModel}
			}
		} else {
			zap.L().Warn("assist: rewrite model call failed", zap.Error(err))
		}
	}

	return QueryAssist{Query: rewriteByRules(query), Insurers: insurers, Source: SourceRules}
}

func rewriteByRules(query string) string {
	out := query
	for _, w := range fillerWords {
		out = strings.ReplaceAll(out, w, "")
	}
	return strings.Join(strings.Fields(out), " ")
}

// Summarize produces a short prose summary of a compare result. Model
// failures fall back to a factual listing.
func (a *Assistant) Summarize(ctx context.Context, result *model.CompareResult) Summary {
	fallback := summarizeByRules(result)

	if a.client.Enabled() {
		resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.cfg.Model,
			MaxTokens: 512,
			System: []anthropic.SystemBlock{{
				Text: "보험 비교 결과를 두세 문장으로 요약하라. 어느 상품이 낫다는 판단은 하지 말고 금액 사실만 전달하라.",
			}},
			Messages: []anthropic.Message{{Role: "user", Content: fallback}},
		})
		if err == nil {
			if text := strings.TrimSpace(resp.Text()); text != "" {
				return Summary{Text: text, Source: SourceModel}
			}
		} else {
			zap.L().Warn("assist: summary model call failed", zap.Error(err))
		}
	}

	return Summary{Text: fallback, Source: SourceRules}
}

// summarizeByRules lists each resolved amount with its source doc type.
func summarizeByRules(result *model.CompareResult) string {
	var b strings.Builder
	for _, row := range result.Rows {
		name := row.CoverageName
		if name == "" {
			name = row.CoverageCode
		}
		for _, cell := range row.Insurers {
			if cell.ResolvedAmount == nil || cell.ResolvedAmount.Value == nil {
				fmt.Fprintf(&b, "%s %s: 확인된 금액 없음\n", cell.InsurerCode, name)
				continue
			}
			fmt.Fprintf(&b, "%s %s: %s (%s 기준)\n",
				cell.InsurerCode, name,
				FormatKRW(*cell.ResolvedAmount.Value),
				cell.ResolvedAmount.SourceDocType,
			)
		}
	}
	if b.Len() == 0 {
		return "확인된 비교 결과가 없습니다."
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatKRW renders a KRW value in the largest clean Korean unit.
func FormatKRW(v int64) string {
	switch {
	case v >= 100_000_000 && v%100_000_000 == 0:
		return fmt.Sprintf("%d억원", v/100_000_000)
	case v >= 100_000_000 && v%10_000_000 == 0:
		return fmt.Sprintf("%d억 %d천만원", v/100_000_000, (v%100_000_000)/10_000_000)
	case v >= 10_000 && v%10_000 == 0:
		return fmt.Sprintf("%s만원", groupDigits(v/10_000))
	default:
		return fmt.Sprintf("%s원", groupDigits(v))
	}
}

func groupDigits(v int64) string {
	s := fmt.Sprintf("%d", v)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
