package assist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/planlens/compare-cli/internal/config"
	"github.com/planlens/compare-cli/internal/model"
	"github.com/planlens/compare-cli/pkg/anthropic"
)

func TestRewriteQuery_RuleFallbackWhenDisabled(t *testing.T) {
	a := New(anthropic.NewDisabled(), config.LLMConfig{})

	got := a.RewriteQuery(context.Background(), "메리츠 암진단비 알려줘")
	assert.Equal(t, SourceRules, got.Source)
	assert.Equal(t, "메리츠 암진단비", got.Query)
	assert.Equal(t, []string{"MERITZ"}, got.Insurers)
}

func TestRewriteQuery_UsesModelWhenEnabled(t *testing.T) {
	fake := anthropic.NewFake()
	fake.EnqueueText("암진단비 가입금액")
	a := New(fake, config.LLMConfig{Enabled: true, Model: "fake"})

	got := a.RewriteQuery(context.Background(), "암진단비가 얼마인지 알려줘")
	assert.Equal(t, SourceModel, got.Source)
	assert.Equal(t, "암진단비 가입금액", got.Query)
}

func compareResultFixture() *model.CompareResult {
	v := int64(30_000_000)
	return &model.CompareResult{
		Rows: []model.CoverageCompareRow{{
			CoverageCode: "CAN-DIAG",
			CoverageName: "암진단비",
			Insurers: []model.InsurerCompareCell{
				{
					InsurerCode: "SAMSUNG",
					ResolvedAmount: &model.ResolvedAmount{
						Value:         &v,
						SourceDocType: model.DocTypeSummary,
					},
				},
				{InsurerCode: "MERITZ"},
			},
		}},
	}
}

func TestSummarize_RuleFallbackListsFacts(t *testing.T) {
	a := New(anthropic.NewDisabled(), config.LLMConfig{})

	got := a.Summarize(context.Background(), compareResultFixture())
	assert.Equal(t, SourceRules, got.Source)
	assert.Contains(t, got.Text, "SAMSUNG 암진단비: 3,000만원")
	assert.Contains(t, got.Text, "MERITZ 암진단비: 확인된 금액 없음")
}

func TestSummarize_EmptyResult(t *testing.T) {
	a := New(anthropic.NewDisabled(), config.LLMConfig{})

	got := a.Summarize(context.Background(), &model.CompareResult{})
	assert.Equal(t, "확인된 비교 결과가 없습니다.", got.Text)
}

func TestFormatKRW(t *testing.T) {
	assert.Equal(t, "1,000만원", FormatKRW(10_000_000))
	assert.Equal(t, "3억원", FormatKRW(300_000_000))
	assert.Equal(t, "1억 5천만원", FormatKRW(150_000_000))
	assert.Equal(t, "35,000원", FormatKRW(35_000))
}
