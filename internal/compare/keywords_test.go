package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/planlens/compare-cli/internal/model"
)

func TestResolvePolicyKeywords_ExplicitRequestWins(t *testing.T) {
	got := resolvePolicyKeywords(model.CompareRequest{
		Query:          "갑상선암 보장",
		PolicyKeywords: []string{"면책", "면책", " "},
	})
	assert.Equal(t, []string{"면책"}, got)
}

func TestResolvePolicyKeywords_DerivedFromQuery(t *testing.T) {
	got := resolvePolicyKeywords(model.CompareRequest{Query: "갑상선암이랑 경계성종양 약관 내용"})
	assert.Equal(t, []string{"경계성", "유사암"}, got)
}

func TestResolvePolicyKeywords_NormalizesSubtypes(t *testing.T) {
	got := resolvePolicyKeywords(model.CompareRequest{Query: "상피내암은 어떻게 되나요"})
	assert.Equal(t, []string{"제자리암"}, got)
}

func TestResolvePolicyKeywords_DefaultSet(t *testing.T) {
	got := resolvePolicyKeywords(model.CompareRequest{Query: "암진단비 알려줘"})
	assert.Equal(t, []string{"경계성", "유사암", "제자리암"}, got)
}
