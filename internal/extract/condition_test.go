package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition_PicksHighestScoringSentence(t *testing.T) {
	text := "이 특약은 갱신형입니다. 암 진단확정 시 최초 1회에 한하여 지급사유가 발생합니다. 기타 안내사항."
	info := Condition(text)

	require.NotNil(t, info)
	assert.Contains(t, info.Snippet, "진단확정")
	assert.Contains(t, info.MatchedTerms, "최초")
}

func TestCondition_FirstWinsOnTie(t *testing.T) {
	text := "면책 기간이 적용됩니다. 감액 지급될 수 있습니다."
	info := Condition(text)

	require.NotNil(t, info)
	assert.Contains(t, info.Snippet, "면책")
}

func TestCondition_NoKeywordNoSnippet(t *testing.T) {
	assert.Nil(t, Condition("단순한 안내 문장입니다. 특별한 내용이 없습니다."))
}

func TestCondition_ShortFragmentsDropped(t *testing.T) {
	// "면책." alone is five runes or fewer after trimming and must not win.
	info := Condition("면책. 보험기간 중 90일 경과 후 보장개시되며 면책 조건이 적용됩니다.")

	require.NotNil(t, info)
	assert.Contains(t, info.Snippet, "90일")
}

func TestCondition_TruncatesAtWordBoundary(t *testing.T) {
	long := "진단확정 시 " + strings.Repeat("보장내용 설명이 이어집니다 ", 20)
	info := Condition(long)

	require.NotNil(t, info)
	runes := []rune(info.Snippet)
	assert.LessOrEqual(t, len(runes), snippetLimit+1) // +1 for the ellipsis
	assert.True(t, strings.HasSuffix(info.Snippet, "…"))
}
