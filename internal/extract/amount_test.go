package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planlens/compare-cli/internal/model"
)

func TestAmount_KeywordProximity(t *testing.T) {
	info := Amount("가입금액 1,000만원", "")

	require.NotNil(t, info.Value)
	assert.Equal(t, int64(10_000_000), *info.Value)
	assert.Equal(t, model.UnitManwon, info.Unit)
	assert.Equal(t, model.ConfidenceHigh, info.Confidence)
	assert.Equal(t, MethodKeywordProximity, info.Method)
}

func TestAmount_CompoundEokCheonman(t *testing.T) {
	info := Amount("암진단비 보장금액 1억 5천만원 지급", model.DocTypeSummary)

	require.NotNil(t, info.Value)
	assert.Equal(t, int64(150_000_000), *info.Value)
	assert.Equal(t, model.UnitEokwon, info.Unit)
	assert.Equal(t, model.ConfidenceHigh, info.Confidence)
}

func TestAmount_BareEokUnit(t *testing.T) {
	info := Amount("사망 시 2억 지급", model.DocTypeSummary)

	require.NotNil(t, info.Value)
	assert.Equal(t, int64(200_000_000), *info.Value)
	assert.Equal(t, model.UnitEokwon, info.Unit)
}

func TestAmount_PremiumProximityExcluded(t *testing.T) {
	info := Amount("월납 보험료 35,000원", model.DocTypeSummary)

	assert.Nil(t, info.Value)
	assert.Equal(t, MethodNoCandidate, info.Method)
}

func TestAmount_NoUnitNeverGuessed(t *testing.T) {
	// A bare number with no determinable unit must not produce a value.
	info := Amount("보장 내용 한도 35,000", model.DocTypeSummary)

	assert.Nil(t, info.Value)
	assert.Equal(t, model.ConfidenceLow, info.Confidence)
	assert.Equal(t, MethodNoUnit, info.Method)
	assert.Equal(t, "35,000", info.Text)
}

func TestAmount_FirstCandidateWithoutKeyword(t *testing.T) {
	info := Amount("특약 내역입니다\n어쩌구 저쩌구 조건하에 3,000만원 그리고 500만원", "")

	require.NotNil(t, info.Value)
	assert.Equal(t, int64(30_000_000), *info.Value)
	assert.Equal(t, model.ConfidenceMedium, info.Confidence)
	assert.Equal(t, MethodFirstCandidate, info.Method)
}

func TestAmount_StrictFlattenedPremiumExcluded(t *testing.T) {
	// Flattened enrollment line: premium keyword adjacent, no benefit signal.
	info := Amount("보험료(원) 35,000", model.DocTypeEnrollment)

	assert.Nil(t, info.Value)
	assert.Equal(t, model.ConfidenceLow, info.Confidence)
}

func TestAmount_StrictFlattenedBenefitAccepted(t *testing.T) {
	info := Amount("암진단비(유사암 제외) 가입금액 3,000만원", model.DocTypeEnrollment)

	require.NotNil(t, info.Value)
	assert.Equal(t, int64(30_000_000), *info.Value)
	assert.Equal(t, model.ConfidenceHigh, info.Confidence)
	assert.Equal(t, MethodWideWindow, info.Method)
}

func TestAmount_StrictTableCoverageBlock(t *testing.T) {
	text := "담보명 가입금액\n암진단비 3,000만원\n뇌졸중진단비 2,000만원\n월납보험료\n35,000원\n"
	info := Amount(text, model.DocTypeEnrollment)

	require.NotNil(t, info.Value)
	assert.Equal(t, int64(30_000_000), *info.Value)
	assert.Equal(t, MethodTableBlock, info.Method)
}

func TestAmount_StrictTablePremiumBlockRejected(t *testing.T) {
	// Only a premium block exists; the amount inside it must not be used.
	text := "월납보험료 안내\n35,000원\n유의사항\n계약을 확인하세요\n"
	info := Amount(text, model.DocTypeEnrollment)

	assert.Nil(t, info.Value)
	assert.Equal(t, MethodNoBenefitSignal, info.Method)
}

func TestAmount_StrictTableNoBlocksNoAmount(t *testing.T) {
	// Table-shaped text with no recognizable headers yields nothing:
	// correctness is prioritized over recall.
	text := "안내문\n기타 150만원 관련 내용\n추가 설명입니다\n"
	info := Amount(text, model.DocTypeEnrollment)

	assert.Nil(t, info.Value)
}

func TestAmount_FullWidthDigitsFolded(t *testing.T) {
	info := Amount("가입금액 １,０００만원", model.DocTypeSummary)

	require.NotNil(t, info.Value)
	assert.Equal(t, int64(10_000_000), *info.Value)
}

func TestAmount_EmptyText(t *testing.T) {
	info := Amount("", model.DocTypeSummary)

	assert.Nil(t, info.Value)
	assert.Equal(t, MethodNoCandidate, info.Method)
}

func TestDiagnosisLumpSum_PrefersLumpPhrasing(t *testing.T) {
	text := "입원일당 3만원. 암 진단 확정 시 최초 1회에 한하여 3,000만원 지급"
	info := DiagnosisLumpSum(text, model.DocTypeSummary)

	require.NotNil(t, info.Value)
	assert.Equal(t, int64(30_000_000), *info.Value)
	assert.Equal(t, model.ConfidenceHigh, info.Confidence)
}

func TestDiagnosisLumpSum_RejectsDailyPayout(t *testing.T) {
	info := DiagnosisLumpSum("암 입원일당 5만원", model.DocTypeSummary)

	assert.Nil(t, info.Value)
}

func TestDiagnosisLumpSum_SingleCandidateFallback(t *testing.T) {
	info := DiagnosisLumpSum("해당 담보 2,000만원", model.DocTypeSummary)

	require.NotNil(t, info.Value)
	assert.Equal(t, int64(20_000_000), *info.Value)
	assert.Equal(t, model.ConfidenceMedium, info.Confidence)
	assert.Equal(t, MethodSingleLumpSum, info.Method)
}
