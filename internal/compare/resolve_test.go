package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planlens/compare-cli/internal/model"
)

func amountEvidence(docID string, docType model.DocType, value int64, conf model.Confidence, rank int) model.Evidence {
	v := value
	return model.Evidence{
		DocumentID: docID,
		DocType:    docType,
		Rank:       rank,
		Amount:     &model.AmountInfo{Value: &v, Confidence: conf},
	}
}

func TestResolveAmount_DocTypePriorityDominatesConfidence(t *testing.T) {
	evidence := []model.Evidence{
		amountEvidence("d1", model.DocTypeEnrollment, 10_000_000, model.ConfidenceHigh, 0),
		amountEvidence("d2", model.DocTypeSummary, 5_000_000, model.ConfidenceHigh, 1),
	}

	got := ResolveAmount(evidence)
	require.NotNil(t, got)
	assert.Equal(t, int64(5_000_000), *got.Value)
	assert.Equal(t, model.DocTypeSummary, got.SourceDocType)
	assert.Equal(t, "d2", got.SourceDocumentID)
}

func TestResolveAmount_MediumHigherPriorityBeatsHighLower(t *testing.T) {
	evidence := []model.Evidence{
		amountEvidence("d1", model.DocTypeEnrollment, 10_000_000, model.ConfidenceHigh, 0),
		amountEvidence("d2", model.DocTypeMethod, 7_000_000, model.ConfidenceMedium, 1),
	}

	got := ResolveAmount(evidence)
	require.NotNil(t, got)
	assert.Equal(t, model.DocTypeMethod, got.SourceDocType)
}

func TestResolveAmount_LowConfidenceEnrollmentNeverSelected(t *testing.T) {
	evidence := []model.Evidence{
		amountEvidence("d1", model.DocTypeEnrollment, 10_000_000, model.ConfidenceLow, 0),
	}

	assert.Nil(t, ResolveAmount(evidence))
}

func TestResolveAmount_PrefersFirstHighWithinDocType(t *testing.T) {
	evidence := []model.Evidence{
		amountEvidence("d1", model.DocTypeSummary, 1_000_000, model.ConfidenceMedium, 0),
		amountEvidence("d2", model.DocTypeSummary, 2_000_000, model.ConfidenceHigh, 1),
		amountEvidence("d3", model.DocTypeSummary, 3_000_000, model.ConfidenceHigh, 2),
	}

	got := ResolveAmount(evidence)
	require.NotNil(t, got)
	assert.Equal(t, "d2", got.SourceDocumentID)
}

func TestResolveAmount_FallsBackToFirstCandidate(t *testing.T) {
	evidence := []model.Evidence{
		amountEvidence("d1", model.DocTypeSummary, 1_000_000, model.ConfidenceMedium, 0),
		amountEvidence("d2", model.DocTypeSummary, 2_000_000, model.ConfidenceLow, 1),
	}

	got := ResolveAmount(evidence)
	require.NotNil(t, got)
	assert.Equal(t, "d1", got.SourceDocumentID)
}

func TestResolveAmount_NilAmountsIgnored(t *testing.T) {
	evidence := []model.Evidence{
		{DocumentID: "d1", DocType: model.DocTypeSummary, Amount: &model.AmountInfo{Confidence: model.ConfidenceLow}},
		{DocumentID: "d2", DocType: model.DocTypeSummary},
	}

	assert.Nil(t, ResolveAmount(evidence))
}

func TestBestEvidence_OrderAndLimit(t *testing.T) {
	evidence := []model.Evidence{
		{DocumentID: "enr", DocType: model.DocTypeEnrollment, Rank: 0},
		{DocumentID: "sum2", DocType: model.DocTypeSummary, Rank: 2},
		{DocumentID: "sum1", DocType: model.DocTypeSummary, Rank: 1},
		{DocumentID: "met", DocType: model.DocTypeMethod, Rank: 3},
	}

	best := bestEvidence(evidence, 2)
	require.Len(t, best, 2)
	assert.Equal(t, "sum1", best[0].DocumentID, "summary wins, lower rank first")
	assert.Equal(t, "sum2", best[1].DocumentID)
}
