package coverage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planlens/compare-cli/internal/model"
)

type fakeCatalog struct {
	aliases map[string][]model.CoverageAlias
	canon   []model.CanonicalCoverage
	loads   int
}

func (f *fakeCatalog) ListAliases(_ context.Context, insurer string) ([]model.CoverageAlias, error) {
	f.loads++
	return f.aliases[insurer], nil
}

func (f *fakeCatalog) ListCanonicalCoverages(context.Context) ([]model.CanonicalCoverage, error) {
	return f.canon, nil
}

func newTestResolver(t *testing.T) (*Resolver, *fakeCatalog) {
	t.Helper()
	catalog := &fakeCatalog{
		aliases: map[string][]model.CoverageAlias{
			"samsung": {
				{InsurerCode: "samsung", Alias: "암진단비(유사암제외)", CoverageCode: "CAN-DIAG", CoverageName: "암진단비", SourceDocType: model.DocTypeEnrollment},
				{InsurerCode: "samsung", Alias: "유사암진단비", CoverageCode: "SIM-CAN-DIAG", CoverageName: "유사암진단비", SourceDocType: model.DocTypeSummary},
			},
		},
		canon: []model.CanonicalCoverage{
			{Code: "CAN-DIAG", Name: "암진단비", Domain: "cancer", OntologyCodes: []string{"ONT-CANCER-DIAG"}},
			{Code: "SIM-CAN-DIAG", Name: "유사암진단비", Domain: "cancer", OntologyCodes: []string{"ONT-SIMILAR-CANCER-DIAG"}},
		},
	}
	r, err := NewResolver(catalog)
	require.NoError(t, err)
	return r, catalog
}

func TestResolve_AliasTableHit(t *testing.T) {
	r, _ := newTestResolver(t)

	m, err := r.Resolve(context.Background(), "암진단비(유사암제외) 1,000만원", "samsung", model.DocTypeEnrollment)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "CAN-DIAG", m.Code)
	assert.Equal(t, model.MatchSourceMapping, m.MatchSource)
	assert.Equal(t, model.ConfidenceHigh, m.Confidence)
}

func TestResolve_EnrollmentFiltersAliasSource(t *testing.T) {
	r, _ := newTestResolver(t)

	// 유사암진단비 only exists with a summary source doc type, so an
	// enrollment resolve must skip the alias table and fall to the ontology.
	m, err := r.Resolve(context.Background(), "유사암진단비 보장", "samsung", model.DocTypeEnrollment)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, model.MatchSourceFallbackRemap, m.MatchSource)
	assert.Equal(t, "SIM-CAN-DIAG", m.Code)
	assert.Equal(t, model.ConfidenceLow, m.Confidence)
}

func TestResolve_OntologyRemapToCanonical(t *testing.T) {
	r, _ := newTestResolver(t)

	m, err := r.Resolve(context.Background(), "이 상품은 암진단금을 지급합니다", "unknown-insurer", model.DocTypeSummary)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "CAN-DIAG", m.Code)
	assert.Equal(t, model.MatchSourceFallbackRemap, m.MatchSource)
	assert.Equal(t, "ONT-CANCER-DIAG", m.OntologyCode)
	assert.Equal(t, "ontology", m.TagSource)
}

func TestResolve_UnmappedOntologyKeepsEmptyCode(t *testing.T) {
	r, catalog := newTestResolver(t)
	catalog.canon = nil // no canonical table at all

	m, err := r.Resolve(context.Background(), "뇌졸중진단비를 보장합니다", "samsung", model.DocTypeSummary)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Empty(t, m.Code)
	assert.Equal(t, model.MatchSourceFallbackUnmapped, m.MatchSource)
	assert.Equal(t, "ONT-STROKE-DIAG", m.OntologyCode)
	assert.Equal(t, model.ConfidenceLow, m.Confidence)
}

func TestResolve_NoMatch(t *testing.T) {
	r, _ := newTestResolver(t)

	m, err := r.Resolve(context.Background(), "해당 없음", "samsung", model.DocTypeSummary)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestResolve_PolicyMatchesHeadersOnly(t *testing.T) {
	r, _ := newTestResolver(t)

	// The coverage name appears in body prose but not in any structural
	// header, so policy resolution must return nothing.
	body := "보통약관에 따라 유사암진단비를 지급하지 않는 경우가 있습니다."
	m, err := r.Resolve(context.Background(), body, "samsung", model.DocTypePolicy)
	require.NoError(t, err)
	assert.Nil(t, m)

	withHeader := "제12조(유사암진단비의 지급) 회사는 피보험자가 유사암으로 진단확정된 경우 보험금을 지급합니다."
	m, err = r.Resolve(context.Background(), withHeader, "samsung", model.DocTypePolicy)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "SIM-CAN-DIAG", m.Code)
	assert.Equal(t, model.MatchSourceClauseHeader, m.MatchSource)
	assert.Equal(t, model.ConfidenceHigh, m.Confidence)
	assert.Equal(t, "clause_header", m.TagSource)
}

func TestResolve_PolicyBracketHeader(t *testing.T) {
	r, _ := newTestResolver(t)

	text := "【유사암진단비 특별약관】 이 특별약관은 보통약관에 부가하여 적용됩니다."
	m, err := r.Resolve(context.Background(), text, "samsung", model.DocTypePolicy)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, model.MatchSourceClauseHeader, m.MatchSource)
	assert.Equal(t, "SIM-CAN-DIAG", m.Code)
}

func TestResolve_ShortQueryHitsLongerStoredAlias(t *testing.T) {
	r, _ := newTestResolver(t)

	m, err := r.Resolve(context.Background(), "암진단비(유사암제외)만 알려줘", "samsung", model.DocTypeSummary)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "CAN-DIAG", m.Code)
}

func TestExtractAll_DistinctCoveragesInOrder(t *testing.T) {
	r, _ := newTestResolver(t)

	text := "유사암진단비 500만원, 암진단비(유사암제외) 3,000만원, 유사암진단비 재언급"
	matches, err := r.ExtractAll(context.Background(), text, "samsung")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "SIM-CAN-DIAG", matches[0].Code)
	assert.Equal(t, "CAN-DIAG", matches[1].Code)
}

func TestResolver_CachesAliasLoads(t *testing.T) {
	r, catalog := newTestResolver(t)

	_, err := r.Resolve(context.Background(), "암진단비(유사암제외)", "samsung", model.DocTypeSummary)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "암진단비(유사암제외)", "samsung", model.DocTypeSummary)
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.loads)

	r.Invalidate()
	_, err = r.Resolve(context.Background(), "암진단비(유사암제외)", "samsung", model.DocTypeSummary)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.loads)
}
