package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planlens/compare-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedChunk(t *testing.T, s *SQLiteStore, docID, insurer string, docType model.DocType, content, coverageCode string, score float64) {
	t.Helper()
	_, err := s.DB().Exec(
		`INSERT INTO chunks (document_id, insurer_code, doc_type, page_start, content, coverage_code, score) VALUES (?, ?, ?, 1, ?, ?, ?)`,
		docID, insurer, string(docType), content, coverageCode, score,
	)
	require.NoError(t, err)
}

func TestSQLite_SearchEvidenceFilters(t *testing.T) {
	s := newTestSQLite(t)
	seedChunk(t, s, "d1", "SAMSUNG", model.DocTypeSummary, "암진단비 3,000만원", "CAN-DIAG", 0.9)
	seedChunk(t, s, "d2", "SAMSUNG", model.DocTypePolicy, "제12조(암진단비의 지급)", "CAN-DIAG", 0.8)
	seedChunk(t, s, "d3", "MERITZ", model.DocTypeSummary, "암진단비 1,000만원", "CAN-DIAG", 0.7)

	got, err := s.SearchEvidence(context.Background(), SearchParams{
		Insurer:      "SAMSUNG",
		CoverageCode: "CAN-DIAG",
		DocTypes:     []model.DocType{model.DocTypeSummary, model.DocTypeMethod},
		Limit:        10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d1", got[0].DocumentID)
	assert.Equal(t, model.DocTypeSummary, got[0].DocType)
	assert.Equal(t, "암진단비 3,000만원", got[0].Text)
	assert.NotEmpty(t, got[0].Preview)
}

func TestSQLite_SearchEvidenceKeywordAndLimit(t *testing.T) {
	s := newTestSQLite(t)
	seedChunk(t, s, "d1", "SAMSUNG", model.DocTypePolicy, "유사암의 정의는 다음과 같다", "", 0.9)
	seedChunk(t, s, "d2", "SAMSUNG", model.DocTypePolicy, "경계성종양 관련 조항", "", 0.8)
	seedChunk(t, s, "d3", "SAMSUNG", model.DocTypePolicy, "유사암 면책 조항", "", 0.7)

	got, err := s.SearchEvidence(context.Background(), SearchParams{
		Insurer:  "SAMSUNG",
		Keyword:  "유사암",
		DocTypes: []model.DocType{model.DocTypePolicy},
		Limit:    1,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d1", got[0].DocumentID, "highest score first")
}

func TestSQLite_UpsertAndListAliases(t *testing.T) {
	s := newTestSQLite(t)

	n, err := s.UpsertAliases(context.Background(), []model.CoverageAlias{
		{InsurerCode: "SAMSUNG", Alias: "암진단비", CoverageCode: "OLD", CoverageName: "암진단비"},
		{InsurerCode: "MERITZ", Alias: "암진단비", CoverageCode: "CAN-DIAG", CoverageName: "암진단비"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Same (insurer, alias) pair replaces the code instead of duplicating.
	_, err = s.UpsertAliases(context.Background(), []model.CoverageAlias{
		{InsurerCode: "SAMSUNG", Alias: "암진단비", CoverageCode: "CAN-DIAG", CoverageName: "암진단비", SourceDocType: model.DocTypeEnrollment},
	})
	require.NoError(t, err)

	got, err := s.ListAliases(context.Background(), "SAMSUNG")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CAN-DIAG", got[0].CoverageCode)
	assert.Equal(t, model.DocTypeEnrollment, got[0].SourceDocType)

	all, err := s.ListAliases(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLite_ListCanonicalCoverages(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.DB().Exec(
		`INSERT INTO canonical_coverages (code, name, domain, ontology_codes) VALUES (?, ?, ?, ?)`,
		"CAN-DIAG", "암진단비", "cancer", `["ONT-CANCER-DIAG"]`,
	)
	require.NoError(t, err)

	got, err := s.ListCanonicalCoverages(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"ONT-CANCER-DIAG"}, got[0].OntologyCodes)
}

func TestSQLite_PlanDocumentIDs(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.DB().Exec(
		`INSERT INTO plans (product_code, insurer_code, gender, age_min, age_max, document_ids) VALUES ('P1', 'SAMSUNG', 'F', 30, 40, '["d1","d2"]'), ('P1', 'MERITZ', 'F', 30, 40, '["d2","d3"]'), ('P1', 'SAMSUNG', 'M', 30, 40, '["d9"]')`,
	)
	require.NoError(t, err)

	got, err := s.PlanDocumentIDs(context.Background(), model.PlanFilter{ProductCode: "P1", Gender: "F", Age: 35})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2", "d3"}, got)

	none, err := s.PlanDocumentIDs(context.Background(), model.PlanFilter{ProductCode: "P1", Gender: "F", Age: 50})
	require.NoError(t, err)
	assert.Empty(t, none)
}
