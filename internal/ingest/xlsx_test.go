package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/planlens/compare-cli/internal/model"
)

func writeAliasSheet(t *testing.T, rows [][]string) string {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("aliases")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, v := range cells {
			row.AddCell().Value = v
		}
	}
	path := filepath.Join(t.TempDir(), "aliases.xlsx")
	require.NoError(t, file.Save(path))
	return path
}

func TestReadXLSX_SkipHeader(t *testing.T) {
	path := writeAliasSheet(t, [][]string{
		{"insurer_code", "alias", "coverage_code", "coverage_name", "source_doc_type"},
		{"SAMSUNG", "암진단비(유사암제외)", "CAN-DIAG", "암진단비", "가입설계서"},
	})

	rows, err := ReadXLSX(path, XLSXOptions{SkipHeader: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SAMSUNG", rows[0][0])
	assert.Equal(t, "암진단비(유사암제외)", rows[0][1])
}

func TestReadXLSX_NamedSheet(t *testing.T) {
	path := writeAliasSheet(t, [][]string{{"MERITZ", "암진단비", "CAN-DIAG"}})

	rows, err := ReadXLSX(path, XLSXOptions{Sheet: "aliases"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = ReadXLSX(path, XLSXOptions{Sheet: "missing"})
	assert.Error(t, err)
}

func TestParseAliasRows(t *testing.T) {
	got, err := ParseAliasRows([][]string{
		{"SAMSUNG", "암진단비(유사암제외)", "CAN-DIAG", "암진단비", "가입설계서"},
		{"", "", ""},
		{"MERITZ", "암진단비", "CAN-DIAG"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.DocTypeEnrollment, got[0].SourceDocType)
	assert.Equal(t, "암진단비", got[0].CoverageName)
	assert.Empty(t, got[1].SourceDocType)
}

func TestParseAliasRows_MissingRequired(t *testing.T) {
	_, err := ParseAliasRows([][]string{{"SAMSUNG", "", "CAN-DIAG"}})
	assert.Error(t, err)
}

func TestParseAliasRows_UnknownDocType(t *testing.T) {
	_, err := ParseAliasRows([][]string{{"SAMSUNG", "암진단비", "CAN-DIAG", "", "청약서"}})
	assert.Error(t, err)
}
