// Package ingest loads alias spreadsheets maintained by the coverage
// mapping team into the database.
package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/planlens/compare-cli/internal/model"
)

// XLSXOptions controls spreadsheet reading.
type XLSXOptions struct {
	// Sheet selects a sheet by name. Empty uses the first sheet.
	Sheet string
	// SkipHeader drops the first row.
	SkipHeader bool
}

// ReadXLSX reads a sheet into string rows.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open xlsx %s", path)
	}

	sheet, err := getSheet(file, opts.Sheet)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		if i == 0 && opts.SkipHeader {
			continue
		}
		rows = append(rows, rowToStrings(row))
	}
	return rows, nil
}

func getSheet(file *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name == "" {
		if len(file.Sheets) == 0 {
			return nil, eris.New("ingest: workbook has no sheets")
		}
		return file.Sheets[0], nil
	}
	sheet, ok := file.Sheet[name]
	if !ok {
		return nil, eris.Errorf("ingest: sheet %q not found", name)
	}
	return sheet, nil
}

func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = strings.TrimSpace(cell.String())
	}
	return out
}

// aliasColumns is the expected layout of an alias sheet.
const aliasColumns = 5

// ParseAliasRows converts sheet rows in the order insurer_code, alias,
// coverage_code, coverage_name, source_doc_type. Blank rows are skipped;
// rows missing required fields fail the whole load.
func ParseAliasRows(rows [][]string) ([]model.CoverageAlias, error) {
	out := make([]model.CoverageAlias, 0, len(rows))
	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if len(row) < 3 || row[0] == "" || row[1] == "" || row[2] == "" {
			return nil, eris.Errorf("ingest: row %d: insurer_code, alias and coverage_code are required", i+1)
		}
		a := model.CoverageAlias{
			InsurerCode:  row[0],
			Alias:        row[1],
			CoverageCode: row[2],
		}
		if len(row) > 3 {
			a.CoverageName = row[3]
		}
		if len(row) > 4 && row[4] != "" {
			dt := model.DocType(row[4])
			if !dt.Valid() {
				return nil, eris.Errorf("ingest: row %d: unknown doc type %q", i+1, row[4])
			}
			a.SourceDocType = dt
		}
		out = append(out, a)
	}
	return out, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
