package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/planlens/compare-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It serves local
// development and tests; array columns are stored as JSON text.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database at the given path and configures WAL
// mode.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "compare.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS chunks (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id   TEXT NOT NULL,
	insurer_code  TEXT NOT NULL,
	doc_type      TEXT NOT NULL,
	page_start    INTEGER NOT NULL DEFAULT 0,
	content       TEXT NOT NULL,
	coverage_code TEXT,
	score         REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS coverage_aliases (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	insurer_code    TEXT NOT NULL,
	alias           TEXT NOT NULL,
	coverage_code   TEXT NOT NULL,
	coverage_name   TEXT NOT NULL DEFAULT '',
	source_doc_type TEXT,
	UNIQUE (insurer_code, alias)
);

CREATE TABLE IF NOT EXISTS canonical_coverages (
	code           TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	domain         TEXT,
	ontology_codes TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS plans (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	product_code TEXT NOT NULL,
	insurer_code TEXT NOT NULL,
	gender       TEXT NOT NULL DEFAULT '',
	age_min      INTEGER NOT NULL DEFAULT 0,
	age_max      INTEGER NOT NULL DEFAULT 200,
	document_ids TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_chunks_insurer_doctype ON chunks(insurer_code, doc_type);
CREATE INDEX IF NOT EXISTS idx_chunks_coverage ON chunks(coverage_code);
CREATE INDEX IF NOT EXISTS idx_aliases_insurer ON coverage_aliases(insurer_code);
CREATE INDEX IF NOT EXISTS idx_plans_product ON plans(product_code);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the handle for test fixtures.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) SearchEvidence(ctx context.Context, p SearchParams) ([]model.Evidence, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT document_id, insurer_code, doc_type, page_start, content, COALESCE(coverage_code, ''), score FROM chunks WHERE insurer_code = ?`)
	args = append(args, p.Insurer)

	if len(p.DocTypes) > 0 {
		sb.WriteString(" AND doc_type IN (" + placeholders(len(p.DocTypes)) + ")")
		for _, dt := range p.DocTypes {
			args = append(args, string(dt))
		}
	}
	if p.CoverageCode != "" {
		sb.WriteString(" AND coverage_code = ?")
		args = append(args, p.CoverageCode)
	}
	if p.Keyword != "" {
		sb.WriteString(" AND content LIKE ?")
		args = append(args, "%"+p.Keyword+"%")
	}
	if len(p.DocumentIDs) > 0 {
		sb.WriteString(" AND document_id IN (" + placeholders(len(p.DocumentIDs)) + ")")
		for _, id := range p.DocumentIDs {
			args = append(args, id)
		}
	}

	sb.WriteString(" ORDER BY score DESC")
	if p.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, p.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search evidence")
	}
	defer rows.Close()

	var out []model.Evidence
	for rows.Next() {
		var ev model.Evidence
		var docType string
		if err := rows.Scan(&ev.DocumentID, &ev.InsurerCode, &docType, &ev.PageStart, &ev.Text, &ev.CoverageCode, &ev.Score); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evidence")
		}
		ev.DocType = model.DocType(docType)
		ev.Preview = Preview(ev.Text)
		out = append(out, ev)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: evidence rows")
}

func (s *SQLiteStore) ListAliases(ctx context.Context, insurer string) ([]model.CoverageAlias, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, insurer_code, alias, coverage_code, coverage_name, COALESCE(source_doc_type, '') FROM coverage_aliases WHERE (? = '' OR insurer_code = ?)`,
		insurer, insurer,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list aliases")
	}
	defer rows.Close()

	var out []model.CoverageAlias
	for rows.Next() {
		var a model.CoverageAlias
		var sourceDocType string
		if err := rows.Scan(&a.ID, &a.InsurerCode, &a.Alias, &a.CoverageCode, &a.CoverageName, &sourceDocType); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alias")
		}
		a.SourceDocType = model.DocType(sourceDocType)
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: alias rows")
}

func (s *SQLiteStore) ListCanonicalCoverages(ctx context.Context) ([]model.CanonicalCoverage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, COALESCE(domain, ''), ontology_codes FROM canonical_coverages`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list canonical coverages")
	}
	defer rows.Close()

	var out []model.CanonicalCoverage
	for rows.Next() {
		var c model.CanonicalCoverage
		var codesJSON string
		if err := rows.Scan(&c.Code, &c.Name, &c.Domain, &codesJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan canonical coverage")
		}
		if err := json.Unmarshal([]byte(codesJSON), &c.OntologyCodes); err != nil {
			return nil, eris.Wrapf(err, "sqlite: ontology codes for %s", c.Code)
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: canonical rows")
}

func (s *SQLiteStore) PlanDocumentIDs(ctx context.Context, f model.PlanFilter) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_ids FROM plans WHERE product_code = ? AND (? = '' OR gender = ?) AND (? = 0 OR (? BETWEEN age_min AND age_max))`,
		f.ProductCode, f.Gender, f.Gender, f.Age, f.Age,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: plan documents")
	}
	defer rows.Close()

	var out []string
	seen := make(map[string]bool)
	for rows.Next() {
		var idsJSON string
		if err := rows.Scan(&idsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan plan documents")
		}
		var ids []string
		if err := json.Unmarshal([]byte(idsJSON), &ids); err != nil {
			return nil, eris.Wrap(err, "sqlite: plan document ids")
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, eris.Wrap(rows.Err(), "sqlite: plan rows")
}

func (s *SQLiteStore) UpsertAliases(ctx context.Context, aliases []model.CoverageAlias) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert aliases: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO coverage_aliases (insurer_code, alias, coverage_code, coverage_name, source_doc_type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (insurer_code, alias) DO UPDATE SET
			coverage_code = excluded.coverage_code,
			coverage_name = excluded.coverage_name,
			source_doc_type = excluded.source_doc_type`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert aliases: prepare")
	}
	defer stmt.Close()

	var n int64
	for _, a := range aliases {
		if _, err := stmt.ExecContext(ctx, a.InsurerCode, a.Alias, a.CoverageCode, a.CoverageName, string(a.SourceDocType)); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert alias %s/%s", a.InsurerCode, a.Alias)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert aliases: commit")
	}
	return n, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
