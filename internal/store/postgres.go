package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/planlens/compare-cli/internal/db"
	"github.com/planlens/compare-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements lists queries to prepare on each new connection. The
// evidence search is built dynamically and is not prepared.
var preparedStatements = map[string]string{
	"list_aliases":   `SELECT id, insurer_code, alias, coverage_code, coverage_name, COALESCE(source_doc_type, '') FROM coverage_aliases WHERE ($1 = '' OR insurer_code = $1)`,
	"list_canonical": `SELECT code, name, COALESCE(domain, ''), ontology_codes FROM canonical_coverages`,
	"plan_docs":      `SELECT document_ids FROM plans WHERE product_code = $1 AND ($2 = '' OR gender = $2) AND ($3 = 0 OR ($3 BETWEEN age_min AND age_max))`,
}

// OpenPostgres creates a PostgresStore with a connection pool.
func OpenPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; tests inject pgxmock here.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for the seed command's bulk
// upsert path.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS chunks (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id   TEXT NOT NULL,
	insurer_code  TEXT NOT NULL,
	doc_type      TEXT NOT NULL,
	page_start    INT NOT NULL DEFAULT 0,
	content       TEXT NOT NULL,
	coverage_code TEXT,
	score         DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS coverage_aliases (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	ontology_codes TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS plans (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	product_code TEXT NOT NULL,
	insurer_code TEXT NOT NULL,
	gender       TEXT NOT NULL DEFAULT '',
	age_min      INT NOT NULL DEFAULT 0,
	age_max      INT NOT NULL DEFAULT 200,
	document_ids TEXT[] NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_chunks_insurer_doctype ON chunks(insurer_code, doc_type);
CREATE INDEX IF NOT EXISTS idx_chunks_coverage ON chunks(coverage_code);
CREATE INDEX IF NOT EXISTS idx_aliases_insurer ON coverage_aliases(insurer_code);
CREATE INDEX IF NOT EXISTS idx_plans_product ON plans(product_code);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SearchEvidence selects chunks for one retrieval cell, best score first.
func (s *PostgresStore) SearchEvidence(ctx context.Context, p SearchParams) ([]model.Evidence, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT document_id, insurer_code, doc_type, page_start, content, COALESCE(coverage_code, ''), score FROM chunks WHERE insurer_code = $1`)
	args = append(args, p.Insurer)

	if len(p.DocTypes) > 0 {
		args = append(args, docTypeStrings(p.DocTypes))
		fmt.Fprintf(&sb, " AND doc_type = ANY($%d)", len(args))
	}
	if p.CoverageCode != "" {
		args = append(args, p.CoverageCode)
		fmt.Fprintf(&sb, " AND coverage_code = $%d", len(args))
	}
	if p.Keyword != "" {
		args = append(args, "%"+p.Keyword+"%")
		fmt.Fprintf(&sb, " AND content LIKE $%d", len(args))
	}
	if len(p.DocumentIDs) > 0 {
		args = append(args, p.DocumentIDs)
		fmt.Fprintf(&sb, " AND document_id = ANY($%d)", len(args))
	}

	sb.WriteString(" ORDER BY score DESC")
	if p.Limit > 0 {
		args = append(args, p.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search evidence")
	}
	defer rows.Close()

	var out []model.Evidence
	for rows.Next() {
		var ev model.Evidence
		var docType string
		if err := rows.Scan(&ev.DocumentID, &ev.InsurerCode, &docType, &ev.PageStart, &ev.Text, &ev.CoverageCode, &ev.Score); err != nil {
			return nil, eris.Wrap(err, "postgres: scan evidence")
		}
		ev.DocType = model.DocType(docType)
		ev.Preview = Preview(ev.Text)
		out = append(out, ev)
	}
	return out, eris.Wrap(rows.Err(), "postgres: evidence rows")
}

func (s *PostgresStore) ListAliases(ctx context.Context, insurer string) ([]model.CoverageAlias, error) {
	rows, err := s.pool.Query(ctx, preparedStatements["list_aliases"], insurer)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list aliases")
	}
	defer rows.Close()

	var out []model.CoverageAlias
	for rows.Next() {
		var a model.CoverageAlias
		var sourceDocType string
		if err := rows.Scan(&a.ID, &a.InsurerCode, &a.Alias, &a.CoverageCode, &a.CoverageName, &sourceDocType); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alias")
		}
		a.SourceDocType = model.DocType(sourceDocType)
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: alias rows")
}

func (s *PostgresStore) ListCanonicalCoverages(ctx context.Context) ([]model.CanonicalCoverage, error) {
	rows, err := s.pool.Query(ctx, preparedStatements["list_canonical"])
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list canonical coverages")
	}
	defer rows.Close()

	var out []model.CanonicalCoverage
	for rows.Next() {
		var c model.CanonicalCoverage
		if err := rows.Scan(&c.Code, &c.Name, &c.Domain, &c.OntologyCodes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan canonical coverage")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: canonical rows")
}

// PlanDocumentIDs unions the document id lists of every plan row matching
// the filter.
func (s *PostgresStore) PlanDocumentIDs(ctx context.Context, f model.PlanFilter) ([]string, error) {
	rows, err := s.pool.Query(ctx, preparedStatements["plan_docs"], f.ProductCode, f.Gender, f.Age)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: plan documents")
	}
	defer rows.Close()

	var out []string
	seen := make(map[string]bool)
	for rows.Next() {
		var ids []string
		if err := rows.Scan(&ids); err != nil {
			return nil, eris.Wrap(err, "postgres: scan plan documents")
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, eris.Wrap(rows.Err(), "postgres: plan rows")
}

// UpsertAliases bulk-loads alias rows, replacing existing (insurer, alias)
// pairs.
func (s *PostgresStore) UpsertAliases(ctx context.Context, aliases []model.CoverageAlias) (int64, error) {
	rows := make([][]any, 0, len(aliases))
	for _, a := range aliases {
		rows = append(rows, []any{a.InsurerCode, a.Alias, a.CoverageCode, a.CoverageName, string(a.SourceDocType)})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "coverage_aliases",
		Columns:      []string{"insurer_code", "alias", "coverage_code", "coverage_name", "source_doc_type"},
		ConflictKeys: []string{"insurer_code", "alias"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert aliases")
	}
	return n, nil
}

func docTypeStrings(docTypes []model.DocType) []string {
	out := make([]string, len(docTypes))
	for i, dt := range docTypes {
		out[i] = string(dt)
	}
	return out
}

// Preview truncates chunk content for response payloads.
func Preview(text string) string {
	const previewRunes = 200
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "…"
}
