// Package store reads the pre-ingested evidence, alias, canonical coverage
// and plan tables. The pipeline only reads these tables at request time;
// writes happen through migrate and seed commands.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/planlens/compare-cli/internal/config"
	"github.com/planlens/compare-cli/internal/model"
)

// SearchParams selects evidence chunks for one retrieval cell. Exactly one
// of CoverageCode or Keyword is set per cell.
type SearchParams struct {
	Query        string
	Insurer      string
	CoverageCode string
	Keyword      string
	DocTypes     []model.DocType
	DocumentIDs  []string
	Limit        int
}

// Store is the persistence surface consumed by the compare pipeline.
type Store interface {
	SearchEvidence(ctx context.Context, p SearchParams) ([]model.Evidence, error)
	ListAliases(ctx context.Context, insurer string) ([]model.CoverageAlias, error)
	ListCanonicalCoverages(ctx context.Context) ([]model.CanonicalCoverage, error)
	PlanDocumentIDs(ctx context.Context, f model.PlanFilter) ([]string, error)
	UpsertAliases(ctx context.Context, aliases []model.CoverageAlias) (int64, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store backend named by the configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case "sqlite":
		return OpenSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
