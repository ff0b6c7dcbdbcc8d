// Package coverage maps free text to canonical coverage codes using a
// tiered matcher: insurer alias table, clause-header patterns for policy
// text, and a built-in ontology fallback with canonical remap.
package coverage

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/width"

	"github.com/planlens/compare-cli/internal/model"
)

// Catalog supplies the DB-backed alias and canonical coverage tables.
type Catalog interface {
	ListAliases(ctx context.Context, insurer string) ([]model.CoverageAlias, error)
	ListCanonicalCoverages(ctx context.Context) ([]model.CanonicalCoverage, error)
}

// Resolver resolves coverage text. Alias and canonical caches are read-mostly,
// loaded lazily on first miss, and shared across requests behind a RWMutex.
type Resolver struct {
	catalog  Catalog
	ontology []ontologyAlias

	mu          sync.RWMutex
	aliases     map[string][]model.CoverageAlias
	canon       []model.CanonicalCoverage
	remap       map[string]model.CanonicalCoverage
	canonLoaded bool
}

// NewResolver creates a Resolver over the given catalog.
func NewResolver(catalog Catalog) (*Resolver, error) {
	ontology, err := loadOntology()
	if err != nil {
		return nil, err
	}
	return &Resolver{
		catalog:  catalog,
		ontology: ontology,
		aliases:  make(map[string][]model.CoverageAlias),
		remap:    make(map[string]model.CanonicalCoverage),
	}, nil
}

// Invalidate drops all cached tables; the next lookup reloads them.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases = make(map[string][]model.CoverageAlias)
	r.canon = nil
	r.remap = make(map[string]model.CanonicalCoverage)
	r.canonLoaded = false
}

// Resolve maps free text to a coverage match, or nil when nothing matches.
// Policy text is matched against structural headers only.
func (r *Resolver) Resolve(ctx context.Context, text, insurer string, docType model.DocType) (*model.CoverageMatch, error) {
	folded := width.Fold.String(text)

	if docType == model.DocTypePolicy {
		return r.resolvePolicyText(ctx, folded, insurer)
	}

	aliases, err := r.aliasesFor(ctx, insurer)
	if err != nil {
		return nil, err
	}
	if docType == model.DocTypeEnrollment {
		aliases = filterBySourceDocType(aliases, model.DocTypeEnrollment)
	}

	if m := matchAliases(folded, aliases); m != nil {
		return m, nil
	}

	return r.resolveOntology(ctx, folded)
}

// resolvePolicyText matches only clause headers, first against the alias
// table, then the ontology. Body prose is never searched.
func (r *Resolver) resolvePolicyText(ctx context.Context, folded, insurer string) (*model.CoverageMatch, error) {
	headers := clauseHeaders(folded)
	if len(headers) == 0 {
		return nil, nil
	}

	aliases, err := r.aliasesFor(ctx, insurer)
	if err != nil {
		return nil, err
	}

	for _, h := range headers {
		if m := matchAliases(h.title, aliases); m != nil {
			m.Position = h.position
			m.MatchSource = model.MatchSourceClauseHeader
			m.Confidence = model.ConfidenceHigh
			m.TagSource = "clause_header"
			return m, nil
		}
	}
	for _, h := range headers {
		om, err := r.resolveOntology(ctx, h.title)
		if err != nil {
			return nil, err
		}
		if om != nil && om.Code != "" {
			om.Position = h.position
			om.MatchSource = model.MatchSourceClauseHeader
			om.Confidence = model.ConfidenceHigh
			om.TagSource = "clause_header"
			return om, nil
		}
	}
	return nil, nil
}

// resolveOntology scans the built-in ontology longest-alias-first and remaps
// hits through the canonical table. A hit with no canonical mapping keeps an
// empty code: the canonical code space never contains unverified values.
func (r *Resolver) resolveOntology(ctx context.Context, folded string) (*model.CoverageMatch, error) {
	if err := r.ensureCanonical(ctx); err != nil {
		return nil, err
	}

	best := -1
	var bestHit ontologyAlias
	for _, oa := range r.ontology {
		idx := strings.Index(folded, oa.alias)
		if idx < 0 {
			continue
		}
		pos := len([]rune(folded[:idx]))
		if best < 0 || pos < best {
			best = pos
			bestHit = oa
		}
	}
	if best < 0 {
		return nil, nil
	}

	r.mu.RLock()
	canonical, ok := r.remap[bestHit.entry.Code]
	r.mu.RUnlock()

	if !ok {
		zap.L().Debug("coverage: ontology hit without canonical remap",
			zap.String("ontology_code", bestHit.entry.Code),
			zap.String("alias", bestHit.alias),
		)
		return &model.CoverageMatch{
			Name:         bestHit.entry.Name,
			AliasHit:     bestHit.alias,
			Position:     best,
			MatchSource:  model.MatchSourceFallbackUnmapped,
			OntologyCode: bestHit.entry.Code,
			TagSource:    "ontology",
			Confidence:   model.ConfidenceLow,
		}, nil
	}

	return &model.CoverageMatch{
		Code:         canonical.Code,
		Name:         canonical.Name,
		AliasHit:     bestHit.alias,
		Position:     best,
		MatchSource:  model.MatchSourceFallbackRemap,
		OntologyCode: bestHit.entry.Code,
		TagSource:    "ontology",
		Confidence:   model.ConfidenceLow,
	}, nil
}

// ExtractAll returns every distinct coverage matched in one text, ordered by
// first occurrence, for chunks describing several coverages at once.
func (r *Resolver) ExtractAll(ctx context.Context, text, insurer string) ([]model.CoverageMatch, error) {
	folded := width.Fold.String(text)

	aliases, err := r.aliasesFor(ctx, insurer)
	if err != nil {
		return nil, err
	}
	if err := r.ensureCanonical(ctx); err != nil {
		return nil, err
	}

	var matches []model.CoverageMatch
	seen := make(map[string]bool)

	record := func(m model.CoverageMatch) {
		key := m.Code
		if key == "" {
			key = "name:" + m.Name
		}
		if seen[key] {
			return
		}
		seen[key] = true
		matches = append(matches, m)
	}

	for _, a := range aliases {
		idx := strings.Index(folded, a.Alias)
		if idx < 0 {
			continue
		}
		record(model.CoverageMatch{
			Code:        a.CoverageCode,
			Name:        a.CoverageName,
			AliasHit:    a.Alias,
			Position:    len([]rune(folded[:idx])),
			MatchSource: model.MatchSourceMapping,
			Confidence:  model.ConfidenceHigh,
		})
	}

	for _, oa := range r.ontology {
		idx := strings.Index(folded, oa.alias)
		if idx < 0 {
			continue
		}
		pos := len([]rune(folded[:idx]))

		r.mu.RLock()
		canonical, ok := r.remap[oa.entry.Code]
		r.mu.RUnlock()

		if ok {
			record(model.CoverageMatch{
				Code:         canonical.Code,
				Name:         canonical.Name,
				AliasHit:     oa.alias,
				Position:     pos,
				MatchSource:  model.MatchSourceFallbackRemap,
				OntologyCode: oa.entry.Code,
				TagSource:    "ontology",
				Confidence:   model.ConfidenceLow,
			})
		} else {
			record(model.CoverageMatch{
				Name:         oa.entry.Name,
				AliasHit:     oa.alias,
				Position:     pos,
				MatchSource:  model.MatchSourceFallbackUnmapped,
				OntologyCode: oa.entry.Code,
				TagSource:    "ontology",
				Confidence:   model.ConfidenceLow,
			})
		}
	}

	// Order by first occurrence.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Position < matches[j-1].Position; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	return matches, nil
}

// AliasesFor exposes the cached alias table for one insurer; used by the
// compare engine's coverage recommendation.
func (r *Resolver) AliasesFor(ctx context.Context, insurer string) ([]model.CoverageAlias, error) {
	return r.aliasesFor(ctx, insurer)
}

// CanonicalByCode returns the canonical coverage entry for a code, or nil.
func (r *Resolver) CanonicalByCode(ctx context.Context, code string) (*model.CanonicalCoverage, error) {
	if err := r.ensureCanonical(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.canon {
		if r.canon[i].Code == code {
			c := r.canon[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (r *Resolver) aliasesFor(ctx context.Context, insurer string) ([]model.CoverageAlias, error) {
	r.mu.RLock()
	cached, ok := r.aliases[insurer]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	loaded, err := r.catalog.ListAliases(ctx, insurer)
	if err != nil {
		return nil, eris.Wrapf(err, "coverage: load aliases for %s", insurer)
	}

	r.mu.Lock()
	r.aliases[insurer] = loaded
	r.mu.Unlock()
	return loaded, nil
}

func (r *Resolver) ensureCanonical(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.canonLoaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	canon, err := r.catalog.ListCanonicalCoverages(ctx)
	if err != nil {
		return eris.Wrap(err, "coverage: load canonical coverages")
	}

	remap := make(map[string]model.CanonicalCoverage)
	for _, c := range canon {
		for _, oc := range c.OntologyCodes {
			remap[oc] = c
		}
	}

	r.mu.Lock()
	r.canon = canon
	r.remap = remap
	r.canonLoaded = true
	r.mu.Unlock()
	return nil
}

// matchAliases finds the earliest alias occurrence in folded text; ties go
// to the longer alias. Substring matching runs in both directions so a short
// query like "암진단비" still hits the longer stored alias.
func matchAliases(folded string, aliases []model.CoverageAlias) *model.CoverageMatch {
	trimmed := strings.TrimSpace(folded)

	bestPos := -1
	bestLen := 0
	var best *model.CoverageAlias
	for i := range aliases {
		a := &aliases[i]
		aliasLen := len([]rune(a.Alias))
		if aliasLen < 2 {
			continue
		}

		pos := -1
		if idx := strings.Index(folded, a.Alias); idx >= 0 {
			pos = len([]rune(folded[:idx]))
		} else if len([]rune(trimmed)) >= 2 && strings.Contains(a.Alias, trimmed) {
			pos = 0
		}
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos || (pos == bestPos && aliasLen > bestLen) {
			bestPos = pos
			bestLen = aliasLen
			best = a
		}
	}
	if best == nil {
		return nil
	}

	return &model.CoverageMatch{
		Code:        best.CoverageCode,
		Name:        best.CoverageName,
		AliasHit:    best.Alias,
		Position:    bestPos,
		MatchSource: model.MatchSourceMapping,
		Confidence:  model.ConfidenceHigh,
	}
}

func filterBySourceDocType(aliases []model.CoverageAlias, docType model.DocType) []model.CoverageAlias {
	var out []model.CoverageAlias
	for _, a := range aliases {
		if a.SourceDocType == docType {
			out = append(out, a)
		}
	}
	return out
}
