package compare

import (
	"context"
	"strings"

	"golang.org/x/text/width"

	"github.com/planlens/compare-cli/internal/model"
)

// resolveCoverageCodes returns the coverage codes to compare. Explicit
// request codes are used as-is and recommendation is skipped entirely;
// otherwise up to recommend_limit codes per insurer are recommended from
// alias similarity against the query.
func (e *Engine) resolveCoverageCodes(ctx context.Context, req model.CompareRequest) ([]string, []model.RecommendedCoverage, error) {
	if len(req.CoverageCodes) > 0 {
		return dedupeStrings(req.CoverageCodes), []model.RecommendedCoverage{}, nil
	}

	limit := e.cfg.RecommendLimit
	if limit <= 0 {
		limit = 3
	}

	query := width.Fold.String(req.Query)
	var recommended []model.RecommendedCoverage
	for _, ins := range req.Insurers {
		recs, err := e.recommendForInsurer(ctx, query, ins, limit)
		if err != nil {
			return nil, nil, err
		}
		recommended = append(recommended, recs...)
	}

	codes := recommendedCodes(recommended)
	if len(codes) > 0 {
		return codes, recommended, nil
	}

	// No alias matched anywhere; fall back to a direct resolve of the query
	// so a plain ontology term like 암진단비 still produces one row.
	m, err := e.resolver.Resolve(ctx, req.Query, "", model.DocTypeSummary)
	if err != nil {
		return nil, nil, err
	}
	if m != nil && m.Code != "" {
		return []string{m.Code}, []model.RecommendedCoverage{}, nil
	}
	return []string{}, []model.RecommendedCoverage{}, nil
}

// recommendForInsurer ranks one insurer's aliases by similarity to the query
// and keeps the top distinct codes.
func (e *Engine) recommendForInsurer(ctx context.Context, query, insurer string, limit int) ([]model.RecommendedCoverage, error) {
	aliases, err := e.resolver.AliasesFor(ctx, insurer)
	if err != nil {
		return nil, err
	}

	type scored struct {
		alias model.CoverageAlias
		score int
	}
	var hits []scored
	for _, a := range aliases {
		s := aliasSimilarity(query, a.Alias)
		if s == 0 {
			continue
		}
		hits = append(hits, scored{alias: a, score: s})
	}

	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].score > hits[j-1].score; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	var recs []model.RecommendedCoverage
	seen := make(map[string]bool)
	for _, h := range hits {
		if seen[h.alias.CoverageCode] {
			continue
		}
		seen[h.alias.CoverageCode] = true
		recs = append(recs, model.RecommendedCoverage{
			InsurerCode:  insurer,
			CoverageCode: h.alias.CoverageCode,
			CoverageName: h.alias.CoverageName,
			AliasHit:     h.alias.Alias,
		})
		if len(recs) >= limit {
			break
		}
	}
	return recs, nil
}

// aliasSimilarity scores overlap between a query and one alias. Full
// containment scores by the contained length; otherwise the longest shared
// run of at least two runes counts.
func aliasSimilarity(query, alias string) int {
	alias = width.Fold.String(alias)
	if alias == "" {
		return 0
	}

	if strings.Contains(query, alias) {
		return len([]rune(alias)) * 2
	}
	if strings.Contains(alias, strings.TrimSpace(query)) && len([]rune(strings.TrimSpace(query))) >= 2 {
		return len([]rune(strings.TrimSpace(query))) * 2
	}

	best := 0
	runes := []rune(alias)
	for i := 0; i < len(runes); i++ {
		for j := i + 2; j <= len(runes); j++ {
			if j-i <= best {
				continue
			}
			if strings.Contains(query, string(runes[i:j])) {
				best = j - i
			}
		}
	}
	if best < 2 {
		return 0
	}
	return best
}
