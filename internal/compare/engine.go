// Package compare groups retrieved evidence into a compare axis and a policy
// axis, enforces per-insurer quotas, and resolves one authoritative amount
// per insurer per coverage.
package compare

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/planlens/compare-cli/internal/config"
	"github.com/planlens/compare-cli/internal/coverage"
	"github.com/planlens/compare-cli/internal/extract"
	"github.com/planlens/compare-cli/internal/model"
	"github.com/planlens/compare-cli/internal/refine"
	"github.com/planlens/compare-cli/internal/store"
)

// ErrValidation marks a malformed request. Handlers map it to a 422; nothing
// is partially processed once it fires.
var ErrValidation = eris.New("compare: invalid request")

// EvidenceStore is the retrieval surface the engine needs.
type EvidenceStore interface {
	SearchEvidence(ctx context.Context, p store.SearchParams) ([]model.Evidence, error)
	PlanDocumentIDs(ctx context.Context, f model.PlanFilter) ([]string, error)
}

// Engine runs the two-axis comparison pipeline.
type Engine struct {
	store    EvidenceStore
	resolver *coverage.Resolver
	gate     *refine.Gate
	cfg      config.CompareConfig
}

// NewEngine wires the engine's collaborators.
func NewEngine(st EvidenceStore, resolver *coverage.Resolver, gate *refine.Gate, cfg config.CompareConfig) *Engine {
	return &Engine{store: st, resolver: resolver, gate: gate, cfg: cfg}
}

// Compare executes one comparison request end to end. Per-cell failures
// degrade to empty cells; only request validation is fatal.
func (e *Engine) Compare(ctx context.Context, req model.CompareRequest) (*model.CompareResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	topK := req.TopKPerInsurer
	if topK <= 0 {
		topK = e.cfg.TopKPerInsurer
	}
	compareDocTypes := sanitizeCompareDocTypes(req.CompareDocTypes)
	policyDocTypes := sanitizePolicyDocTypes(req.PolicyDocTypes)

	timing := make(map[string]int64)
	started := time.Now()

	var docIDs []string
	if req.Plan != nil {
		ids, err := e.store.PlanDocumentIDs(ctx, *req.Plan)
		if err != nil {
			return nil, eris.Wrap(err, "compare: plan lookup")
		}
		docIDs = ids
	}

	codes, recommended, err := e.resolveCoverageCodes(ctx, req)
	if err != nil {
		return nil, err
	}
	keywords := resolvePolicyKeywords(req)
	timing["resolve"] = time.Since(started).Milliseconds()

	retrievalStart := time.Now()
	compareAxis := e.retrieveAxis(ctx, axisParams{
		insurers: req.Insurers,
		codes:    codes,
		query:    req.Query,
		docTypes: compareDocTypes,
		docIDs:   docIDs,
		topK:     topK,
	})
	policyAxis := e.retrieveAxis(ctx, axisParams{
		insurers: req.Insurers,
		keywords: keywords,
		query:    req.Query,
		docTypes: policyDocTypes,
		docIDs:   docIDs,
		topK:     topK,
	})
	timing["retrieval"] = time.Since(retrievalStart).Milliseconds()

	resolveStart := time.Now()
	budget := e.gate.NewBudget()
	rows := e.buildRows(ctx, req, codes, compareAxis, budget)
	timing["resolution"] = time.Since(resolveStart).Milliseconds()
	timing["total"] = time.Since(started).Milliseconds()

	return &model.CompareResult{
		RequestID:   uuid.NewString(),
		CompareAxis: compareAxis,
		PolicyAxis:  policyAxis,
		Rows:        rows,
		DiffSummary: diffSummary(rows),
		Debug: model.DebugInfo{
			ResolvedCoverageCodes:      codes,
			ResolvedPolicyKeywords:     keywords,
			RecommendedCoverageCodes:   recommendedCodes(recommended),
			RecommendedCoverageDetails: recommended,
			TimingMS:                   timing,
		},
	}, nil
}

func validate(req model.CompareRequest) error {
	if len(req.Insurers) == 0 {
		return eris.Wrap(ErrValidation, "insurers must not be empty")
	}
	for _, ins := range req.Insurers {
		if strings.TrimSpace(ins) == "" {
			return eris.Wrap(ErrValidation, "insurer codes must not be blank")
		}
	}
	if strings.TrimSpace(req.Query) == "" {
		return eris.Wrap(ErrValidation, "query is required")
	}
	return nil
}

// sanitizeCompareDocTypes drops policy text from the compare axis. Axis
// separation is a correctness rule, so caller-supplied doc types are
// filtered, not trusted.
func sanitizeCompareDocTypes(requested []model.DocType) []model.DocType {
	if len(requested) == 0 {
		return model.DefaultCompareDocTypes()
	}
	var out []model.DocType
	for _, dt := range requested {
		if dt != model.DocTypePolicy {
			out = append(out, dt)
		}
	}
	if len(out) == 0 {
		return model.DefaultCompareDocTypes()
	}
	return out
}

func sanitizePolicyDocTypes(requested []model.DocType) []model.DocType {
	for _, dt := range requested {
		if dt == model.DocTypePolicy {
			return []model.DocType{model.DocTypePolicy}
		}
	}
	return model.DefaultPolicyDocTypes()
}

// axisParams describes one axis retrieval: compare cells iterate codes,
// policy cells iterate keywords.
type axisParams struct {
	insurers []string
	codes    []string
	keywords []string
	query    string
	docTypes []model.DocType
	docIDs   []string
	topK     int
}

// retrieveAxis fans retrieval out per cell. Results land in pre-indexed
// slots so no ordering depends on goroutine completion.
func (e *Engine) retrieveAxis(ctx context.Context, p axisParams) []model.AxisGroup {
	keys := p.codes
	byKeyword := false
	if len(keys) == 0 {
		keys = p.keywords
		byKeyword = true
	}
	if len(keys) == 0 {
		return nil
	}

	groups := make([]model.AxisGroup, 0, len(p.insurers)*len(keys))
	for _, ins := range p.insurers {
		for _, key := range keys {
			g := model.AxisGroup{InsurerCode: ins}
			if byKeyword {
				g.Keyword = key
			} else {
				g.CoverageCode = key
			}
			groups = append(groups, g)
		}
	}

	eg, gctx := errgroup.WithContext(ctx)
	if e.cfg.CellConcurrency > 0 {
		eg.SetLimit(e.cfg.CellConcurrency)
	}
	for i := range groups {
		g := &groups[i]
		eg.Go(func() error {
			evidence, err := e.retrieveCell(gctx, p, g.InsurerCode, g.CoverageCode, g.Keyword)
			if err != nil {
				zap.L().Warn("compare: cell retrieval failed",
					zap.String("insurer", g.InsurerCode),
					zap.String("coverage_code", g.CoverageCode),
					zap.String("keyword", g.Keyword),
					zap.Error(err),
				)
				return nil
			}
			g.Evidence = evidence
			return nil
		})
	}
	_ = eg.Wait()
	return groups
}

func (e *Engine) retrieveCell(ctx context.Context, p axisParams, insurer, code, keyword string) ([]model.Evidence, error) {
	found, err := e.store.SearchEvidence(ctx, store.SearchParams{
		Query:        p.query,
		Insurer:      insurer,
		CoverageCode: code,
		Keyword:      keyword,
		DocTypes:     p.docTypes,
		DocumentIDs:  p.docIDs,
		Limit:        p.topK,
	})
	if err != nil {
		return nil, err
	}

	allowed := make(map[model.DocType]bool, len(p.docTypes))
	for _, dt := range p.docTypes {
		allowed[dt] = true
	}

	// Re-filter after the store: a chunk with a doc type outside the axis is
	// dropped even if the store returned it.
	var out []model.Evidence
	for _, ev := range found {
		if !allowed[ev.DocType] {
			continue
		}
		if len(out) >= p.topK {
			break
		}
		ev.Rank = len(out)
		e.annotate(ctx, &ev, p.query)
		out = append(out, ev)
	}
	return out, nil
}

// annotate runs per-chunk extraction and fills a missing coverage tag.
func (e *Engine) annotate(ctx context.Context, ev *model.Evidence, query string) {
	if ev.Text == "" {
		return
	}

	var info model.AmountInfo
	if wantsLumpSum(query) {
		info = extract.DiagnosisLumpSum(ev.Text, ev.DocType)
	} else {
		info = extract.Amount(ev.Text, ev.DocType)
	}
	ev.Amount = &info
	ev.Condition = extract.Condition(ev.Text)

	if ev.CoverageCode == "" {
		m, err := e.resolver.Resolve(ctx, ev.Text, ev.InsurerCode, ev.DocType)
		if err != nil {
			zap.L().Warn("compare: chunk coverage resolve failed", zap.Error(err))
		} else if m != nil {
			ev.CoverageCode = m.Code
		}
	}
}

// wantsLumpSum switches diagnosis benefits to the lump-sum extractor, which
// filters out daily and per-visit payments.
func wantsLumpSum(query string) bool {
	return strings.Contains(query, "진단")
}

// buildRows assembles one row per coverage code from the compare axis, in
// request insurer order, resolving an amount per cell and offering eligible
// cells to the refinement gate.
func (e *Engine) buildRows(ctx context.Context, req model.CompareRequest, codes []string, compareAxis []model.AxisGroup, budget *refine.Budget) []model.CoverageCompareRow {
	byCell := make(map[string][]model.Evidence)
	for _, g := range compareAxis {
		byCell[g.InsurerCode+"\x00"+g.CoverageCode] = g.Evidence
	}

	rows := make([]model.CoverageCompareRow, 0, len(codes))
	for _, code := range codes {
		row := model.CoverageCompareRow{CoverageCode: code}
		if c, err := e.resolver.CanonicalByCode(ctx, code); err == nil && c != nil {
			row.CoverageName = c.Name
		}

		for _, ins := range req.Insurers {
			evidence := byCell[ins+"\x00"+code]
			cell := model.InsurerCompareCell{
				InsurerCode:   ins,
				DocTypeCounts: docTypeCounts(evidence),
				BestEvidence:  bestEvidence(evidence, e.cfg.BestEvidenceLimit),
			}
			cell.ResolvedAmount = ResolveAmount(evidence)

			resolved, trace := e.gate.Refine(ctx, budget, req.Query, evidence, cell.ResolvedAmount)
			cell.ResolvedAmount = resolved
			cell.LLM = trace

			row.Insurers = append(row.Insurers, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

func docTypeCounts(evidence []model.Evidence) map[model.DocType]int {
	counts := make(map[model.DocType]int)
	for _, ev := range evidence {
		counts[ev.DocType]++
	}
	return counts
}

// diffSummary lists per-insurer resolved values per coverage and flags rows
// where insurers disagree. Factual only.
func diffSummary(rows []model.CoverageCompareRow) []model.DiffEntry {
	entries := make([]model.DiffEntry, 0, len(rows))
	for _, row := range rows {
		entry := model.DiffEntry{
			CoverageCode: row.CoverageCode,
			CoverageName: row.CoverageName,
			Amounts:      make(map[string]*int64, len(row.Insurers)),
		}

		var first *int64
		firstSet := false
		for _, cell := range row.Insurers {
			var v *int64
			if cell.ResolvedAmount != nil {
				v = cell.ResolvedAmount.Value
			}
			entry.Amounts[cell.InsurerCode] = v
			if !firstSet {
				first = v
				firstSet = true
				continue
			}
			if !sameAmount(first, v) {
				entry.Differs = true
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func sameAmount(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func recommendedCodes(recs []model.RecommendedCoverage) []string {
	var codes []string
	seen := make(map[string]bool)
	for _, r := range recs {
		if seen[r.CoverageCode] {
			continue
		}
		seen[r.CoverageCode] = true
		codes = append(codes, r.CoverageCode)
	}
	if codes == nil {
		codes = []string{}
	}
	return codes
}
