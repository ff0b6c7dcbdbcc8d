// Package anchor tracks the coverage context of a conversational session so
// an insurer-only follow-up like "메리츠는?" reuses the prior coverage
// instead of re-deriving it.
package anchor

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/planlens/compare-cli/internal/model"
)

// CoverageMatcher resolves free text to a coverage match; satisfied by
// coverage.Resolver.
type CoverageMatcher interface {
	Resolve(ctx context.Context, text, insurer string, docType model.DocType) (*model.CoverageMatch, error)
}

// insurerAliases maps Korean insurer names to stable insurer codes.
var insurerAliases = []struct {
	alias string
	code  string
}{
	{"삼성화재", "SAMSUNG"},
	{"삼성", "SAMSUNG"},
	{"메리츠화재", "MERITZ"},
	{"메리츠", "MERITZ"},
	{"DB손해보험", "DB"},
	{"DB손보", "DB"},
	{"디비", "DB"},
	{"DB", "DB"},
	{"현대해상", "HYUNDAI"},
	{"현대", "HYUNDAI"},
	{"KB손해보험", "KB"},
	{"KB손보", "KB"},
	{"케이비", "KB"},
	{"KB", "KB"},
	{"한화손해보험", "HANWHA"},
	{"한화", "HANWHA"},
	{"롯데손해보험", "LOTTE"},
	{"롯데", "LOTTE"},
	{"흥국화재", "HEUNGKUK"},
	{"흥국", "HEUNGKUK"},
}

// domainKeywords flag a query as carrying its own coverage context. Listed
// longest-first so the specific subtype wins the domain assignment.
var domainKeywords = []struct {
	keyword string
	domain  string
}{
	{"급성심근경색", "heart"},
	{"심근경색", "heart"},
	{"입원일당", "hospitalization"},
	{"경계성종양", "cancer"},
	{"제자리암", "cancer"},
	{"상피내암", "cancer"},
	{"갑상선암", "cancer"},
	{"유사암", "cancer"},
	{"뇌졸중", "brain"},
	{"뇌출혈", "brain"},
	{"수술비", "surgery"},
	{"암", "cancer"},
	{"진단비", ""},
}

// Resolution is the outcome of classifying one query against session state.
type Resolution struct {
	Class    model.QueryClass
	Anchor   *model.QueryAnchor
	Insurers []string
}

type session struct {
	anchor    model.QueryAnchor
	updatedAt time.Time
}

// Tracker holds per-session anchors. Sessions are owned by the tracker
// instance, never process-global; callers scope one tracker per service.
type Tracker struct {
	matcher CoverageMatcher
	maxAge  time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewTracker creates a tracker; sessions idle past maxAge are pruned lazily.
func NewTracker(matcher CoverageMatcher, maxAge time.Duration) *Tracker {
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	return &Tracker{
		matcher:  matcher,
		maxAge:   maxAge,
		sessions: make(map[string]*session),
	}
}

// Apply classifies a query against the session's anchor and updates state.
func (t *Tracker) Apply(ctx context.Context, sessionID, query string) (Resolution, error) {
	t.prune()

	insurers := ExtractInsurers(query)
	keyword, domain, hasCoverage := matchDomainKeyword(query)

	if hasCoverage {
		anchor := model.QueryAnchor{
			CoverageName:  keyword,
			Domain:        domain,
			OriginalQuery: query,
		}
		if t.matcher != nil {
			m, err := t.matcher.Resolve(ctx, query, "", model.DocTypeSummary)
			if err != nil {
				return Resolution{}, err
			}
			if m != nil {
				anchor.CoverageCode = m.Code
				if m.Name != "" {
					anchor.CoverageName = m.Name
				}
			}
		}
		t.set(sessionID, anchor)
		return Resolution{
			Class:    model.QueryClassNew,
			Anchor:   &anchor,
			Insurers: insurers,
		}, nil
	}

	if prior, ok := t.get(sessionID); ok && (len(insurers) > 0 || availabilityPhrasing(query)) {
		t.touch(sessionID)
		zap.L().Debug("anchor: insurer-only follow-up",
			zap.String("session_id", sessionID),
			zap.String("coverage_code", prior.CoverageCode),
			zap.Strings("insurers", insurers),
		)
		return Resolution{
			Class:    model.QueryClassInsurerOnly,
			Anchor:   &prior,
			Insurers: insurers,
		}, nil
	}

	return Resolution{Class: model.QueryClassNew, Insurers: insurers}, nil
}

// Reset drops one session's anchor.
func (t *Tracker) Reset(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}

// ExtractInsurers returns the insurer codes named in a query, in order of
// appearance, deduplicated.
func ExtractInsurers(query string) []string {
	type hit struct {
		code string
		pos  int
	}
	var hits []hit
	seen := make(map[string]bool)
	for _, a := range insurerAliases {
		idx := strings.Index(query, a.alias)
		if idx < 0 || seen[a.code] {
			continue
		}
		seen[a.code] = true
		hits = append(hits, hit{code: a.code, pos: idx})
	}

	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	var codes []string
	for _, h := range hits {
		codes = append(codes, h.code)
	}
	return codes
}

func matchDomainKeyword(query string) (keyword, domain string, ok bool) {
	for _, dk := range domainKeywords {
		if strings.Contains(query, dk.keyword) {
			return dk.keyword, dk.domain, true
		}
	}
	return "", "", false
}

// availabilityPhrasing catches generic "is it available?" follow-ups that
// name no insurer alias we know.
func availabilityPhrasing(query string) bool {
	q := strings.TrimSpace(query)
	for _, suffix := range []string{"는?", "은?", "도?", "도 돼?", "도 되나요?", "는 어때?", "은 어때?"} {
		if strings.HasSuffix(q, suffix) {
			return true
		}
	}
	return false
}

func (t *Tracker) set(sessionID string, anchor model.QueryAnchor) {
	if sessionID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sessionID] = &session{anchor: anchor, updatedAt: time.Now()}
}

func (t *Tracker) get(sessionID string) (model.QueryAnchor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[sessionID]
	if !ok {
		return model.QueryAnchor{}, false
	}
	return s.anchor, true
}

func (t *Tracker) touch(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[sessionID]; ok {
		s.updatedAt = time.Now()
	}
}

func (t *Tracker) prune() {
	cutoff := time.Now().Add(-t.maxAge)
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, s := range t.sessions {
		if s.updatedAt.Before(cutoff) {
			delete(t.sessions, id)
		}
	}
}
