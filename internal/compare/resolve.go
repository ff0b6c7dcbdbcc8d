package compare

import (
	"github.com/planlens/compare-cli/internal/model"
)

// docTypePriority ranks compare-axis sources. Summary documents are the most
// reliable amount source, business-method next, enrollment tables last.
// Higher wins.
var docTypePriority = map[model.DocType]int{
	model.DocTypeSummary:    3,
	model.DocTypeMethod:     2,
	model.DocTypeEnrollment: 1,
}

// ResolveAmount picks the single authoritative amount for one cell.
// Doc-type priority dominates confidence: a medium match in a higher-priority
// doc type beats a high match in a lower-priority one.
func ResolveAmount(evidence []model.Evidence) *model.ResolvedAmount {
	usable := make(map[model.DocType][]model.Evidence)
	for _, ev := range evidence {
		if ev.Amount == nil || ev.Amount.Value == nil {
			continue
		}
		// Enrollment tables are the noisiest source; low-confidence hits
		// from them are never accepted, even with no other evidence.
		if ev.DocType == model.DocTypeEnrollment && ev.Amount.Confidence == model.ConfidenceLow {
			continue
		}
		usable[ev.DocType] = append(usable[ev.DocType], ev)
	}

	var bestType model.DocType
	bestPriority := 0
	for dt := range usable {
		if p := docTypePriority[dt]; p > bestPriority {
			bestPriority = p
			bestType = dt
		}
	}
	if bestPriority == 0 {
		return nil
	}

	candidates := usable[bestType]
	chosen := candidates[0]
	for _, ev := range candidates {
		if ev.Amount.Confidence == model.ConfidenceHigh {
			chosen = ev
			break
		}
	}

	return &model.ResolvedAmount{
		Value:            chosen.Amount.Value,
		Text:             chosen.Amount.Text,
		Unit:             chosen.Amount.Unit,
		Confidence:       chosen.Amount.Confidence,
		SourceDocType:    chosen.DocType,
		SourceDocumentID: chosen.DocumentID,
	}
}

// bestEvidence keeps at most limit items, ordered by doc-type priority then
// retrieval rank.
func bestEvidence(evidence []model.Evidence, limit int) []model.Evidence {
	if limit <= 0 {
		limit = 2
	}

	sorted := make([]model.Evidence, len(evidence))
	copy(sorted, evidence)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && lessEvidence(sorted[j], sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func lessEvidence(a, b model.Evidence) bool {
	pa, pb := docTypePriority[a.DocType], docTypePriority[b.DocType]
	if pa != pb {
		return pa > pb
	}
	return a.Rank < b.Rank
}
