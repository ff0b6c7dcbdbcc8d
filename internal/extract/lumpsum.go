package extract

import (
	"github.com/planlens/compare-cli/internal/model"
)

// DiagnosisLumpSum extracts a one-time diagnosis benefit amount. It rejects
// candidates adjacent to daily/outpatient payout wording and prefers explicit
// lump-sum phrasing. When the whole chunk holds exactly one surviving
// candidate, that candidate is accepted at medium confidence — a chunk
// retrieved for a diagnosis coverage with a single clean amount almost
// always is that amount.
func DiagnosisLumpSum(text string, docType model.DocType) model.AmountInfo {
	folded := foldText(text)
	cands := scanCandidates(folded)
	if len(cands) == 0 {
		return model.AmountInfo{Confidence: model.ConfidenceLow, Method: MethodNoCandidate}
	}

	var kept []candidate
	for _, c := range cands {
		if !c.hasUnit {
			continue
		}
		if _, hit := containsAny(window(folded, c.start, c.end, negativeWindow), recurringKeywords); hit {
			continue
		}
		if _, hit := containsAny(window(folded, c.start, c.end, negativeWindow), premiumKeywords); hit {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return model.AmountInfo{Confidence: model.ConfidenceLow, Method: MethodNoBenefitSignal}
	}

	// Lump-sum phrasing nearby wins outright.
	for _, c := range kept {
		if _, hit := containsAny(window(folded, c.start, c.end, premiumWindow), lumpSumKeywords); hit {
			return finishAmount(c, model.ConfidenceHigh, MethodKeywordProximity)
		}
	}

	// Single-candidate fallback.
	if len(kept) == 1 {
		return finishAmount(kept[0], model.ConfidenceMedium, MethodSingleLumpSum)
	}

	// Multiple ambiguous candidates: defer to the doc-type-aware extractor
	// rather than guessing among them.
	return Amount(text, docType)
}
