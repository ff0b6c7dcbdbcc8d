package extract

import (
	"strings"

	"github.com/planlens/compare-cli/internal/model"
)

// Extraction method labels recorded in AmountInfo.Method.
const (
	MethodKeywordProximity = "keyword_proximity"
	MethodFirstCandidate   = "first_candidate"
	MethodTableBlock       = "table_block"
	MethodWideWindow       = "wide_window"
	MethodNoUnit           = "no_unit"
	MethodNoCandidate      = "no_candidate"
	MethodNoBenefitSignal  = "no_benefit_signal"
	MethodSingleLumpSum    = "single_evidence_lump_sum"
)

// Amount extracts the benefit amount from one chunk of document text.
// Enrollment documents (가입설계서) use a strict tabular mode because their
// premium and benefit columns are easily confused; every other doc type uses
// keyword-proximity scoring. Absence of a positive signal always resolves to
// no amount.
func Amount(text string, docType model.DocType) model.AmountInfo {
	if docType == model.DocTypeEnrollment {
		return amountStrict(text)
	}
	return amountDefault(text)
}

// amountDefault handles 상품요약서, 사업방법서 and untyped text.
func amountDefault(text string) model.AmountInfo {
	folded := foldText(text)
	cands := scanCandidates(folded)
	if len(cands) == 0 {
		return model.AmountInfo{Confidence: model.ConfidenceLow, Method: MethodNoCandidate}
	}

	// Drop candidates sitting next to premium wording.
	kept := cands[:0]
	for _, c := range cands {
		if _, hit := containsAny(window(folded, c.start, c.end, premiumWindow), premiumKeywords); hit {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return model.AmountInfo{Confidence: model.ConfidenceLow, Method: MethodNoCandidate}
	}

	// Prefer a candidate with benefit wording nearby, else first by position.
	for _, c := range kept {
		if _, hit := containsAny(window(folded, c.start, c.end, amountWindow), amountKeywords); hit {
			return finishAmount(c, model.ConfidenceHigh, MethodKeywordProximity)
		}
	}
	return finishAmount(kept[0], model.ConfidenceMedium, MethodFirstCandidate)
}

// amountStrict handles 가입설계서 text. When a table structure is present,
// candidates are accepted only inside coverage blocks and outside premium
// blocks; when PDF extraction flattened the table into one line, a wide
// keyword window is required instead.
func amountStrict(text string) model.AmountInfo {
	folded := foldText(text)
	cands := scanCandidates(folded)
	if len(cands) == 0 {
		return model.AmountInfo{Confidence: model.ConfidenceLow, Method: MethodNoCandidate}
	}

	lines := strings.Split(string(folded), "\n")
	if len(lines) >= 3 {
		return amountFromTable(folded, lines, cands)
	}
	return amountFromFlattened(folded, cands)
}

// blockRange is an inclusive line range.
type blockRange struct{ lo, hi int }

func (b blockRange) contains(line int) bool { return line >= b.lo && line <= b.hi }

// amountFromTable applies the block model: premium headers poison lines
// −1..+3, coverage headers open lines 0..+5.
func amountFromTable(folded []rune, lines []string, cands []candidate) model.AmountInfo {
	var premiumBlocks, coverageBlocks []blockRange
	for i, line := range lines {
		if _, hit := containsAny(line, premiumHeaderTokens); hit {
			premiumBlocks = append(premiumBlocks, blockRange{lo: i - 1, hi: i + 3})
		}
		if _, hit := containsAny(line, coverageHeaderTokens); hit {
			coverageBlocks = append(coverageBlocks, blockRange{lo: i, hi: i + 5})
		}
	}

	for _, c := range cands {
		inCoverage := false
		for _, b := range coverageBlocks {
			if b.contains(c.line) {
				inCoverage = true
				break
			}
		}
		if !inCoverage {
			continue
		}
		inPremium := false
		for _, b := range premiumBlocks {
			if b.contains(c.line) {
				inPremium = true
				break
			}
		}
		if inPremium {
			continue
		}
		if _, hit := containsAny(window(folded, c.start, c.end, negativeWindow), premiumKeywords); hit {
			continue
		}
		if _, hit := containsAny(lines[c.line], premiumHeaderTokens); hit {
			continue
		}

		conf := model.ConfidenceMedium
		if _, hit := containsAny(window(folded, c.start, c.end, amountWindow), amountKeywords); hit {
			conf = model.ConfidenceHigh
		}
		return finishAmount(c, conf, MethodTableBlock)
	}

	return model.AmountInfo{Confidence: model.ConfidenceLow, Method: MethodNoBenefitSignal}
}

// amountFromFlattened handles enrollment text whose table collapsed into a
// single line during PDF extraction.
func amountFromFlattened(folded []rune, cands []candidate) model.AmountInfo {
	for _, c := range cands {
		wide := window(folded, c.start, c.end, wideWindow)
		if _, hit := containsAny(wide, amountKeywords); !hit {
			continue
		}
		if _, hit := containsAny(window(folded, c.start, c.end, negativeWindow), premiumKeywords); hit {
			continue
		}

		conf := model.ConfidenceMedium
		if _, hit := containsAny(window(folded, c.start, c.end, amountWindow), amountKeywords); hit {
			conf = model.ConfidenceHigh
		}
		return finishAmount(c, conf, MethodWideWindow)
	}

	return model.AmountInfo{Confidence: model.ConfidenceLow, Method: MethodNoBenefitSignal}
}

// finishAmount builds the AmountInfo, downgrading unitless candidates to a
// nil value: a bare number is never reported as an amount.
func finishAmount(c candidate, conf model.Confidence, method string) model.AmountInfo {
	if !c.hasUnit {
		return model.AmountInfo{
			Text:       c.text,
			Confidence: model.ConfidenceLow,
			Method:     MethodNoUnit,
		}
	}
	v := c.value
	return model.AmountInfo{
		Value:      &v,
		Text:       c.text,
		Unit:       c.unit,
		Confidence: conf,
		Method:     method,
	}
}
