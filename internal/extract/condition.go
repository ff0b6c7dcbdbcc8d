package extract

import (
	"strings"

	"github.com/planlens/compare-cli/internal/model"
)

// conditionKeywords score sentences that describe payment conditions.
var conditionKeywords = []string{
	"진단확정", "진단 확정", "최초", "면책", "경계성", "유사암", "제자리암",
	"90일", "감액", "지급사유", "보장개시", "책임개시", "대기기간", "1회에 한하여",
}

// Snippet length limits in runes.
const (
	snippetLimit    = 120
	snippetMinBreak = 84 // 70% of the limit; earliest acceptable word boundary
)

// Condition extracts the best payment-condition sentence from chunk text.
// Returns nil when no sentence carries a condition keyword.
func Condition(text string) *model.ConditionInfo {
	folded := string(foldText(text))
	sentences := splitSentences(folded)

	bestScore := 0
	bestIdx := -1
	for i, sent := range sentences {
		score := 0
		for _, kw := range conditionKeywords {
			score += strings.Count(sent, kw)
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return nil
	}

	chosen := sentences[bestIdx]
	var matched []string
	for _, kw := range conditionKeywords {
		if strings.Contains(chosen, kw) {
			matched = append(matched, kw)
		}
	}

	return &model.ConditionInfo{
		Snippet:      truncateSnippet(chosen),
		MatchedTerms: matched,
	}
}

// splitSentences splits on sentence terminators and drops fragments of five
// runes or fewer.
func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n' || r == ';'
	})
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if len([]rune(s)) <= 5 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// truncateSnippet cuts a sentence to the snippet limit at the nearest word
// boundary past 70% of the limit, appending an ellipsis.
func truncateSnippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetLimit {
		return s
	}

	cut := snippetLimit
	for i := snippetLimit; i >= snippetMinBreak; i-- {
		if runes[i-1] == ' ' {
			cut = i - 1
			break
		}
	}
	return strings.TrimRight(string(runes[:cut]), " ") + "…"
}
