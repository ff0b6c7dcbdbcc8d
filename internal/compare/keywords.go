package compare

import (
	"strings"

	"github.com/planlens/compare-cli/internal/model"
)

// keywordNormalization maps query phrasings to the policy-text term actually
// used in clause headings. Longer phrasings are listed before their
// substrings so the specific form wins.
var keywordNormalization = []struct {
	match   string
	keyword string
}{
	{"경계성종양", "경계성"},
	{"경계성 종양", "경계성"},
	{"갑상선암", "유사암"},
	{"갑상샘암", "유사암"},
	{"상피내암", "제자리암"},
	{"제자리암", "제자리암"},
	{"유사암", "유사암"},
	{"소액암", "유사암"},
	{"경계성", "경계성"},
	{"면책", "면책"},
	{"감액", "감액"},
}

// defaultPolicyKeywords is the fallback set when neither the request nor the
// query yields a policy keyword.
var defaultPolicyKeywords = []string{"경계성", "유사암", "제자리암"}

// resolvePolicyKeywords picks the policy-axis keywords: explicit request
// keywords win, then query-derived normalized terms, then the default set.
func resolvePolicyKeywords(req model.CompareRequest) []string {
	if len(req.PolicyKeywords) > 0 {
		return dedupeStrings(req.PolicyKeywords)
	}

	var derived []string
	for _, entry := range keywordNormalization {
		if strings.Contains(req.Query, entry.match) {
			derived = append(derived, entry.keyword)
		}
	}
	if len(derived) > 0 {
		return dedupeStrings(derived)
	}

	return append([]string(nil), defaultPolicyKeywords...)
}

func dedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
