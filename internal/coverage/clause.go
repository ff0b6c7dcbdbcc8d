package coverage

import (
	"regexp"
	"strconv"
	"strings"
)

// Policy text (약관) is matched only against structural headers, never body
// prose: a 200-page policy mentions every coverage name in passing, so prose
// matching would tag nearly everything.
var (
	// articlePattern matches numbered articles with a parenthetical title,
	// e.g. "제12조(암진단비의 지급)".
	articlePattern = regexp.MustCompile(`제\s*[0-9０-９]+\s*조(?:의\s*[0-9０-９]+)?\s*[\(（]([^\)）]+)[\)）]`)

	// bracketPattern matches bracketed or angle-bracketed section titles,
	// e.g. "【암진단비 특별약관】" or "<유사암진단비 특약>".
	bracketPattern = regexp.MustCompile(`[\[【〈<]([^\]】〉>]+)[\]】〉>]`)

	// riderItemPattern matches numbered list items naming a rider,
	// e.g. "3. 암진단비 특별약관".
	riderItemPattern = regexp.MustCompile(`(?m)^\s*[0-9０-９]+\s*[\.\)]\s*(.+?(?:특약|특별약관))\s*$`)
)

// headerCandidate is one structural header found in policy text.
type headerCandidate struct {
	title    string
	position int // rune offset of the match start
}

// clauseHeaders extracts every structural header candidate in order of
// appearance.
func clauseHeaders(text string) []headerCandidate {
	var out []headerCandidate
	seen := make(map[string]bool)

	collect := func(re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			title := strings.TrimSpace(text[m[2]:m[3]])
			if title == "" {
				continue
			}
			key := title + "@" + strconv.Itoa(m[0])
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, headerCandidate{
				title:    title,
				position: len([]rune(text[:m[0]])),
			})
		}
	}

	collect(articlePattern)
	collect(bracketPattern)
	collect(riderItemPattern)

	// Order by position; collectors run per-pattern.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].position < out[j-1].position; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
