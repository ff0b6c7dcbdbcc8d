// Package extract pulls monetary amounts and payment-condition sentences
// out of Korean insurance document text. All functions are pure and safe to
// call concurrently.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/planlens/compare-cli/internal/model"
)

// Keyword tables. Proximity windows are measured in runes over width-folded
// text so full-width digits and punctuation from PDF extraction behave the
// same as ASCII.
var (
	// premiumKeywords disqualify a nearby candidate as a premium, not a benefit.
	premiumKeywords = []string{
		"보험료", "납입", "월납", "월보험료", "납입보험료", "환급", "해약", "해지", "적립",
	}

	// amountKeywords mark a nearby candidate as a benefit amount.
	amountKeywords = []string{
		"보험금", "가입금액", "보장금액", "지급금액", "보장", "지급", "한도", "가입한도",
	}

	// premiumHeaderTokens identify premium columns/rows in enrollment tables.
	premiumHeaderTokens = []string{
		"보험료(원)", "월납보험료", "납입보험료", "합계보험료", "보험료",
	}

	// coverageHeaderTokens identify benefit columns/rows in enrollment tables.
	coverageHeaderTokens = []string{
		"담보명", "보장명", "보험가입금액", "가입금액", "보장내용", "담보",
	}

	// recurringKeywords mark daily/outpatient payouts, never lump sums.
	recurringKeywords = []string{"입원일당", "일당", "통원"}

	// lumpSumKeywords mark one-time diagnosis payout phrasing.
	lumpSumKeywords = []string{"최초 1회", "최초1회", "진단 확정", "진단확정", "1회에 한하여", "1회에 한해"}
)

// Proximity windows in runes.
const (
	premiumWindow  = 40
	amountWindow   = 30
	negativeWindow = 15
	wideWindow     = 150
)

var (
	// compoundPattern matches "X억 Y천만원" style compound amounts.
	compoundPattern = regexp.MustCompile(`([0-9][0-9,]*)\s*억\s*([0-9][0-9,]*)\s*천만원?`)

	// amountPattern matches a number with an optional Korean monetary unit.
	// Bare 억 is treated as 억원; it is always written that way in tables.
	amountPattern = regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]+)?)\s*(억원|천만원|만원|억|원)?`)

	// counterSuffixPattern disqualifies bare numbers that are really counts,
	// ages, durations or percentages.
	counterSuffixPattern = regexp.MustCompile(`^(일|회|세|%|％|년|개월|명|건|호)`)
)

// candidate is one monetary expression found in a chunk, positioned by rune
// offset into the folded text.
type candidate struct {
	text    string
	value   int64
	unit    model.Unit
	hasUnit bool
	start   int
	end     int
	line    int
}

// foldText normalizes full-width characters to their half-width forms and
// returns the text as a rune slice for window arithmetic.
func foldText(text string) []rune {
	return []rune(width.Fold.String(text))
}

// scanCandidates finds every monetary expression in the folded text,
// compound forms first so their digits are not re-matched individually.
func scanCandidates(folded []rune) []candidate {
	s := string(folded)
	byteToRune := buildByteToRune(s)
	lineAt := buildLineIndex(folded)

	var cands []candidate
	taken := make([]bool, len(folded))

	markTaken := func(start, end int) {
		for i := start; i < end && i < len(taken); i++ {
			taken[i] = true
		}
	}

	for _, m := range compoundPattern.FindAllStringSubmatchIndex(s, -1) {
		start, end := byteToRune[m[0]], byteToRune[m[1]]
		eok := parseDigits(s[m[2]:m[3]])
		cheon := parseDigits(s[m[4]:m[5]])
		if eok < 0 || cheon < 0 {
			continue
		}
		cands = append(cands, candidate{
			text:    strings.TrimSpace(s[m[0]:m[1]]),
			value:   eok*100_000_000 + cheon*10_000_000,
			unit:    model.UnitEokwon,
			hasUnit: true,
			start:   start,
			end:     end,
			line:    lineAt(start),
		})
		markTaken(start, end)
	}

	for _, m := range amountPattern.FindAllStringSubmatchIndex(s, -1) {
		start, end := byteToRune[m[0]], byteToRune[m[1]]
		if start < len(taken) && taken[start] {
			continue
		}

		numText := s[m[2]:m[3]]
		unitText := ""
		if m[4] >= 0 {
			unitText = s[m[4]:m[5]]
		}

		if unitText == "" {
			// Bare number: skip counts/durations and trivially short numbers.
			rest := s[m[1]:]
			if counterSuffixPattern.MatchString(rest) {
				continue
			}
			digits := strings.ReplaceAll(numText, ",", "")
			if !strings.Contains(numText, ",") && len(digits) < 4 {
				continue
			}
			cands = append(cands, candidate{
				text:  strings.TrimSpace(s[m[0]:m[1]]),
				start: start,
				end:   end,
				line:  lineAt(start),
			})
			continue
		}

		unit := normalizeUnit(unitText)
		value, ok := unitValue(numText, unit)
		if !ok {
			continue
		}
		cands = append(cands, candidate{
			text:    strings.TrimSpace(s[m[0]:m[1]]),
			value:   value,
			unit:    unit,
			hasUnit: true,
			start:   start,
			end:     end,
			line:    lineAt(start),
		})
		markTaken(start, end)
	}

	// Restore positional order: compound matches were emitted first.
	sortCandidates(cands)
	return cands
}

func sortCandidates(cands []candidate) {
	for i := 1; i < len(cands); i++ {
		for j := i; j > 0 && cands[j].start < cands[j-1].start; j-- {
			cands[j], cands[j-1] = cands[j-1], cands[j]
		}
	}
}

func normalizeUnit(unitText string) model.Unit {
	if unitText == "억" {
		return model.UnitEokwon
	}
	return model.Unit(unitText)
}

// unitValue converts a numeric string and unit into base KRW.
func unitValue(numText string, unit model.Unit) (int64, bool) {
	mult := unit.Multiplier()
	if mult == 0 {
		return 0, false
	}
	cleaned := strings.ReplaceAll(numText, ",", "")
	if strings.Contains(cleaned, ".") {
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return int64(math.Round(f * float64(mult))), true
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, false
	}
	return n * mult, true
}

func parseDigits(numText string) int64 {
	n, err := strconv.ParseInt(strings.ReplaceAll(numText, ",", ""), 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// buildByteToRune maps every byte offset of s to its rune offset.
func buildByteToRune(s string) []int {
	idx := make([]int, len(s)+1)
	runeN := 0
	for byteN := 0; byteN < len(s); {
		_, size := utf8.DecodeRuneInString(s[byteN:])
		for b := 0; b < size; b++ {
			idx[byteN+b] = runeN
		}
		byteN += size
		runeN++
	}
	idx[len(s)] = runeN
	return idx
}

// buildLineIndex returns a lookup from rune offset to line number.
func buildLineIndex(folded []rune) func(int) int {
	lineStarts := []int{0}
	for i, r := range folded {
		if r == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	return func(runeOff int) int {
		line := 0
		for i, start := range lineStarts {
			if runeOff >= start {
				line = i
			} else {
				break
			}
		}
		return line
	}
}

// window returns the folded text surrounding [start, end) widened by n runes
// on each side.
func window(folded []rune, start, end, n int) string {
	lo := start - n
	if lo < 0 {
		lo = 0
	}
	hi := end + n
	if hi > len(folded) {
		hi = len(folded)
	}
	return string(folded[lo:hi])
}

func containsAny(s string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return kw, true
		}
	}
	return "", false
}
