package refine

import (
	"strings"
	"unicode"
)

// ValidateSpanInText reports whether the cited span literally occurs in the
// source text after whitespace normalization. An empty span never validates.
// This is the anti-hallucination check: a model answer whose citation cannot
// be located verbatim is discarded.
func ValidateSpanInText(span, text string) bool {
	normSpan := stripWhitespace(span)
	if normSpan == "" {
		return false
	}
	return strings.Contains(stripWhitespace(text), normSpan)
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
