package sanitizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxReasonLength bounds cancellation, rejection and termination reasons.
const MaxReasonLength = 500

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else if unicode.IsControl(r) {
			continue
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeReason collapses whitespace and cuts the text to MaxReasonLength
// runes without splitting a multi-byte character.
func NormalizeReason(reason string) string {
	reason = TrimAndNormalize(reason)
	if utf8.RuneCountInString(reason) <= MaxReasonLength {
		return reason
	}
	runes := []rune(reason)
	return strings.TrimSpace(string(runes[:MaxReasonLength]))
}
