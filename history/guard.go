package history

import (
	"strings"
	"unicode/utf8"
)

// artifacts are transcripts the speech model hallucinates from silence
// or breath noise.
var artifacts = map[string]struct{}{
	"thank you":      {},
	"you're welcome": {},
	"thanks":         {},
	"subtitle":       {},
	"untertitel":     {},
	"you":            {},
}

// CheckTranscript reports whether a transcript is usable input. The
// text is lowercased and stripped of trailing '.' and '!' before the
// check; anything shorter than two runes or matching a known artifact
// is rejected.
func CheckTranscript(text string) bool {
	clean := strings.ToLower(strings.TrimSpace(text))
	clean = strings.TrimRight(clean, ".!")
	if utf8.RuneCountInString(clean) < 2 {
		return false
	}
	_, bad := artifacts[clean]
	return !bad
}
