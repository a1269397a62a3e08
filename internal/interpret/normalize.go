package interpret

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalises raw utterance text: lowercase, diacritics
// stripped (NFD decomposition followed by removal of combining marks),
// punctuation replaced with spaces, whitespace collapsed to single spaces,
// and ends trimmed. It never fails; empty input yields empty output.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = stripMarks(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripMarks removes combining diacritical marks after canonical
// decomposition, so "mañana" becomes "manana" and "compró" becomes
// "compro". A transformer chain is built per call because transformers
// carry internal state and are not safe to share across goroutines.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		// Malformed UTF-8 is passed through untouched; the rune loop in
		// Normalize replaces anything unprintable with spaces anyway.
		return s
	}
	return out
}
