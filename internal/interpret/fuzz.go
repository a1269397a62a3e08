package interpret

import (
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// Ratio returns a similarity score in [0,100] between a and b, derived from
// the Levenshtein edit distance over the longer of the two strings. Equal
// strings score 100; an empty string against a non-empty one scores 0.
func Ratio(a, b string) int {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	d := matchr.Levenshtein(a, b)
	if d >= longest {
		return 0
	}
	return (longest - d) * 100 / longest
}

// PartialRatio returns the best [Ratio] between the shorter input and any
// equal-length rune window of the longer input. A phrase that contains the
// other string verbatim scores 100 regardless of surrounding text. This is
// the scorer used for intent keywords and payment-method hints, where the
// needle is a short phrase buried in a longer utterance.
func PartialRatio(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	short, long := ra, rb
	if len(short) > len(long) {
		short, long = long, short
	}
	needle := string(short)
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		if s := Ratio(needle, string(long[i:i+len(short)])); s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio tokenises both inputs, sorts the tokens, and scores the
// rejoined strings with [Ratio]. Word order therefore does not matter:
// "inca kola" and "kola inca" score 100. This is the scorer used to rank
// catalog candidates against the extracted product phrase.
func TokenSortRatio(a, b string) int {
	return Ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	f := strings.Fields(s)
	slices.Sort(f)
	return strings.Join(f, " ")
}
