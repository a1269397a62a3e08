package interpret

import "strings"

// stopWords are filler words removed in the stop-word variant. They are the
// short function words STT engines most often insert or glue onto product
// names.
var stopWords = map[string]struct{}{
	"de": {}, "del": {}, "la": {}, "el": {}, "los": {}, "las": {},
	"un": {}, "una": {}, "para": {}, "por": {}, "en": {}, "con": {},
}

// Prefix lengths of the space-free variant used as coarse lookup keys.
const (
	variantPrefixLong  = 6
	variantPrefixShort = 4
)

// Variants generates alternate spellings of a normalized product phrase to
// compensate for transcription noise, in a fixed order with duplicates and
// empties removed:
//
//  1. the phrase itself
//  2. the phrase without lone one-letter connectors
//  3. variant 2 with all spaces removed (run-together STT words)
//  4. variant 2 without stop words
//  5. the first 6 characters of variant 3
//  6. the first 4 characters of variant 3
func Variants(phrase string) []string {
	var out []string
	seen := make(map[string]struct{}, 6)
	add := func(v string) {
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(phrase)
	noConn := dropConnectors(phrase)
	add(noConn)
	joined := strings.ReplaceAll(noConn, " ", "")
	add(joined)
	add(dropStopWords(noConn))
	add(firstRunes(joined, variantPrefixLong))
	add(firstRunes(joined, variantPrefixShort))
	return out
}

func dropStopWords(phrase string) string {
	fields := strings.Fields(phrase)
	kept := fields[:0]
	for _, f := range fields {
		if _, ok := stopWords[f]; ok {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
