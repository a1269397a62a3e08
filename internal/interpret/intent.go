package interpret

import "regexp"

// Fixed confidences for the deterministic classifier tier. Command-like
// phrasing is favoured over fuzzy scoring, so a regex hit wins immediately
// with the confidence of its group.
const (
	confCreateSale = 1.0
	confListSales  = 0.95
	confHelp       = 0.9
)

// intentRule pairs a compiled pattern with a label for logging and tests.
// All patterns run against normalized text, so they contain no diacritics
// or punctuation.
type intentRule struct {
	name  string
	regex *regexp.Regexp
}

// ruleGroup binds one intent to its deterministic patterns and fixed
// confidence.
type ruleGroup struct {
	intent     Intent
	confidence float64
	rules      []intentRule
}

// ruleGroups is evaluated in priority order (create_sale > list_sales >
// help); the first group with any matching rule wins.
var ruleGroups = []ruleGroup{
	{
		intent:     IntentCreateSale,
		confidence: confCreateSale,
		rules: []intentRule{
			{"sale-verb", regexp.MustCompile(`\b(?:vende(?:r|me)?|venta|registra(?:r|me)?|agrega(?:r|me)?|anade|anadir|crea(?:r)?)\b`)},
			{"purchase-verb", regexp.MustCompile(`\b(?:compraron|compro|compra)\b`)},
		},
	},
	{
		intent:     IntentListSales,
		confidence: confListSales,
		rules: []intentRule{
			{"list-sales", regexp.MustCompile(`\b(?:lista(?:r|me)?|muestra(?:me)?|ver)\s+(?:las\s+)?ventas\b`)},
		},
	},
	{
		intent:     IntentHelp,
		confidence: confHelp,
		rules: []intentRule{
			{"help-word", regexp.MustCompile(`\b(?:ayuda|ayudame|help)\b`)},
			{"help-question", regexp.MustCompile(`\bque puedes hacer\b|\bcomo te uso\b`)},
		},
	},
}

// intentOrder fixes the iteration order of the fuzzy fallback tier so that
// ties break deterministically in the same priority order as the rule groups.
var intentOrder = []Intent{IntentCreateSale, IntentListSales, IntentHelp}

// intentKeywords is the curated keyword dictionary per intent for the fuzzy
// fallback tier. Phrases are pre-normalized.
var intentKeywords = map[Intent][]string{
	IntentCreateSale: {"vende", "venta", "registrar venta", "registrame", "agrega venta", "anade venta", "compro", "compraron"},
	IntentListSales:  {"lista ventas", "listar ventas", "muestrame ventas", "ver ventas"},
	IntentHelp:       {"ayuda", "que puedes hacer", "como te uso"},
}

// Classify assigns exactly one intent to the normalized utterance text and
// reports the classifier's confidence in [0,1].
//
// Two tiers run in order. The deterministic tier walks [ruleGroups] in
// priority order and returns on the first regex hit with that group's fixed
// confidence. When no rule matches, the fuzzy tier scores the text against
// every keyword phrase with [PartialRatio], takes the per-intent maximum,
// and picks the intent with the highest score (confidence = score/100).
// When every score is zero the utterance defaults to [IntentHelp] with
// confidence 0.
func Classify(text string) (Intent, float64) {
	for _, g := range ruleGroups {
		for _, r := range g.rules {
			if r.regex.MatchString(text) {
				return g.intent, g.confidence
			}
		}
	}

	best := IntentHelp
	bestScore := 0
	for _, intent := range intentOrder {
		score := 0
		for _, kw := range intentKeywords[intent] {
			if s := PartialRatio(text, kw); s > score {
				score = s
			}
		}
		if score > bestScore {
			best = intent
			bestScore = score
		}
	}
	if bestScore == 0 {
		return IntentHelp, 0
	}
	return best, float64(bestScore) / 100
}
