package interpret

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultPaymentMethod is the canonical method substituted when an
// utterance names no recognisable payment method.
const DefaultPaymentMethod = "Cash"

// paymentFuzzyScore is the minimum [PartialRatio] score for a canonical
// payment-method name to be accepted when no alias matched exactly.
const paymentFuzzyScore = 85

// paymentMethods is the closed canonical enumeration, in the fixed order
// used by the fuzzy matcher so ties break deterministically.
var paymentMethods = []string{"Cash", "Card", "Yape", "Plin", "Transfer"}

// PaymentMethods returns the canonical payment-method values accepted by
// the interpreter, in matching priority order. Callers must not mutate the
// returned slice.
func PaymentMethods() []string {
	return paymentMethods
}

// paymentAliases maps spoken tokens to canonical methods. The table is
// walked in order; the first whole-word hit wins.
var paymentAliases = []struct {
	token  string
	method string
}{
	{"efectivo", "Cash"},
	{"cash", "Cash"},
	{"tarjeta", "Card"},
	{"visa", "Card"},
	{"mastercard", "Card"},
	{"yape", "Yape"},
	{"plin", "Plin"},
	{"transferencia", "Transfer"},
	{"transf", "Transfer"},
	{"banco", "Transfer"},
}

// numberWords maps standalone small-number words to quantities. Walked in
// order; the first whole-word hit wins, mirroring the alias tables.
var numberWords = []struct {
	word string
	n    int
}{
	{"un", 1}, {"una", 1}, {"uno", 1},
	{"dos", 2}, {"tres", 3}, {"cuatro", 4}, {"cinco", 5},
	{"seis", 6}, {"siete", 7}, {"ocho", 8}, {"nueve", 9}, {"diez", 10},
}

var (
	// quantityRE finds a digit sequence with an optional "x" marker and an
	// optional unit word, e.g. "2", "x2", "2u", "2 und".
	quantityRE = regexp.MustCompile(`\b(?:x\s*)?(\d+)\s*(?:u|und|unid|unidades)?\b`)

	// pricePatterns run in order against the lowercased original text (the
	// normalizer turns "3.50" into "3 50", so price detection needs the raw
	// separators). Group 1 is always the numeric value. A bare integer only
	// counts as a price when currency context is present; otherwise it would
	// shadow the quantity.
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`s/\.?\s*(\d{1,4}(?:[.,]\d{1,2})?)`),
		regexp.MustCompile(`\b(\d{1,4}(?:[.,]\d{1,2})?)\s*sol(?:es)?\b`),
		regexp.MustCompile(`\bprecio\s+(?:de\s+)?(\d{1,4}(?:[.,]\d{1,2})?)\b`),
		regexp.MustCompile(`\b(\d{1,4}[.,]\d{1,2})\b`),
	}

	// currencyRE strips currency remnants from the normalized text during
	// product-phrase cleaning ("s/ 3.50" normalises to "s 3 50").
	currencyRE = regexp.MustCompile(`\bs\s+\d+(?:\s+\d{1,2})?\b|\b\d+\s*sol(?:es)?\b|\bsol(?:es)?\b|\bprecio\b`)

	// digitsRE strips remaining digit tokens with optional markers/units.
	digitsRE = regexp.MustCompile(`\b(?:x\s*)?\d+\s*(?:u|und|unid|unidades)?\b`)

	// dateLiteralRE finds a numeric calendar literal embedded in the
	// utterance: day/month with an optional year and an optional clock time
	// ("25/08/2025", "05/08", "25-08-2025 14:30").
	dateLiteralRE = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2})([/-]\d{2,4})?(\s+\d{1,2}:\d{2}(?::\d{2})?)?\b`)

	// paymentRE strips payment tokens, together with the preposition that
	// introduces them, so "con yape" leaves no residue in the product
	// phrase.
	paymentRE = buildPaymentRE()

	// saleVerbCapRE captures everything after a verb-of-sale, optionally
	// followed by "venta"/"compra" and optionally "de".
	saleVerbCapRE = regexp.MustCompile(`\b(?:vende(?:r|me)?|registra(?:r|me)?|crea(?:r)?|agrega(?:r|me)?|anade|anadir|compraron|compro|compra(?:r)?)(?:\s+(?:una?\s+)?(?:venta|compra))?(?:\s+de)?\s+(.+)$`)
)

// connectorTokens are lone one-letter connectors and prepositions dropped
// from a captured product phrase ("a" is the residue of price context such
// as "a S/ 3.50").
var connectorTokens = map[string]struct{}{"o": {}, "y": {}, "e": {}, "a": {}}

func buildPaymentRE() *regexp.Regexp {
	toks := make([]string, 0, len(paymentAliases)+len(paymentMethods))
	for _, a := range paymentAliases {
		toks = append(toks, a.token)
	}
	for _, m := range paymentMethods {
		toks = append(toks, strings.ToLower(m))
	}
	return regexp.MustCompile(`\b(?:(?:con|en|por)\s+)?(?:` + strings.Join(toks, "|") + `)\b`)
}

// Extract pulls the create_sale slots out of an utterance. normalized must
// be Normalize(raw); the original raw text is still needed for the price
// and free-form date tiers, which depend on punctuation the normalizer
// removes. now anchors the date defaults and shortcuts.
//
// Extract never fails: every slot that cannot be found gets its documented
// default and a diagnostic note in the returned slice.
func Extract(raw, normalized string, now time.Time) (ParsedSale, []string) {
	var notes []string

	sale := ParsedSale{
		Quantity:      1,
		PaymentMethod: DefaultPaymentMethod,
		Date:          now,
	}

	qty, qtyLiteral, ok := extractQuantity(normalized)
	if ok {
		sale.Quantity = qty
	} else {
		notes = append(notes, "quantity not found, defaulting to 1")
	}

	if price, ok := extractPrice(raw); ok {
		sale.Price = &price
	} else {
		notes = append(notes, "no explicit price found (catalog price may apply)")
	}

	if method, ok := extractPaymentMethod(normalized); ok {
		sale.PaymentMethod = method
	} else {
		notes = append(notes, fmt.Sprintf("payment method not recognised, defaulting to %s", DefaultPaymentMethod))
	}

	if date, ok := extractDate(raw, normalized, now); ok {
		sale.Date = date
	} else {
		notes = append(notes, "date not recognised, defaulting to now")
	}

	sale.ProductName = extractProductName(normalized, qtyLiteral)
	if sale.ProductName == "" {
		notes = append(notes, "could not identify a product phrase")
	}

	return sale, notes
}

// extractQuantity returns the quantity, the literal text that produced it
// (so the product-phrase cleaner can remove exactly that expression), and
// whether anything was found. "un"/"una"/"uno" directly before
// "venta"/"compra" is the article of the command ("registra una venta de
// tres empanadas"), not a quantity, and is skipped.
func extractQuantity(text string) (int, string, bool) {
	if m := quantityRE.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n, strings.TrimSpace(m[0]), true
		}
	}
	fields := strings.Fields(text)
	for i, f := range fields {
		for _, nw := range numberWords {
			if f != nw.word {
				continue
			}
			if nw.n == 1 && i+1 < len(fields) && (fields[i+1] == "venta" || fields[i+1] == "compra") {
				continue
			}
			return nw.n, nw.word, true
		}
	}
	return 0, "", false
}

// extractPrice scans the lowercased original text with the ordered price
// patterns. The comma decimal separator is accepted and converted.
func extractPrice(raw string) (float64, bool) {
	t := strings.ToLower(raw)
	for _, re := range pricePatterns {
		m := re.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil || v < 0 {
			continue
		}
		return v, true
	}
	return 0, false
}

// extractPaymentMethod checks the alias table for an exact whole-word match
// first, then falls back to fuzzy-matching the canonical names with
// [PartialRatio], accepting only scores >= paymentFuzzyScore.
func extractPaymentMethod(text string) (string, bool) {
	for _, a := range paymentAliases {
		if hasToken(text, a.token) {
			return a.method, true
		}
	}

	best := ""
	bestScore := 0
	for _, m := range paymentMethods {
		if s := PartialRatio(text, strings.ToLower(m)); s > bestScore {
			best = m
			bestScore = s
		}
	}
	if bestScore >= paymentFuzzyScore {
		return best, true
	}
	return "", false
}

// extractDate resolves the literal shortcuts hoy/ayer/mañana on the
// normalized text, then looks for a numeric date literal embedded in the
// original text and parses just that slice (day-first, matching the es-PE
// convention). A year-less literal like "05/08" borrows the year from now.
// Anything unparseable reports ok=false so the caller can default to now.
func extractDate(raw, normalized string, now time.Time) (time.Time, bool) {
	switch {
	case hasToken(normalized, "hoy"):
		return now, true
	case hasToken(normalized, "ayer"):
		return now.AddDate(0, 0, -1), true
	case hasToken(normalized, "manana"):
		return now.AddDate(0, 0, 1), true
	}
	m := dateLiteralRE.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	candidate := m[1]
	if m[2] != "" {
		candidate += m[2]
	} else {
		sep := "/"
		if strings.Contains(m[1], "-") {
			sep = "-"
		}
		candidate += sep + strconv.Itoa(now.Year())
	}
	candidate += m[3]
	if dt, err := dateparse.ParseAny(candidate, dateparse.PreferMonthFirst(false)); err == nil {
		return dt, true
	}
	return time.Time{}, false
}

// extractProductName reduces the normalized utterance to the phrase most
// likely to be a product name: the quantity expression, digit tokens,
// currency remnants, and payment tokens are stripped, then the text after a
// verb-of-sale is captured. When no verb pattern matches, the last four
// tokens of the cleaned text are used. Lone one-letter connectors are
// dropped from the result. Returns "" when nothing survives.
func extractProductName(normalized, qtyLiteral string) string {
	t := normalized
	if qtyLiteral != "" {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(qtyLiteral) + `\b`)
		t = replaceFirst(re, t)
	}
	t = currencyRE.ReplaceAllString(t, " ")
	t = digitsRE.ReplaceAllString(t, " ")
	t = paymentRE.ReplaceAllString(t, " ")
	t = strings.Join(strings.Fields(t), " ")
	if t == "" {
		return ""
	}

	if m := saleVerbCapRE.FindStringSubmatch(t); m != nil {
		return dropConnectors(m[1])
	}

	parts := strings.Fields(dropConnectors(t))
	if len(parts) > 4 {
		parts = parts[len(parts)-4:]
	}
	return strings.Join(parts, " ")
}

// dropConnectors removes lone "o"/"y"/"e" tokens from a phrase.
func dropConnectors(phrase string) string {
	fields := strings.Fields(phrase)
	kept := fields[:0]
	for _, f := range fields {
		if _, ok := connectorTokens[f]; ok {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// replaceFirst removes the first match of re in s.
func replaceFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + " " + s[loc[1]:]
}

// hasToken reports whether word appears as a standalone whitespace-separated
// token in text.
func hasToken(text, word string) bool {
	for _, f := range strings.Fields(text) {
		if f == word {
			return true
		}
	}
	return false
}
