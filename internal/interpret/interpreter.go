package interpret

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Option is a functional option for configuring an [Interpreter].
type Option func(*Interpreter)

// WithClock replaces the time source used for date defaults and shortcuts.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Interpreter) {
		if now != nil {
			i.now = now
		}
	}
}

// Interpreter runs the full pipeline: normalisation, intent classification,
// slot extraction, and — for sale-creation utterances — catalog resolution
// and the confidence gate. It is stateless per invocation and safe for
// concurrent use.
type Interpreter struct {
	resolver *Resolver
	now      func() time.Time
}

// New creates an [Interpreter] over the given resolver. A nil resolver gets
// a [NopCatalog]-backed one, which still produces well-formed results from
// caller-supplied candidates alone.
func New(resolver *Resolver, opts ...Option) *Interpreter {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	i := &Interpreter{
		resolver: resolver,
		now:      time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Interpret converts a raw utterance into a [Result]. localCandidates are
// already-known product names/ids from the caller's own context, merged
// into catalog resolution as unscored candidates.
//
// Interpret never returns an error; extraction misses become notes with
// defaults substituted and collaborator failures degrade inside the
// resolver.
func (i *Interpreter) Interpret(ctx context.Context, text string, localCandidates []Candidate) Result {
	normalized := Normalize(text)
	intent, conf := Classify(normalized)

	res := Result{
		Intent:     intent,
		Confidence: round3(conf),
		Entities:   map[string]any{},
		Notes:      []string{},
	}
	if intent != IntentCreateSale {
		return res
	}

	sale, notes := Extract(text, normalized, i.now())
	res.Notes = append(res.Notes, notes...)

	res.Entities["quantity"] = sale.Quantity
	res.Entities["payment_method"] = sale.PaymentMethod
	res.Entities["date"] = sale.Date.Format(time.RFC3339)
	if sale.Price != nil {
		res.Entities["price"] = *sale.Price
	}
	if sale.ProductName != "" {
		res.Entities["product_name"] = sale.ProductName
	}

	ranked := i.resolver.Resolve(ctx, sale.ProductName, localCandidates)
	productID, needs, note := Gate(ranked)
	res.NeedsConfirmation = needs
	res.Notes = append(res.Notes, note)
	if productID != "" {
		res.Entities["product_id"] = productID
	} else {
		res.Entities["product_id"] = nil
	}
	if len(ranked) > 0 {
		res.Candidates = ranked
		// UI-only mirror; the sale service must never receive it.
		res.Entities["_candidates"] = ranked
	}

	slog.Debug("interpret: utterance processed",
		"intent", intent,
		"confidence", res.Confidence,
		"product_phrase", sale.ProductName,
		"candidates", len(ranked),
		"needs_confirmation", needs,
	)
	return res
}

// round3 rounds a confidence to three decimal digits, per the output
// contract.
func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
