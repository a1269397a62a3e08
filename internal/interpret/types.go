// Package interpret converts short, noisy, transcribed voice commands
// ("vende dos onigiris con yape") into structured sale-creation intents.
//
// The pipeline runs in fixed stages: text normalisation, intent
// classification, slot extraction, product-phrase variant generation,
// catalog resolution, and a confidence gate that decides whether the top
// candidate can be bound automatically or must be confirmed by a human.
// Each stage is a pure function of its inputs; the only process-wide state
// is an optional lazily-loaded default catalog owned by the [Resolver].
//
// The interpreter never returns an error to its caller: extraction misses
// become diagnostic notes with defaults substituted, and catalog failures
// degrade to the next fallback tier. The output is always a well-formed
// [Result].
package interpret

import "time"

// Intent is the coarse action category an utterance expresses.
type Intent string

const (
	// IntentCreateSale registers a new sale ("vende dos gaseosas con yape").
	IntentCreateSale Intent = "create_sale"

	// IntentListSales asks for recent sales ("muéstrame las ventas").
	IntentListSales Intent = "list_sales"

	// IntentHelp asks what the assistant can do. It is also the fallback
	// when nothing else matches.
	IntentHelp Intent = "help"
)

// ParsedSale holds the slots extracted from a create_sale utterance.
// Missing slots carry their documented defaults rather than being errors.
type ParsedSale struct {
	// Quantity is the number of units sold. Defaults to 1.
	Quantity int

	// Price is the explicit unit price, when one was spoken. Nil otherwise;
	// the sale service may then take the catalog price.
	Price *float64

	// PaymentMethod is one of the canonical methods returned by
	// [PaymentMethods]. Defaults to "Cash".
	PaymentMethod string

	// Date is when the sale happened. Defaults to the time of interpretation.
	Date time.Time

	// ProductName is the raw product phrase left after cleaning the
	// utterance. Empty when no phrase survived.
	ProductName string
}

// Candidate is one catalog entry proposed as a possible match for an
// extracted product phrase. ID may be empty for caller-supplied names that
// have not been resolved against the catalog yet.
type Candidate struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// RankedCandidate pairs a [Candidate] with its similarity score against the
// extracted product phrase, an integer in [0,100].
type RankedCandidate struct {
	Candidate
	Score int `json:"score"`
}

// Result is the full interpretation of one utterance.
type Result struct {
	// Intent is the single intent assigned to the utterance.
	Intent Intent `json:"intent"`

	// Confidence is the classifier's confidence in [0,1], rounded to three
	// decimal digits.
	Confidence float64 `json:"confidence"`

	// Entities holds the extracted slots. For create_sale it contains at
	// least quantity, payment_method, and product_id (nil when unresolved),
	// plus a "_candidates" entry for UI consumption that must never be
	// forwarded to the sale service.
	Entities map[string]any `json:"entities"`

	// Notes accumulates one human-readable diagnostic per extractor miss
	// plus one entry from the confidence gate.
	Notes []string `json:"notes"`

	// NeedsConfirmation reports whether a human must confirm the product
	// binding before a sale may be created from this result.
	NeedsConfirmation bool `json:"needs_confirmation"`

	// Candidates is the ranked candidate list for create_sale utterances,
	// nil for other intents or when resolution found nothing.
	Candidates []RankedCandidate `json:"candidates"`
}
