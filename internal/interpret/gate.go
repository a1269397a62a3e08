package interpret

import "fmt"

// Gate applies the confidence threshold to a ranked candidate list and
// decides how the caller should proceed.
//
// When the top candidate scores at least [AutoSelectScore] and carries an
// identifier, it is bound automatically and no confirmation is required.
// A top candidate without an identifier (a caller-supplied bare name)
// cannot be bound, so even a perfect score falls through to confirmation.
// A non-empty list below the threshold is ambiguous; an empty list is a
// no-match. There is no intermediate state — the decision is a single
// threshold.
func Gate(ranked []RankedCandidate) (productID string, needsConfirmation bool, note string) {
	switch {
	case len(ranked) == 0:
		return "", true, "no catalog match found"
	case ranked[0].Score >= AutoSelectScore && ranked[0].ID != "":
		return ranked[0].ID, false, fmt.Sprintf("auto-selected %s (score=%d)", ranked[0].Name, ranked[0].Score)
	default:
		return "", true, "ambiguous match, confirmation required"
	}
}
