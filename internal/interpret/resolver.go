package interpret

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AutoSelectScore is the minimum top-candidate score at which the
// confidence gate binds a product automatically instead of asking for
// confirmation. Empirically tuned; see also [ListingAcceptScore].
const AutoSelectScore = 85

// ListingAcceptScore is the minimum score for a bulk-listing entry to be
// kept as a candidate during the listing fallback tier. Tuned
// independently of [AutoSelectScore]; the two constants carry no further
// relationship.
const ListingAcceptScore = 60

const (
	defaultLookupTimeout = 2 * time.Second
	defaultLookupLimit   = 10
	defaultListingLimit  = 200
)

// Catalog is the lookup capability the resolver consumes. Implementations
// wrap the product store, a remote service, or nothing at all
// ([NopCatalog]); the resolver treats every error as "zero candidates from
// that source" and moves on to the next fallback tier.
//
// Implementations must be safe for concurrent use.
type Catalog interface {
	// FindByPrefix returns up to limit entries whose name starts with the
	// given normalized prefix.
	FindByPrefix(ctx context.Context, prefix string, limit int) ([]Candidate, error)

	// List returns up to limit catalog entries.
	List(ctx context.Context, limit int) ([]Candidate, error)
}

// NopCatalog is a [Catalog] that knows no products. It lets the interpreter
// run without a catalog collaborator, leaving resolution to caller-supplied
// candidates and the default dataset.
type NopCatalog struct{}

var _ Catalog = NopCatalog{}

// FindByPrefix implements [Catalog] with an always-empty result.
func (NopCatalog) FindByPrefix(context.Context, string, int) ([]Candidate, error) {
	return nil, nil
}

// List implements [Catalog] with an always-empty result.
func (NopCatalog) List(context.Context, int) ([]Candidate, error) {
	return nil, nil
}

// ResolverOption is a functional option for configuring a [Resolver].
type ResolverOption func(*Resolver)

// WithLookupTimeout bounds each call into the catalog collaborator.
// Timeouts degrade to the next fallback tier. Default: 2s.
func WithLookupTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.lookupTimeout = d
		}
	}
}

// WithLookupLimit caps how many entries a single prefix lookup may return
// and how many candidates the listing fallback keeps. Default: 10.
func WithLookupLimit(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.lookupLimit = n
		}
	}
}

// WithListingLimit caps the bulk-listing fallback query. Default: 200.
func WithListingLimit(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.listingLimit = n
		}
	}
}

// WithDefaultCatalog installs the loader for the last-resort default
// dataset. It is invoked at most once, on the first resolution that
// exhausts every other tier; a load error or empty result is cached
// permanently so a missing dataset cannot cause a retry storm.
func WithDefaultCatalog(load func() ([]Candidate, error)) ResolverOption {
	return func(r *Resolver) {
		r.defaultLoad = load
	}
}

// Resolver turns an extracted product phrase into a ranked candidate list
// by querying the catalog collaborator with generated variants and falling
// back through a bulk listing, caller-supplied candidates, and the default
// dataset. It is safe for concurrent use; the only mutable state is the
// initialise-once default dataset cache.
type Resolver struct {
	catalog       Catalog
	lookupTimeout time.Duration
	lookupLimit   int
	listingLimit  int

	defaultLoad func() ([]Candidate, error)
	defaultOnce sync.Once
	defaultSet  []Candidate
}

// NewResolver creates a [Resolver] over the given catalog. A nil catalog is
// replaced with [NopCatalog].
func NewResolver(catalog Catalog, opts ...ResolverOption) *Resolver {
	if catalog == nil {
		catalog = NopCatalog{}
	}
	r := &Resolver{
		catalog:       catalog,
		lookupTimeout: defaultLookupTimeout,
		lookupLimit:   defaultLookupLimit,
		listingLimit:  defaultListingLimit,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve produces the ranked candidate list for a product phrase.
//
// Tiers run in order until one yields candidates: per-variant prefix
// lookups (aggregated in variant order, deduplicated), the bulk-listing
// fallback filtered by [ListingAcceptScore], caller-supplied local
// candidates (merged into whatever the earlier tiers found), and finally
// the lazily-loaded default dataset. The aggregate is scored with
// [TokenSortRatio] against the phrase and stably sorted descending, so ties
// keep their aggregation order.
//
// Resolve never fails; collaborator errors are logged and treated as empty
// results from that source.
func (r *Resolver) Resolve(ctx context.Context, phrase string, local []Candidate) []RankedCandidate {
	agg := r.prefixLookup(ctx, Variants(phrase))
	if len(agg) == 0 {
		agg = r.listingFallback(ctx, phrase)
	}
	agg = mergeCandidates(agg, local)
	if len(agg) == 0 {
		agg = r.defaultCatalog()
	}

	ranked := make([]RankedCandidate, 0, len(agg))
	for _, c := range agg {
		ranked = append(ranked, RankedCandidate{
			Candidate: c,
			Score:     TokenSortRatio(phrase, Normalize(c.Name)),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// prefixLookup queries the catalog for every variant concurrently and
// merges the results in variant order, deduplicating and skipping
// malformed entries. A failed variant contributes nothing.
func (r *Resolver) prefixLookup(ctx context.Context, variants []string) []Candidate {
	if len(variants) == 0 {
		return nil
	}

	results := make([][]Candidate, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, r.lookupTimeout)
			defer cancel()

			found, err := r.catalog.FindByPrefix(cctx, v, r.lookupLimit)
			if err != nil {
				slog.Debug("interpret: prefix lookup failed", "variant", v, "err", err)
				return nil
			}
			results[i] = found
			return nil
		})
	}
	// Lookup errors are swallowed above, so Wait only synchronises.
	_ = g.Wait()

	var agg []Candidate
	for _, found := range results {
		agg = mergeCandidates(agg, found)
	}
	return agg
}

// listingFallback pulls a bounded bulk listing and keeps the entries whose
// local similarity to the phrase reaches [ListingAcceptScore], best first,
// truncated to the lookup limit.
func (r *Resolver) listingFallback(ctx context.Context, phrase string) []Candidate {
	cctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	listed, err := r.catalog.List(cctx, r.listingLimit)
	if err != nil {
		slog.Debug("interpret: listing fallback failed", "err", err)
		return nil
	}

	type scored struct {
		c Candidate
		s int
	}
	var kept []scored
	for _, c := range listed {
		if c.Name == "" {
			continue
		}
		s := TokenSortRatio(phrase, Normalize(c.Name))
		if s >= ListingAcceptScore {
			kept = append(kept, scored{c, s})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].s > kept[j].s })
	if len(kept) > r.lookupLimit {
		kept = kept[:r.lookupLimit]
	}

	out := make([]Candidate, len(kept))
	for i, k := range kept {
		out[i] = k.c
	}
	return out
}

// defaultCatalog returns the lazily-loaded default dataset. The loader runs
// at most once per process; both failures and empty datasets are cached so
// later invocations do not retry.
func (r *Resolver) defaultCatalog() []Candidate {
	r.defaultOnce.Do(func() {
		if r.defaultLoad == nil {
			return
		}
		set, err := r.defaultLoad()
		if err != nil {
			slog.Warn("interpret: default catalog load failed", "err", err)
			return
		}
		r.defaultSet = set
	})
	return r.defaultSet
}

// mergeCandidates appends extra onto agg, preserving first-seen order and
// dropping duplicates (by ID when present, by normalized name otherwise)
// and entries with no name.
func mergeCandidates(agg, extra []Candidate) []Candidate {
	if len(extra) == 0 {
		return agg
	}
	seen := make(map[string]struct{}, len(agg)+len(extra))
	for _, c := range agg {
		seen[candidateKey(c)] = struct{}{}
	}
	for _, c := range extra {
		if c.Name == "" {
			continue
		}
		key := candidateKey(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		agg = append(agg, c)
	}
	return agg
}

func candidateKey(c Candidate) string {
	if c.ID != "" {
		return "id:" + c.ID
	}
	return "name:" + Normalize(c.Name)
}
