// Package rank merges per-variant backend hits into one deduplicated,
// deterministically ordered result list. Merge is a pure function: no
// clocks, no randomness, no dependence on backend completion order.
package rank

import (
	"sort"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

// Boost constants are tunable; the tests pin the ordering properties
// (exact > component > partial, more variants never score lower), not the
// exact numbers.
const (
	DefaultExactBoost     = 2.0
	DefaultComponentBoost = 1.0
	DefaultPartialBoost   = 0.5

	// Coverage bonus: documents matched by more distinct variants score
	// higher, with diminishing returns past 3 variants.
	coverageStep = 0.15
	coverageTail = 0.05
	coverageMax  = 1.5
)

// Config tunes the boost factors. The zero value selects the defaults.
type Config struct {
	ExactBoost     float64
	ComponentBoost float64
	PartialBoost   float64
}

func (c Config) withDefaults() Config {
	if c.ExactBoost <= 0 {
		c.ExactBoost = DefaultExactBoost
	}
	if c.ComponentBoost <= 0 {
		c.ComponentBoost = DefaultComponentBoost
	}
	if c.PartialBoost <= 0 {
		c.PartialBoost = DefaultPartialBoost
	}
	return c
}

type group struct {
	id              string
	contributions   float64
	document        []byte
	documentBoost   float64
	kinds           []model.VariantKind
	variants        map[string]bool
	exact           bool
	firstSeen       int
	bestBackendRank int
}

// Merger combines hits from multiple variants into ranked results.
type Merger struct {
	cfg Config
}

func NewMerger(cfg Config) *Merger {
	return &Merger{cfg: cfg.withDefaults()}
}

// Merge groups hits by document identity, combines scores, and returns one
// RankedResult per distinct document, best first. Offset and limit are
// applied only after the full merge so per-variant truncation never costs
// recall. A duplicate (document, variant) pair contributes once, which makes
// merging a list with itself a no-op.
func (m *Merger) Merge(hits []model.SearchHit, limit, offset int) []model.RankedResult {
	groups := make(map[string]*group)
	var order []*group

	for _, hit := range hits {
		if hit.DocumentID == "" {
			continue
		}
		g, ok := groups[hit.DocumentID]
		if !ok {
			g = &group{
				id:              hit.DocumentID,
				variants:        make(map[string]bool),
				firstSeen:       len(order),
				bestBackendRank: hit.Position,
			}
			groups[hit.DocumentID] = g
			order = append(order, g)
		}
		if g.variants[hit.SourceVariant.Query] {
			continue
		}
		g.variants[hit.SourceVariant.Query] = true

		boost := m.kindBoost(hit.SourceVariant)
		g.contributions += hit.RawScore * hit.SourceVariant.Weight * boost
		if hit.SourceVariant.HasKind(model.VariantExact) {
			g.exact = true
		}
		if hit.Position < g.bestBackendRank {
			g.bestBackendRank = hit.Position
		}
		for _, k := range hit.SourceVariant.Kinds {
			if !hasKind(g.kinds, k) {
				g.kinds = append(g.kinds, k)
			}
		}
		// Keep the document body from the strongest contributing variant.
		if g.document == nil || boost > g.documentBoost {
			g.document = hit.Document
			g.documentBoost = boost
		}
	}

	results := make([]model.RankedResult, 0, len(order))
	for _, g := range order {
		results = append(results, model.RankedResult{
			DocumentID:      g.id,
			Score:           g.contributions * coverageBonus(len(g.variants)),
			Document:        g.document,
			MatchedVariants: g.kinds,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ae, be := groups[a.DocumentID].exact, groups[b.DocumentID].exact
		if ae != be {
			return ae
		}
		// Final tie-break: the backend's own reported order, then first
		// appearance, keeps equal scores stable across runs.
		ga, gb := groups[a.DocumentID], groups[b.DocumentID]
		if ga.bestBackendRank != gb.bestBackendRank {
			return ga.bestBackendRank < gb.bestBackendRank
		}
		return ga.firstSeen < gb.firstSeen
	})

	if offset > 0 {
		if offset >= len(results) {
			return nil
		}
		results = results[offset:]
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (m *Merger) kindBoost(v model.QueryVariant) float64 {
	switch {
	case v.HasKind(model.VariantExact):
		return m.cfg.ExactBoost
	case v.HasKind(model.VariantComponent):
		return m.cfg.ComponentBoost
	default:
		return m.cfg.PartialBoost
	}
}

// coverageBonus grows with the number of distinct matching variants and is
// monotone non-decreasing, with smaller steps past 3 variants.
func coverageBonus(distinct int) float64 {
	if distinct < 1 {
		return 1.0
	}
	steps := distinct - 1
	if steps > 2 {
		bonus := 1.0 + 2*coverageStep + float64(distinct-3)*coverageTail
		if bonus > coverageMax {
			return coverageMax
		}
		return bonus
	}
	return 1.0 + float64(steps)*coverageStep
}

func hasKind(kinds []model.VariantKind, k model.VariantKind) bool {
	for _, have := range kinds {
		if have == k {
			return true
		}
	}
	return false
}
