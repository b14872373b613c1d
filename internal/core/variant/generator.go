package variant

import (
	"sort"
	"strings"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/segment"
)

// Weights orders the variant kinds: the untouched query always outranks its
// decompositions, and wildcard matching sits at the bottom.
const (
	DefaultExactWeight     = 1.0
	DefaultCompoundWeight  = 0.8
	DefaultComponentWeight = 0.6
	DefaultFallbackWeight  = 0.4
	DefaultPartialWeight   = 0.3

	DefaultMaxVariants         = 5
	DefaultShortQueryThreshold = 10
)

// Config tunes variant generation. The zero value selects the defaults.
type Config struct {
	ExactWeight     float64
	CompoundWeight  float64
	ComponentWeight float64
	FallbackWeight  float64
	PartialWeight   float64

	// MaxVariants caps the fan-out per request; lowest-weight variants are
	// dropped first.
	MaxVariants int
	// ShortQueryThreshold is the rune length below which a Partial variant
	// is added.
	ShortQueryThreshold int
}

func (c Config) withDefaults() Config {
	if c.ExactWeight <= 0 {
		c.ExactWeight = DefaultExactWeight
	}
	if c.CompoundWeight <= 0 {
		c.CompoundWeight = DefaultCompoundWeight
	}
	if c.ComponentWeight <= 0 {
		c.ComponentWeight = DefaultComponentWeight
	}
	if c.FallbackWeight <= 0 {
		c.FallbackWeight = DefaultFallbackWeight
	}
	if c.PartialWeight <= 0 {
		c.PartialWeight = DefaultPartialWeight
	}
	if c.MaxVariants <= 0 {
		c.MaxVariants = DefaultMaxVariants
	}
	if c.ShortQueryThreshold <= 0 {
		c.ShortQueryThreshold = DefaultShortQueryThreshold
	}
	return c
}

// Generator derives weighted query variants from a query's segmentation.
// Generation is deterministic: the same query and the same dictionary
// snapshot always produce the same variant set.
type Generator struct {
	cfg Config
}

func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg.withDefaults()}
}

// Generate builds the variant list for a query given its segmentation.
func (g *Generator) Generate(query string, seg segment.Result) []model.QueryVariant {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var variants []model.QueryVariant
	add := func(q string, kind model.VariantKind, weight float64) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		for i := range variants {
			if variants[i].Query == q {
				// Same string from two derivations: keep the highest weight
				// and the union of kinds.
				if weight > variants[i].Weight {
					variants[i].Weight = weight
				}
				if !variants[i].HasKind(kind) {
					variants[i].Kinds = append(variants[i].Kinds, kind)
				}
				return
			}
		}
		variants = append(variants, model.QueryVariant{Query: q, Kinds: []model.VariantKind{kind}, Weight: weight})
	}

	// 1. The original query, unmodified, always at the top.
	add(query, model.VariantExact, g.cfg.ExactWeight)

	// 2. Every compound the dictionary recognized inside the query.
	dictUsed := false
	for _, tok := range seg.Tokens {
		if tok.IsCompound {
			dictUsed = true
			add(tok.Text, model.VariantComponent, g.cfg.CompoundWeight)
			for _, comp := range tok.Components {
				if comp != tok.Text {
					add(comp, model.VariantComponent, g.cfg.ComponentWeight)
				}
			}
		}
	}

	// 3. The space-joined token sequence. When no dictionary engine fired
	// the split came from a fallback engine and is worth less.
	if joined := joinTokens(seg.Tokens); joined != query {
		kind, weight := model.VariantComponent, g.cfg.ComponentWeight
		if !dictUsed {
			kind, weight = model.VariantFallback, g.cfg.FallbackWeight
		}
		add(joined, kind, weight)
	}

	// 4. Prefix matching for short queries only; on long queries wildcard
	// recall is noise.
	if len([]rune(query)) < g.cfg.ShortQueryThreshold {
		add(query+"*", model.VariantPartial, g.cfg.PartialWeight)
	}

	// Highest weight first; generation order breaks ties so the result is
	// stable across calls.
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Weight > variants[j].Weight
	})
	if len(variants) > g.cfg.MaxVariants {
		variants = variants[:g.cfg.MaxVariants]
	}
	return variants
}

func joinTokens(tokens []model.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}
