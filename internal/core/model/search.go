package model

import "encoding/json"

// VariantKind classifies how a query variant was derived from the original query.
type VariantKind string

const (
	VariantExact     VariantKind = "exact"
	VariantComponent VariantKind = "component"
	VariantPartial   VariantKind = "partial"
	VariantFallback  VariantKind = "fallback"
)

// QueryVariant is one alternative phrasing of a user query, generated per
// request to widen backend recall. Weight is always positive and finite.
type QueryVariant struct {
	Query  string        `json:"query"`
	Kinds  []VariantKind `json:"kinds"`
	Weight float64       `json:"weight"`
}

// HasKind reports whether the variant carries the given kind.
func (v QueryVariant) HasKind(k VariantKind) bool {
	for _, kind := range v.Kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// SearchHit is one (variant, document) pair returned by the backend engine.
type SearchHit struct {
	DocumentID    string
	RawScore      float64
	SourceVariant QueryVariant
	Document      json.RawMessage
	// Position is the 0-based rank the backend reported the hit at, used
	// only as a stable tie-break during merging.
	Position int
}

// RankedResult is the deduplicated, ranked output unit: one per distinct
// document identity. MatchedVariants is never empty.
type RankedResult struct {
	DocumentID      string          `json:"documentId"`
	Score           float64         `json:"score"`
	Document        json.RawMessage `json:"document"`
	MatchedVariants []VariantKind   `json:"matchedVariants,omitempty"`
}

// VariantStatusCode reports how a single variant search concluded.
type VariantStatusCode string

const (
	VariantOK       VariantStatusCode = "ok"
	VariantTimedOut VariantStatusCode = "timeout"
	VariantFailed   VariantStatusCode = "error"
)

// VariantStatus is the per-variant outcome of one executor run.
type VariantStatus struct {
	Query    string            `json:"query"`
	Status   VariantStatusCode `json:"status"`
	HitCount int               `json:"hitCount"`
}

// QueryInfo is the diagnostic block attached to a search response. Cached
// responses carry the diagnostics computed when the entry was filled, so a
// hit reports the same variants as the miss that produced it.
type QueryInfo struct {
	ProcessedQuery      string          `json:"processedQuery"`
	VariantsUsed        []VariantStatus `json:"variantsUsed"`
	ThaiContentDetected bool            `json:"thaiContentDetected"`
	Degraded            bool            `json:"degraded,omitempty"`
	CacheHit            bool            `json:"cacheHit,omitempty"`
	Tokens              []Token         `json:"tokens,omitempty"`
}
