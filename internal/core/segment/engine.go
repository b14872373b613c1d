package segment

import (
	"context"
	"errors"
	"time"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

// Engine is one pluggable segmentation strategy. Implementations either
// return a token sequence covering the whole input with offsets relative to
// it, or decline by returning ok=false. Declining is not an error; the caller
// just tries the next engine in the chain.
type Engine interface {
	Name() string
	Segment(ctx context.Context, text string) (tokens []model.Token, ok bool)
}

// ErrAllEnginesExhausted means the chain was configured without the
// guaranteed-terminating grapheme engine. This is a deployment defect, not a
// runtime condition to retry.
var ErrAllEnginesExhausted = errors.New("segment: all engines declined and no terminal engine is configured")

// ErrUnknownEngine is returned when a caller asks for an engine name the
// chain does not know.
var ErrUnknownEngine = errors.New("segment: unknown engine")

// runBudgeted runs one engine under its time budget. An engine that overruns
// the budget is treated as declined; its goroutine is left to finish on its
// own and its late result is discarded.
func runBudgeted(ctx context.Context, e Engine, text string, budget time.Duration) ([]model.Token, bool) {
	type result struct {
		tokens []model.Token
		ok     bool
	}

	bctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		tokens, ok := e.Segment(bctx, text)
		ch <- result{tokens, ok}
	}()

	select {
	case r := <-ch:
		if !r.ok {
			return nil, false
		}
		if !coversInput(r.tokens, text) {
			// Partial or overlapping offsets violate the engine contract;
			// treat the output as a decline rather than propagating it.
			return nil, false
		}
		return r.tokens, true
	case <-bctx.Done():
		return nil, false
	}
}

// coversInput checks that tokens are in order, non-overlapping, and cover
// every rune of text.
func coversInput(tokens []model.Token, text string) bool {
	pos := 0
	for _, tok := range tokens {
		if tok.Start != pos || tok.End <= tok.Start {
			return false
		}
		pos = tok.End
	}
	return pos == len([]rune(text))
}
