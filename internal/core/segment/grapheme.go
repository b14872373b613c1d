package segment

import (
	"context"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

// graphemeConfidence marks tokens from the last-resort split; callers can use
// it to tell character-level fallback output from dictionary matches.
const graphemeConfidence = 0.3

// GraphemeEngine splits text into single grapheme-like units: one base
// character plus any Thai combining marks that follow it. It never declines,
// which makes it the guaranteed terminator of every fallback chain.
type GraphemeEngine struct{}

func NewGraphemeEngine() *GraphemeEngine {
	return &GraphemeEngine{}
}

func (e *GraphemeEngine) Name() string { return "grapheme" }

func (e *GraphemeEngine) Segment(_ context.Context, text string) ([]model.Token, bool) {
	runes := []rune(text)
	tokens := make([]model.Token, 0, len(runes))

	i := 0
	for i < len(runes) {
		start := i
		i++
		for i < len(runes) && isThaiCombining(runes[i]) {
			i++
		}
		tokens = append(tokens, model.Token{
			Text:       string(runes[start:i]),
			Start:      start,
			End:        i,
			Confidence: graphemeConfidence,
		})
	}
	return tokens, true
}
