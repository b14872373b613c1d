package segment

import (
	"context"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

const clusterConfidence = 0.5

// ClusterEngine groups Thai text into character clusters: syllable-like
// units that no valid word boundary can split. A cluster is a leading vowel
// (if any), a base consonant, its combining marks, and any trailing vowel.
// Clusters are coarser than single characters but still undersegment real
// words, so this engine sits between the dictionary and the grapheme split
// in the fallback chain.
//
// The engine declines on input that contains no Thai at all; it has nothing
// useful to say about pure Latin or digit runs.
type ClusterEngine struct{}

func NewClusterEngine() *ClusterEngine {
	return &ClusterEngine{}
}

func (e *ClusterEngine) Name() string { return "cluster" }

func (e *ClusterEngine) Segment(_ context.Context, text string) ([]model.Token, bool) {
	runes := []rune(text)

	hasThai := false
	for _, r := range runes {
		if isThai(r) {
			hasThai = true
			break
		}
	}
	if !hasThai {
		return nil, false
	}

	var tokens []model.Token
	i := 0
	for i < len(runes) {
		start := i

		if isThaiLeadingVowel(runes[i]) {
			i++
		}
		// Base character; a leading vowel with nothing after it stays a
		// cluster of its own.
		if i < len(runes) && !isThaiCombining(runes[i]) && !isThaiTrailingVowel(runes[i]) {
			i++
		}
		for i < len(runes) && isThaiCombining(runes[i]) {
			i++
		}
		if i < len(runes) && isThaiTrailingVowel(runes[i]) {
			i++
			for i < len(runes) && isThaiCombining(runes[i]) {
				i++
			}
		}
		if i == start {
			// Stray combining mark at the cluster start; attach it alone so
			// the scan always advances.
			i++
		}

		tokens = append(tokens, model.Token{
			Text:       string(runes[start:i]),
			Start:      start,
			End:        i,
			Confidence: clusterConfidence,
		})
	}
	return tokens, true
}
