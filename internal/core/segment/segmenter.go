package segment

import (
	"context"
	"log/slog"
	"time"
	"unicode"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/dict"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

const (
	// DefaultEngineBudget bounds a single fallback-engine call so the chain
	// can still advance inside the overall request deadline.
	DefaultEngineBudget = 50 * time.Millisecond

	passthroughConfidence = 1.0
)

// Result is the outcome of one segmentation call.
type Result struct {
	Tokens      []model.Token
	EnginesUsed []string
	Elapsed     time.Duration
	// ThaiContent reports whether the input contained any Thai characters.
	ThaiContent bool
}

// Segmenter runs dictionary maximal matching over Thai runs of the input and
// hands the stretches the dictionary cannot cover to an ordered chain of
// fallback engines. The last engine of the chain must never decline.
type Segmenter struct {
	store         *dict.Store
	chain         []Engine
	engineBudget  time.Duration
	minConfidence float64
	logger        *slog.Logger
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithEngineBudget sets the per-engine time budget for fallback calls.
func WithEngineBudget(d time.Duration) Option {
	return func(s *Segmenter) {
		if d > 0 {
			s.engineBudget = d
		}
	}
}

// WithMinConfidence rejects dictionary matches below the given confidence,
// pushing those stretches to the fallback chain instead.
func WithMinConfidence(c float64) Option {
	return func(s *Segmenter) {
		if c >= 0 && c <= 1 {
			s.minConfidence = c
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Segmenter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSegmenter builds a segmenter over the dictionary store with the given
// fallback chain. When chain is empty the default cluster → grapheme chain
// is used.
func NewSegmenter(store *dict.Store, chain []Engine, opts ...Option) *Segmenter {
	if len(chain) == 0 {
		chain = []Engine{NewClusterEngine(), NewGraphemeEngine()}
	}
	s := &Segmenter{
		store:        store,
		chain:        chain,
		engineBudget: DefaultEngineBudget,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EngineNames lists the configured fallback engines in chain order, with the
// dictionary engine first.
func (s *Segmenter) EngineNames() []string {
	names := []string{"dict"}
	for _, e := range s.chain {
		names = append(names, e.Name())
	}
	return names
}

// Segment tokenizes text with the full dictionary + fallback pipeline.
func (s *Segmenter) Segment(ctx context.Context, text string) (Result, error) {
	return s.SegmentWith(ctx, text, "")
}

// SegmentWith tokenizes text with a specific engine. An empty name or "dict"
// selects the full pipeline; any other name must match a chain engine, which
// is then applied to the whole input directly.
func (s *Segmenter) SegmentWith(ctx context.Context, text string, engineName string) (Result, error) {
	start := time.Now()
	res := Result{ThaiContent: containsThai(text)}

	if engineName != "" && engineName != "dict" {
		eng := s.engineByName(engineName)
		if eng == nil {
			return Result{}, ErrUnknownEngine
		}
		tokens, ok := runBudgeted(ctx, eng, text, s.engineBudget)
		if !ok {
			// Forced single-engine mode has no chain to fall through to;
			// the grapheme split still guarantees an answer.
			tokens, _ = NewGraphemeEngine().Segment(ctx, text)
			res.EnginesUsed = append(res.EnginesUsed, engineName, "grapheme")
		} else {
			res.EnginesUsed = append(res.EnginesUsed, engineName)
		}
		res.Tokens = tokens
		res.Elapsed = time.Since(start)
		return res, nil
	}

	snap := s.store.Current()
	runes := []rune(text)
	used := map[string]bool{}

	i := 0
	for i < len(runes) {
		// Whitespace runs are skipped, not tokenized; offsets of the
		// surrounding tokens keep them reconstructable.
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}

		if !isThai(runes[i]) {
			j := i
			for j < len(runes) && !isThai(runes[j]) && !unicode.IsSpace(runes[j]) {
				j++
			}
			res.Tokens = append(res.Tokens, model.Token{
				Text:       string(runes[i:j]),
				Start:      i,
				End:        j,
				Confidence: passthroughConfidence,
			})
			i = j
			continue
		}

		j := i
		for j < len(runes) && isThai(runes[j]) {
			j++
		}
		tokens, err := s.segmentThaiRun(ctx, snap, runes, i, j, used)
		if err != nil {
			return Result{}, err
		}
		res.Tokens = append(res.Tokens, tokens...)
		i = j
	}

	for _, e := range s.chain {
		if used[e.Name()] {
			res.EnginesUsed = append(res.EnginesUsed, e.Name())
		}
	}
	if used["dict"] {
		res.EnginesUsed = append([]string{"dict"}, res.EnginesUsed...)
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// segmentThaiRun applies maximal matching over runes[start:end) and sends
// every stretch the dictionary cannot cover to the fallback chain.
func (s *Segmenter) segmentThaiRun(ctx context.Context, snap *dict.Snapshot, runes []rune, start, end int, used map[string]bool) ([]model.Token, error) {
	var tokens []model.Token
	gapStart := -1

	flushGap := func(gapEnd int) error {
		if gapStart < 0 {
			return nil
		}
		gapTokens, engine, err := s.fallbackSplit(ctx, string(runes[gapStart:gapEnd]))
		if err != nil {
			return err
		}
		used[engine] = true
		for _, tok := range gapTokens {
			tok.Start += gapStart
			tok.End += gapStart
			tokens = append(tokens, tok)
		}
		gapStart = -1
		return nil
	}

	i := start
	for i < end {
		entry, n, ok := snap.LongestMatch(runes[:end], i)
		if ok && entry.Confidence >= s.minConfidence {
			if err := flushGap(i); err != nil {
				return nil, err
			}
			used["dict"] = true
			tokens = append(tokens, model.Token{
				Text:       entry.Term,
				Start:      i,
				End:        i + n,
				IsCompound: true,
				Confidence: entry.Confidence,
				Category:   entry.Category,
				Components: entry.Components,
			})
			i += n
			continue
		}
		if gapStart < 0 {
			gapStart = i
		}
		i++
	}
	if err := flushGap(end); err != nil {
		return nil, err
	}
	return tokens, nil
}

// fallbackSplit tries each chain engine in order under its budget and
// returns the first accepted split together with the engine's name.
func (s *Segmenter) fallbackSplit(ctx context.Context, text string) ([]model.Token, string, error) {
	for _, e := range s.chain {
		if ctx.Err() != nil {
			// Out of request time; only the free terminal split is still
			// worth attempting.
			break
		}
		tokens, ok := runBudgeted(ctx, e, text, s.engineBudget)
		if ok {
			return tokens, e.Name(), nil
		}
		s.logger.Debug("segmentation engine declined", "engine", e.Name(), "len", len(text))
	}

	if len(s.chain) > 0 {
		if g, ok := s.chain[len(s.chain)-1].(*GraphemeEngine); ok {
			tokens, _ := g.Segment(ctx, text)
			return tokens, g.Name(), nil
		}
	}
	return nil, "", ErrAllEnginesExhausted
}

func (s *Segmenter) engineByName(name string) Engine {
	for _, e := range s.chain {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

func containsThai(text string) bool {
	for _, r := range text {
		if isThai(r) {
			return true
		}
	}
	return false
}
