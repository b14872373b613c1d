// Package core wires the segmentation, variant-generation, fan-out, merge,
// and cache stages into one request/response cycle.
package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/cache"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/dict"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/executor"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/rank"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/segment"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/variant"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/meili"
)

// requestState tracks one request through the pipeline. Transitions are
// strictly forward; a request that errors out stops at the furthest state
// it reached, which the completion log reports.
type requestState int

const (
	stateReceived requestState = iota
	stateSegmented
	stateVariantsGenerated
	stateSearching
	stateMerging
	stateResponded
	stateDone
)

func (s requestState) String() string {
	switch s {
	case stateReceived:
		return "received"
	case stateSegmented:
		return "segmented"
	case stateVariantsGenerated:
		return "variants_generated"
	case stateSearching:
		return "searching"
	case stateMerging:
		return "merging"
	case stateResponded:
		return "responded"
	case stateDone:
		return "done"
	}
	return "unknown"
}

// advance moves to next and reports whether the move happened. Backward
// moves are refused, keeping the furthest state reached.
func (s *requestState) advance(next requestState) bool {
	if next <= *s {
		return false
	}
	*s = next
	return true
}

// SearchOptions are the per-request knobs of one search call.
type SearchOptions struct {
	Limit                   int
	Offset                  int
	IncludeTokenizationInfo bool
}

// SearchOutput is one complete proxied search response.
type SearchOutput struct {
	Results   []model.RankedResult
	TotalHits int
	QueryInfo model.QueryInfo
}

// TokenizeOutput is the response of the tokenize-only path.
type TokenizeOutput struct {
	Tokens  []model.Token
	Engine  string
	Elapsed time.Duration
}

// Stats are the orchestrator's health counters.
type Stats struct {
	Requests       uint64
	CacheHits      uint64
	Degraded       uint64
	DictionarySize int
	DictionaryAge  time.Duration
	Uptime         time.Duration
}

// Config tunes the orchestrator. The zero value selects the defaults.
type Config struct {
	// RequestTimeout is the overall deadline applied to one search cycle.
	RequestTimeout time.Duration
	// CacheTTL bounds how long a ranked response may be replayed.
	CacheTTL time.Duration
	// BatchPoolSize bounds concurrent queries of one batch request.
	BatchPoolSize int
	// DefaultLimit is used when the caller does not request a page size.
	DefaultLimit int
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 5 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Minute
	}
	if c.BatchPoolSize <= 0 {
		c.BatchPoolSize = 4
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 20
	}
	return c
}

// Proxy is the orchestrator: the only entry point the transport layer talks
// to. All stages between the suspension points (backend calls, fallback
// engines) are synchronous and bounded.
type Proxy struct {
	segmenter *segment.Segmenter
	generator *variant.Generator
	executor  *executor.Executor
	merger    *rank.Merger
	cache     *cache.Cache
	dict      *dict.Store
	cfg       Config
	pool      *ants.Pool
	logger    *slog.Logger
	started   time.Time

	requests  atomic.Uint64
	cacheHits atomic.Uint64
	degraded  atomic.Uint64
}

// NewProxy assembles the pipeline. The ants pool serves batch requests; its
// size caps how many queries of one batch run at once.
func NewProxy(
	store *dict.Store,
	seg *segment.Segmenter,
	gen *variant.Generator,
	exec *executor.Executor,
	merger *rank.Merger,
	respCache *cache.Cache,
	cfg Config,
	logger *slog.Logger,
) (*Proxy, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := ants.NewPool(cfg.BatchPoolSize)
	if err != nil {
		return nil, err
	}
	return &Proxy{
		segmenter: seg,
		generator: gen,
		executor:  exec,
		merger:    merger,
		cache:     respCache,
		dict:      store,
		cfg:       cfg,
		pool:      pool,
		logger:    logger,
		started:   time.Now(),
	}, nil
}

// Close releases the batch pool.
func (p *Proxy) Close() {
	p.pool.Release()
}

// Search runs the full cycle for one query: cache lookup, segmentation,
// variant generation, concurrent fan-out, merge, cache fill.
func (p *Proxy) Search(ctx context.Context, index, query string, opts SearchOptions) (*SearchOutput, error) {
	p.requests.Add(1)
	state := stateReceived
	variantCount, resultCount := 0, 0
	// The deferred log reports the furthest state reached, so an errored
	// request says which stage it died in.
	defer func() {
		p.logger.Debug("search finished",
			"query", query, "index", index,
			"variants", variantCount, "results", resultCount,
			"state", state)
	}()

	if query == "" {
		return nil, ErrQueryRequired
	}
	if index == "" {
		return nil, ErrIndexRequired
	}
	if opts.Limit <= 0 {
		opts.Limit = p.cfg.DefaultLimit
	}

	key := cache.Key(query, index, opts.Limit, opts.Offset)
	if results, info, ok := p.cache.Get(key); ok {
		p.cacheHits.Add(1)
		info.CacheHit = true
		if !opts.IncludeTokenizationInfo {
			info.Tokens = nil
		}
		state.advance(stateResponded)
		state.advance(stateDone)
		return &SearchOutput{
			Results:   results,
			TotalHits: len(results),
			QueryInfo: info,
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	segRes, err := p.segmenter.Segment(ctx, query)
	if err != nil {
		// Total segmentation failure is a configuration defect; it cannot
		// be recovered per-request.
		p.logger.Error("segmentation failed", "query", query, "err", err)
		return nil, err
	}
	state.advance(stateSegmented)

	variants := p.generator.Generate(query, segRes)
	variantCount = len(variants)
	state.advance(stateVariantsGenerated)

	state.advance(stateSearching)
	hits, statuses, err := p.executor.Execute(ctx, variants, index, opts.Limit, opts.Offset)
	if err != nil {
		// Backend fully unreachable: distinct from an empty result so the
		// client can tell "nothing matched" from "we could not ask".
		return nil, err
	}

	state.advance(stateMerging)
	results := p.merger.Merge(hits, opts.Limit, opts.Offset)
	resultCount = len(results)

	degraded := false
	for _, st := range statuses {
		if st.Status != model.VariantOK {
			degraded = true
			break
		}
	}

	// Tokens are always stored with the entry so a later hit can honor
	// IncludeTokenizationInfo; the serve path strips them when not asked.
	info := model.QueryInfo{
		ProcessedQuery:      joinTokenTexts(segRes.Tokens),
		VariantsUsed:        statuses,
		ThaiContentDetected: segRes.ThaiContent,
		Tokens:              segRes.Tokens,
	}

	if degraded {
		p.degraded.Add(1)
	} else if len(results) > 0 {
		// Degraded responses are never cached: replaying a partial answer
		// for the TTL would hide the backend's recovery.
		p.cache.Put(key, results, info, p.cfg.CacheTTL)
	}

	info.Degraded = degraded
	if !opts.IncludeTokenizationInfo {
		info.Tokens = nil
	}
	out := &SearchOutput{
		Results:   results,
		TotalHits: len(results),
		QueryInfo: info,
	}

	state.advance(stateResponded)
	state.advance(stateDone)
	return out, nil
}

// BatchSearch runs one search per query on the batch pool and returns the
// outputs in input order. Per-query failures surface as per-slot errors so
// one bad query cannot sink the batch.
func (p *Proxy) BatchSearch(ctx context.Context, index string, queries []string, opts SearchOptions) ([]*SearchOutput, []error) {
	outputs := make([]*SearchOutput, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		i, q := i, q
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			outputs[i], errs[i] = p.Search(ctx, index, q, opts)
		})
		if submitErr != nil {
			errs[i] = submitErr
			wg.Done()
		}
	}
	wg.Wait()
	return outputs, errs
}

// Tokenize runs the segmentation stage alone.
func (p *Proxy) Tokenize(ctx context.Context, text, engine string) (*TokenizeOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	res, err := p.segmenter.SegmentWith(ctx, text, engine)
	if err != nil {
		return nil, err
	}
	name := "dict"
	if engine != "" {
		name = engine
	}
	return &TokenizeOutput{Tokens: res.Tokens, Engine: name, Elapsed: res.Elapsed}, nil
}

// ReloadDictionary swaps in a fresh dictionary snapshot and drops the
// response cache, since cached rankings were computed against the old one.
func (p *Proxy) ReloadDictionary() error {
	if err := p.dict.Reload(); err != nil {
		return err
	}
	p.cache.Purge()
	p.logger.Info("dictionary reloaded", "terms", p.dict.Current().Size())
	return nil
}

// Stats reports the orchestrator's counters for the health endpoint.
func (p *Proxy) Stats() Stats {
	snap := p.dict.Current()
	return Stats{
		Requests:       p.requests.Load(),
		CacheHits:      p.cacheHits.Load(),
		Degraded:       p.degraded.Load(),
		DictionarySize: snap.Size(),
		DictionaryAge:  time.Since(snap.LoadedAt()),
		Uptime:         time.Since(p.started),
	}
}

// IsBackendUnreachable reports whether err is the total-failure case that
// must map to a gateway error rather than an empty result.
func IsBackendUnreachable(err error) bool {
	return errors.Is(err, executor.ErrBackendUnreachable) || errors.Is(err, meili.ErrUnreachable)
}

func joinTokenTexts(tokens []model.Token) string {
	out := ""
	for i, tok := range tokens {
		if i > 0 {
			out += " "
		}
		out += tok.Text
	}
	return out
}
