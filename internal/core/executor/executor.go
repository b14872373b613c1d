// Package executor fans one request's query variants out to the backend
// concurrently and joins them under the request deadline. A variant that
// fails or times out contributes zero hits; only the backend being
// unreachable for every variant is surfaced as an error.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/meili"
)

// ErrBackendUnreachable means no variant reached the backend at all. Callers
// must report this distinctly from an empty result set.
var ErrBackendUnreachable = errors.New("executor: backend unreachable for every variant")

const (
	DefaultMaxInFlight    = 4
	DefaultPerCallTimeout = 2 * time.Second

	// minVariantLimit is the floor on per-variant fetch size. Merging from
	// truncated per-variant lists regresses recall, so each variant fetches
	// at least this many hits regardless of the caller's page size.
	minVariantLimit = 50
)

// Config tunes the executor. The zero value selects the defaults.
type Config struct {
	// MaxInFlight bounds concurrent backend calls per request; excess
	// variants queue at the admission gate instead of being rejected.
	MaxInFlight int
	// PerCallTimeout bounds a single variant search.
	PerCallTimeout time.Duration
	// PrimaryKey is the document identity field in backend hits.
	PrimaryKey string
}

func (c Config) withDefaults() Config {
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
	if c.PerCallTimeout <= 0 {
		c.PerCallTimeout = DefaultPerCallTimeout
	}
	if c.PrimaryKey == "" {
		c.PrimaryKey = "id"
	}
	return c
}

type Executor struct {
	client meili.SearchClient
	cfg    Config
	logger *slog.Logger
}

func New(client meili.SearchClient, cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{client: client, cfg: cfg.withDefaults(), logger: logger}
}

// Execute runs one backend search per variant. The returned hits are ordered
// by variant, then by backend rank, so downstream merging is deterministic
// regardless of which call finished first. Statuses are index-aligned with
// the input variants.
//
// The overall deadline comes in on ctx; stragglers are abandoned when it
// expires and whatever completed in time is returned.
func (e *Executor) Execute(ctx context.Context, variants []model.QueryVariant, index string, limit, offset int) ([]model.SearchHit, []model.VariantStatus, error) {
	if len(variants) == 0 {
		return nil, nil, nil
	}

	fetchLimit := limit + offset
	if fetchLimit < minVariantLimit {
		fetchLimit = minVariantLimit
	}

	perVariant := make([][]model.SearchHit, len(variants))
	statuses := make([]model.VariantStatus, len(variants))
	unreachable := make([]bool, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, e.cfg.MaxInFlight)

	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			statuses[i] = model.VariantStatus{Query: v.Query, Status: model.VariantFailed}

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				statuses[i].Status = model.VariantTimedOut
				return nil
			}

			callCtx, cancel := context.WithTimeout(gctx, e.cfg.PerCallTimeout)
			defer cancel()

			resp, err := e.client.Search(callCtx, index, meili.SearchRequest{
				Query: v.Query,
				Limit: fetchLimit,
			})
			if err != nil {
				switch {
				case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
					statuses[i].Status = model.VariantTimedOut
				case errors.Is(err, meili.ErrUnreachable):
					unreachable[i] = true
				}
				e.logger.Warn("variant search failed", "variant", v.Query, "err", err)
				return nil // partial-result completion: never fail the group
			}

			hits := make([]model.SearchHit, 0, len(resp.Hits))
			for pos, doc := range resp.Hits {
				id := meili.DocumentID(doc, e.cfg.PrimaryKey)
				if id == "" {
					continue
				}
				hits = append(hits, model.SearchHit{
					DocumentID:    id,
					RawScore:      meili.RankingScore(doc),
					SourceVariant: v,
					Document:      doc,
					Position:      pos,
				})
			}
			perVariant[i] = hits
			statuses[i] = model.VariantStatus{Query: v.Query, Status: model.VariantOK, HitCount: len(hits)}
			return nil
		})
	}

	// Goroutines only return nil; Wait is a pure join point here.
	_ = g.Wait()

	allUnreachable := true
	for i := range variants {
		if !unreachable[i] {
			allUnreachable = false
			break
		}
	}
	if allUnreachable {
		return nil, statuses, ErrBackendUnreachable
	}

	var hits []model.SearchHit
	for _, vh := range perVariant {
		hits = append(hits, vh...)
	}
	return hits, statuses, nil
}
