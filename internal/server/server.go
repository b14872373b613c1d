package server

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/config"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/cache"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/dict"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/executor"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/rank"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/segment"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/variant"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/meili"
)

type Server struct {
	Proxy   *core.Proxy
	Backend meili.SearchClient
	watcher *dict.Watcher
	logger  *slog.Logger
}

// NewServer builds the full pipeline from configuration. The config file is
// optional; environment variables override it either way.
func NewServer() (*Server, error) {
	logger := slog.Default()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("no config file, using defaults", "path", cfgPath, "err", err)
		cfg = config.Default()
	}

	// Env overrides for the deployment-sensitive fields.
	if host := os.Getenv("MEILI_HOST"); host != "" {
		cfg.Meilisearch.Host = host
	}
	if key := os.Getenv("MEILI_API_KEY"); key != "" {
		cfg.Meilisearch.APIKey = key
	}
	if path := os.Getenv("DICTIONARY_PATH"); path != "" {
		cfg.Dictionary.Path = path
	}
	if capacity := os.Getenv("CACHE_CAPACITY"); capacity != "" {
		if n, err := strconv.Atoi(capacity); err == nil {
			cfg.Cache.Capacity = n
		}
	}

	return NewServerWithConfig(cfg, logger)
}

// NewServerWithConfig wires the pipeline from an explicit configuration.
func NewServerWithConfig(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var loader dict.Loader
	if cfg.Dictionary.Path != "" {
		loader = dict.NewFileLoader(cfg.Dictionary.Path)
	} else {
		logger.Warn("no dictionary path configured, starting with an empty dictionary")
		loader = &dict.StaticLoader{Entries: []model.DictionaryEntry{}}
	}
	store, err := dict.NewStore(loader)
	if err != nil {
		return nil, err
	}

	chain, err := segment.BuildChain(cfg.Segmenter.Engines)
	if err != nil {
		return nil, err
	}
	segOpts := []segment.Option{segment.WithLogger(logger)}
	if cfg.Segmenter.EngineBudgetMs > 0 {
		segOpts = append(segOpts, segment.WithEngineBudget(cfg.Segmenter.EngineBudget()))
	}
	if cfg.Dictionary.MinConfidence > 0 {
		segOpts = append(segOpts, segment.WithMinConfidence(cfg.Dictionary.MinConfidence))
	}
	segmenter := segment.NewSegmenter(store, chain, segOpts...)

	backend := meili.NewClient(cfg.Meilisearch.Host,
		meili.WithAPIKey(cfg.Meilisearch.APIKey),
		meili.WithRateLimit(cfg.Meilisearch.RateLimit, cfg.Meilisearch.RateBurst),
	)

	proxy, err := core.NewProxy(
		store,
		segmenter,
		variant.NewGenerator(variant.Config{
			MaxVariants:         cfg.Search.MaxVariants,
			ShortQueryThreshold: cfg.Search.ShortQueryThreshold,
		}),
		executor.New(backend, executor.Config{
			MaxInFlight:    cfg.Search.MaxInFlight,
			PerCallTimeout: cfg.Search.PerCallTimeout(),
			PrimaryKey:     cfg.Meilisearch.PrimaryKey,
		}, logger),
		rank.NewMerger(rank.Config{}),
		cache.New(cfg.Cache.Capacity),
		core.Config{
			RequestTimeout: cfg.Search.RequestTimeout(),
			CacheTTL:       cfg.Cache.TTL(),
			BatchPoolSize:  cfg.Search.BatchPoolSize,
			DefaultLimit:   cfg.Search.DefaultLimit,
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	s := &Server{Proxy: proxy, Backend: backend, logger: logger}

	if cfg.Dictionary.Watch && cfg.Dictionary.Path != "" {
		watcher, err := dict.NewWatcher(store, cfg.Dictionary.Path, logger)
		if err != nil {
			logger.Warn("dictionary watcher unavailable", "err", err)
		} else {
			watcher.Start()
			s.watcher = watcher
		}
	}

	return s, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()
	r.Use(requestID())

	r.POST("/search", s.Search)
	r.POST("/batch-search", s.BatchSearch)
	r.POST("/tokenize", s.Tokenize)
	r.POST("/dictionary/reload", s.ReloadDictionary)
	r.GET("/health", s.Health)

	return r
}

// Close stops the dictionary watcher and the batch pool.
func (s *Server) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
	s.Proxy.Close()
}
