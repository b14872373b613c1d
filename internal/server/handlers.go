package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

type searchOptions struct {
	Limit                   int  `json:"limit"`
	Offset                  int  `json:"offset"`
	IncludeTokenizationInfo bool `json:"includeTokenizationInfo"`
}

type SearchRequest struct {
	Query   string        `json:"query"`
	Index   string        `json:"index"`
	Options searchOptions `json:"options"`
}

type hitResponse struct {
	Document        any                 `json:"document"`
	Score           float64             `json:"score"`
	MatchedVariants []model.VariantKind `json:"matchedVariants,omitempty"`
}

type searchResponse struct {
	Hits      []hitResponse    `json:"hits"`
	TotalHits int              `json:"totalHits"`
	QueryInfo *model.QueryInfo `json:"queryInfo,omitempty"`
}

func toSearchResponse(out *core.SearchOutput) searchResponse {
	resp := searchResponse{
		Hits:      make([]hitResponse, 0, len(out.Results)),
		TotalHits: out.TotalHits,
		QueryInfo: &out.QueryInfo,
	}
	for _, r := range out.Results {
		resp.Hits = append(resp.Hits, hitResponse{
			Document:        r.Document,
			Score:           r.Score,
			MatchedVariants: r.MatchedVariants,
		})
	}
	return resp
}

func (s *Server) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	out, err := s.Proxy.Search(c.Request.Context(), req.Index, req.Query, core.SearchOptions{
		Limit:                   req.Options.Limit,
		Offset:                  req.Options.Offset,
		IncludeTokenizationInfo: req.Options.IncludeTokenizationInfo,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSearchResponse(out))
}

type BatchSearchRequest struct {
	Queries []string      `json:"queries"`
	Index   string        `json:"index"`
	Options searchOptions `json:"options"`
}

func (s *Server) BatchSearch(c *gin.Context) {
	var req BatchSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if len(req.Queries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "queries_required"})
		return
	}

	outputs, errs := s.Proxy.BatchSearch(c.Request.Context(), req.Index, req.Queries, core.SearchOptions{
		Limit:                   req.Options.Limit,
		Offset:                  req.Options.Offset,
		IncludeTokenizationInfo: req.Options.IncludeTokenizationInfo,
	})

	// One slot per input query, order preserved; a failed query carries its
	// error code in place of hits.
	responses := make([]gin.H, len(outputs))
	for i, out := range outputs {
		if errs[i] != nil {
			responses[i] = gin.H{"error": core.ErrorCode(errs[i])}
			continue
		}
		responses[i] = gin.H{"response": toSearchResponse(out)}
	}
	c.JSON(http.StatusOK, gin.H{"results": responses})
}

type TokenizeRequest struct {
	Text   string `json:"text"`
	Engine string `json:"engine"`
}

func (s *Server) Tokenize(c *gin.Context) {
	var req TokenizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	out, err := s.Proxy.Tokenize(c.Request.Context(), req.Text, req.Engine)
	if err != nil {
		s.renderError(c, err)
		return
	}

	tokens := out.Tokens
	if tokens == nil {
		tokens = []model.Token{}
	}
	c.JSON(http.StatusOK, gin.H{
		"tokens":           tokens,
		"engine":           out.Engine,
		"processingTimeMs": float64(out.Elapsed) / float64(time.Millisecond),
	})
}

func (s *Server) ReloadDictionary(c *gin.Context) {
	if err := s.Proxy.ReloadDictionary(); err != nil {
		s.logger.Error("dictionary reload failed", "requestID", c.GetString("request_id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dictionary_reload_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}

func (s *Server) Health(c *gin.Context) {
	stats := s.Proxy.Stats()

	backendOK := s.Backend.Health(c.Request.Context()) == nil
	status := http.StatusOK
	state := "available"
	if !backendOK {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status": state,
		"backend": gin.H{
			"reachable": backendOK,
		},
		"dictionary": gin.H{
			"terms":      stats.DictionarySize,
			"ageSeconds": int(stats.DictionaryAge.Seconds()),
		},
		"stats": gin.H{
			"requests":      stats.Requests,
			"cacheHits":     stats.CacheHits,
			"degraded":      stats.Degraded,
			"uptimeSeconds": int(stats.Uptime.Seconds()),
		},
	})
}

// renderError maps pipeline errors to stable client-facing codes; internal
// messages never leak into the response body.
func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case core.IsBackendUnreachable(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend_unreachable"})
	default:
		code := core.ErrorCode(err)
		status := http.StatusInternalServerError
		if code != "internal_error" {
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			s.logger.Error("request failed", "requestID", c.GetString("request_id"), "err", err)
		}
		c.JSON(status, gin.H{"error": code})
	}
}
