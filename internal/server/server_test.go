package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/config"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeMeili emulates the backend search API with substring matching over a
// fixed document set.
func fakeMeili(t *testing.T, docs map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte(`{"status":"available"}`))
			return
		}
		var req struct {
			Q string `json:"q"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		q := strings.TrimSuffix(req.Q, "*")
		hits := []map[string]any{}
		for id, content := range docs {
			for _, part := range strings.Fields(q) {
				if strings.Contains(content, part) {
					hits = append(hits, map[string]any{"id": id, "content": content, "_rankingScore": 0.8})
					break
				}
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"hits": hits, "estimatedTotalHits": len(hits)})
	}))
}

func newTestServer(t *testing.T, backendURL string) *Server {
	t.Helper()

	dir := t.TempDir()
	dictPath := filepath.Join(dir, "dict.json")
	entries := []model.DictionaryEntry{
		{Term: "วากาเมะ", Category: "food", Confidence: 0.95},
		{Term: "สาหร่าย", Category: "food", Confidence: 0.9},
		{Term: "กิน", Category: "verb", Confidence: 0.9},
	}
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dictPath, data, 0o644))

	cfg := config.Default()
	cfg.Meilisearch.Host = backendURL
	cfg.Dictionary.Path = dictPath
	cfg.Dictionary.Watch = false

	s, err := NewServerWithConfig(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchEndpoint(t *testing.T) {
	backend := fakeMeili(t, map[string]string{"doc-1": "สาหร่ายวากาเมะ"})
	defer backend.Close()
	s := newTestServer(t, backend.URL)
	r := s.SetupRouter()

	w := doJSON(t, r, http.MethodPost, "/search", SearchRequest{
		Query: "วากาเมะ",
		Index: "products",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Hits []struct {
			Document        map[string]any `json:"document"`
			Score           float64        `json:"score"`
			MatchedVariants []string       `json:"matchedVariants"`
		} `json:"hits"`
		TotalHits int `json:"totalHits"`
		QueryInfo struct {
			ThaiContentDetected bool `json:"thaiContentDetected"`
		} `json:"queryInfo"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "doc-1", resp.Hits[0].Document["id"])
	assert.Greater(t, resp.Hits[0].Score, 0.0)
	assert.Contains(t, resp.Hits[0].MatchedVariants, "exact")
	assert.True(t, resp.QueryInfo.ThaiContentDetected)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSearchEndpointValidation(t *testing.T) {
	backend := fakeMeili(t, nil)
	defer backend.Close()
	s := newTestServer(t, backend.URL)
	r := s.SetupRouter()

	w := doJSON(t, r, http.MethodPost, "/search", SearchRequest{Index: "products"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "query_required")

	w = doJSON(t, r, http.MethodPost, "/search", SearchRequest{Query: "วากาเมะ"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "index_required")
}

func TestSearchEndpointBackendDown(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")
	r := s.SetupRouter()

	w := doJSON(t, r, http.MethodPost, "/search", SearchRequest{Query: "วากาเมะ", Index: "products"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "backend_unreachable")
}

func TestBatchSearchEndpoint(t *testing.T) {
	backend := fakeMeili(t, map[string]string{"doc-1": "วากาเมะ", "doc-2": "ข้าวผัด"})
	defer backend.Close()
	s := newTestServer(t, backend.URL)
	r := s.SetupRouter()

	w := doJSON(t, r, http.MethodPost, "/batch-search", BatchSearchRequest{
		Queries: []string{"วากาเมะ", "ข้าวผัด"},
		Index:   "products",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []struct {
			Response *struct {
				Hits []struct {
					Document map[string]any `json:"document"`
				} `json:"hits"`
			} `json:"response"`
			Error string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	require.NotNil(t, resp.Results[0].Response)
	require.NotEmpty(t, resp.Results[0].Response.Hits)
	assert.Equal(t, "doc-1", resp.Results[0].Response.Hits[0].Document["id"])
	require.NotNil(t, resp.Results[1].Response)
	require.NotEmpty(t, resp.Results[1].Response.Hits)
	assert.Equal(t, "doc-2", resp.Results[1].Response.Hits[0].Document["id"])

	w = doJSON(t, r, http.MethodPost, "/batch-search", BatchSearchRequest{Index: "products"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchSearchEndpointBackendDown(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")
	r := s.SetupRouter()

	w := doJSON(t, r, http.MethodPost, "/batch-search", BatchSearchRequest{
		Queries: []string{"วากาเมะ"},
		Index:   "products",
	})
	require.Equal(t, http.StatusOK, w.Code, "per-slot failures do not fail the batch")

	var resp struct {
		Results []struct {
			Error string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	// An unreachable backend keeps its distinct code in batch slots, same
	// as the single-search path.
	assert.Equal(t, "backend_unreachable", resp.Results[0].Error)
}

func TestTokenizeEndpoint(t *testing.T) {
	backend := fakeMeili(t, nil)
	defer backend.Close()
	s := newTestServer(t, backend.URL)
	r := s.SetupRouter()

	w := doJSON(t, r, http.MethodPost, "/tokenize", TokenizeRequest{Text: "ฉันกินวากาเมะ"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tokens []struct {
			Text       string `json:"text"`
			StartIndex int    `json:"startIndex"`
			EndIndex   int    `json:"endIndex"`
			IsCompound bool   `json:"isCompound"`
		} `json:"tokens"`
		Engine           string  `json:"engine"`
		ProcessingTimeMs float64 `json:"processingTimeMs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "dict", resp.Engine)
	require.NotEmpty(t, resp.Tokens)
	last := resp.Tokens[len(resp.Tokens)-1]
	assert.Equal(t, "วากาเมะ", last.Text)
	assert.True(t, last.IsCompound)
	assert.GreaterOrEqual(t, resp.ProcessingTimeMs, 0.0)

	w = doJSON(t, r, http.MethodPost, "/tokenize", TokenizeRequest{Text: "ฉัน", Engine: "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_engine")
}

func TestHealthEndpoint(t *testing.T) {
	backend := fakeMeili(t, nil)
	defer backend.Close()
	s := newTestServer(t, backend.URL)
	r := s.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status     string `json:"status"`
		Dictionary struct {
			Terms int `json:"terms"`
		} `json:"dictionary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "available", resp.Status)
	assert.Equal(t, 3, resp.Dictionary.Terms)
}

func TestHealthEndpointBackendDown(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")
	r := s.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReloadEndpoint(t *testing.T) {
	backend := fakeMeili(t, nil)
	defer backend.Close()
	s := newTestServer(t, backend.URL)
	r := s.SetupRouter()

	w := doJSON(t, r, http.MethodPost, "/dictionary/reload", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reloaded")
}
