//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/config"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
	"github.com/certogo-tech/meilisearch-thai-sub002/internal/server"
)

// TestFullFlow runs the proxy end to end against a real backend. Set
// MEILI_HOST (and optionally MEILI_API_KEY) to a Meilisearch instance that
// has a "products" index containing a document whose content includes
// "สาหร่ายวากาเมะ".
func TestFullFlow(t *testing.T) {
	_ = godotenv.Load("../../.env")

	host := os.Getenv("MEILI_HOST")
	if host == "" {
		t.Skip("Skipping integration test: MEILI_HOST not set")
	}

	dir := t.TempDir()
	dictPath := filepath.Join(dir, "dict.json")
	entries := []model.DictionaryEntry{
		{Term: "วากาเมะ", Category: "food", Confidence: 0.95},
		{Term: "สาหร่าย", Category: "food", Confidence: 0.9},
	}
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dictPath, data, 0o644))

	cfg := config.Default()
	cfg.Meilisearch.Host = host
	cfg.Meilisearch.APIKey = os.Getenv("MEILI_API_KEY")
	cfg.Dictionary.Path = dictPath
	cfg.Dictionary.Watch = false

	srv, err := server.NewServerWithConfig(cfg, nil)
	require.NoError(t, err)
	defer srv.Close()

	ts := httptest.NewServer(srv.SetupRouter())
	defer ts.Close()

	client := &http.Client{Timeout: 10 * time.Second}

	t.Run("tokenize", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/tokenize", "application/json",
			strings.NewReader(`{"text":"ฉันกินสาหร่ายวากาเมะ"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Tokens []struct {
				Text       string `json:"text"`
				IsCompound bool   `json:"isCompound"`
			} `json:"tokens"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

		var compounds []string
		for _, tok := range out.Tokens {
			if tok.IsCompound {
				compounds = append(compounds, tok.Text)
			}
		}
		assert.Contains(t, compounds, "สาหร่าย")
	})

	t.Run("search", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/search", "application/json",
			strings.NewReader(`{"query":"วากาเมะ","index":"products"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Hits      []json.RawMessage `json:"hits"`
			TotalHits int               `json:"totalHits"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.NotEmpty(t, out.Hits, "expected the compound-bearing document to match")
	})

	t.Run("repeat search hits cache", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			resp, err := client.Post(ts.URL+"/search", "application/json",
				strings.NewReader(`{"query":"วากาเมะ","index":"products"}`))
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}

		resp, err := client.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var health struct {
			Stats struct {
				CacheHits uint64 `json:"cacheHits"`
			} `json:"stats"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Greater(t, health.Stats.CacheHits, uint64(0))
	})

	t.Run("batch preserves order", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/batch-search", "application/json",
			strings.NewReader(`{"queries":["วากาเมะ","ไม่มีทางพบสิ่งนี้"],"index":"products"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Results []json.RawMessage `json:"results"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Len(t, out.Results, 2)
	})
}
