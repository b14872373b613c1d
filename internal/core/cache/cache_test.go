package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

func results(ids ...string) []model.RankedResult {
	var rs []model.RankedResult
	for i, id := range ids {
		rs = append(rs, model.RankedResult{DocumentID: id, Score: 1.0 - float64(i)*0.1})
	}
	return rs
}

func info(query string) model.QueryInfo {
	return model.QueryInfo{
		ProcessedQuery:      query,
		VariantsUsed:        []model.VariantStatus{{Query: query, Status: model.VariantOK, HitCount: 1}},
		ThaiContentDetected: true,
		Tokens:              []model.Token{{Text: query, End: len([]rune(query))}},
	}
}

func TestPutThenGet(t *testing.T) {
	c := New(8)
	key := Key("วากาเมะ", "products", 10, 0)

	c.Put(key, results("doc-1", "doc-2"), info("วากาเมะ"), time.Minute)

	got, gotInfo, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, results("doc-1", "doc-2"), got)
	// Diagnostics ride along with the entry so a hit reports the variants
	// of the run that filled it.
	assert.Equal(t, info("วากาเมะ"), gotInfo)
}

func TestGetAfterExpiryMisses(t *testing.T) {
	c := New(8)
	now := time.Now()
	c.now = func() time.Time { return now }

	key := Key("วากาเมะ", "products", 10, 0)
	c.Put(key, results("doc-1"), info("วากาเมะ"), time.Minute)

	_, _, ok := c.Get(key)
	require.True(t, ok)

	now = now.Add(time.Minute + time.Second)
	_, _, ok = c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on read")
}

func TestKeyNormalization(t *testing.T) {
	assert.Equal(t, Key("  Wakame ", "products", 10, 0), Key("wakame", "products", 10, 0))
	assert.NotEqual(t, Key("wakame", "products", 10, 0), Key("wakame", "articles", 10, 0))
	assert.NotEqual(t, Key("wakame", "products", 10, 0), Key("wakame", "products", 20, 0))
	// Thai is untouched by normalization.
	assert.Equal(t, Key("วากาเมะ", "p", 1, 0), Key(" วากาเมะ ", "p", 1, 0))
}

func TestNonPositiveTTLNotStored(t *testing.T) {
	c := New(8)
	c.Put("k", results("doc-1"), info("q"), 0)
	c.Put("k2", results("doc-1"), info("q"), -time.Second)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put("a", results("doc-a"), info("a"), time.Minute)
	c.Put("b", results("doc-b"), info("b"), time.Minute)

	// Touch "a" so "b" is the LRU victim.
	_, _, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", results("doc-c"), info("c"), time.Minute)

	_, _, ok = c.Get("a")
	assert.True(t, ok)
	_, _, ok = c.Get("b")
	assert.False(t, ok)
	_, _, ok = c.Get("c")
	assert.True(t, ok)
}

func TestDisabledCache(t *testing.T) {
	c := New(0)
	c.Put("k", results("doc-1"), info("q"), time.Minute)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Purge()
}

func TestPurge(t *testing.T) {
	c := New(8)
	c.Put("k", results("doc-1"), info("q"), time.Minute)
	c.Purge()
	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	c := New(64)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := Key(fmt.Sprintf("q%d", i%16), "products", 10, 0)
				if w%2 == 0 {
					c.Put(key, results("doc-1"), info("วากาเมะ"), time.Minute)
				} else {
					c.Get(key)
				}
			}
		}(w)
	}
	wg.Wait()
}
