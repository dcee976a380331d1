// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tender-search/pkg/types"
)

func TestResolveModel(t *testing.T) {
	tests := []struct {
		mode, override, want string
	}{
		{types.ModeFast, "", "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"},
		{types.ModeBalanced, "", "intfloat/multilingual-e5-base"},
		{types.ModeQuality, "", "BAAI/bge-m3"},
		{"", "", "intfloat/multilingual-e5-base"},
		{"turbo", "", "intfloat/multilingual-e5-base"},
		{types.ModeFast, "custom/model", "custom/model"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveModel(tt.mode, tt.override), "mode=%q override=%q", tt.mode, tt.override)
	}
}

func TestPrepareTexts(t *testing.T) {
	q, docs := PrepareTexts("ноутбук", []string{"A", "B"}, "intfloat/Multilingual-E5-base")
	assert.Equal(t, "query: ноутбук", q)
	assert.Equal(t, []string{"passage: A", "passage: B"}, docs)

	titles := []string{"A"}
	q, docs = PrepareTexts("ноутбук", titles, "BAAI/bge-m3")
	assert.Equal(t, "ноутбук", q)
	assert.Equal(t, titles, docs)
}

func TestModelCacheLoadsOnce(t *testing.T) {
	cache := NewModelCache()
	var loads int32
	load := func(context.Context, string) (Embedder, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(20 * time.Millisecond)
		return &bagEmbedder{}, nil
	}

	var wg sync.WaitGroup
	got := make([]Embedder, 8)
	for i := range got {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			emb, err := cache.Get(context.Background(), "m", load)
			assert.NoError(t, err)
			got[i] = emb
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
	for _, emb := range got {
		assert.Same(t, got[0], emb)
	}
	assert.True(t, cache.Has("m"))
	assert.False(t, cache.Has("other"))
}

func TestModelCacheKeepsModelsApart(t *testing.T) {
	cache := NewModelCache()
	load := func(context.Context, string) (Embedder, error) { return &bagEmbedder{}, nil }

	a, err := cache.Get(context.Background(), "a", load)
	require.NoError(t, err)
	b, err := cache.Get(context.Background(), "b", load)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, cache.Len())
}

func TestModelCacheDoesNotRememberFailures(t *testing.T) {
	cache := NewModelCache()
	cause := errors.New("offline")
	calls := 0
	load := func(context.Context, string) (Embedder, error) {
		calls++
		if calls == 1 {
			return nil, cause
		}
		return &bagEmbedder{}, nil
	}

	_, err := cache.Get(context.Background(), "m", load)
	assert.ErrorIs(t, err, cause)
	assert.False(t, cache.Has("m"))
	assert.Zero(t, cache.Len())

	emb, err := cache.Get(context.Background(), "m", load)
	require.NoError(t, err)
	assert.NotNil(t, emb)
	assert.Equal(t, 2, calls)
}

func TestModelCacheWaiterHonoursContext(t *testing.T) {
	cache := NewModelCache()
	release := make(chan struct{})
	started := make(chan struct{})
	go cache.Get(context.Background(), "slow", func(context.Context, string) (Embedder, error) {
		close(started)
		<-release
		return &bagEmbedder{}, nil
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := cache.Get(ctx, "slow", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, cache.Has("slow"))

	close(release)
}
