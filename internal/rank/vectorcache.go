// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// VectorCache persists embeddings in SQLite keyed by model and text, so
// repeated searches do not re-encode titles the model has already seen.
type VectorCache struct {
	db *sql.DB
}

// OpenVectorCache opens or creates the cache database at path.
func OpenVectorCache(path string) (*VectorCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening vector cache: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS vectors (
		model TEXT NOT NULL,
		text_hash TEXT NOT NULL,
		dims INTEGER NOT NULL,
		vector BLOB NOT NULL,
		PRIMARY KEY (model, text_hash)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vector cache schema: %w", err)
	}
	return &VectorCache{db: db}, nil
}

// Close releases the database connection.
func (c *VectorCache) Close() error {
	return c.db.Close()
}

// Get returns the cached vector for text under model.
func (c *VectorCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	var (
		dims int
		blob []byte
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT dims, vector FROM vectors WHERE model = ? AND text_hash = ?`,
		model, textHash(text)).Scan(&dims, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached vector: %w", err)
	}
	vec, err := decodeVector(blob, dims)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Put stores vec for text under model, replacing any previous entry.
func (c *VectorCache) Put(ctx context.Context, model, text string, vec []float32) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO vectors (model, text_hash, dims, vector) VALUES (?, ?, ?, ?)`,
		model, textHash(text), len(vec), encodeVector(vec))
	if err != nil {
		return fmt.Errorf("writing cached vector: %w", err)
	}
	return nil
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte, dims int) ([]float32, error) {
	if len(blob) != 4*dims {
		return nil, fmt.Errorf("cached vector has %d bytes, want %d", len(blob), 4*dims)
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec, nil
}

// CachedEmbedder serves vectors from a VectorCache and only sends texts
// the cache has not seen to the wrapped embedder. Cache read or write
// failures fall through to the embedder.
type CachedEmbedder struct {
	Model string
	Inner Embedder
	Cache *VectorCache
}

// EmbedQuery embeds one text.
func (e *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if vec, ok, err := e.Cache.Get(ctx, e.Model, "q\x00"+text); err == nil && ok {
		return vec, nil
	}
	vec, err := e.Inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	_ = e.Cache.Put(ctx, e.Model, "q\x00"+text, vec)
	return vec, nil
}

// EmbedDocuments embeds texts, batching the cache misses into one call.
func (e *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missIdx   []int
		missTexts []string
	)
	for i, t := range texts {
		if vec, ok, err := e.Cache.Get(ctx, e.Model, "d\x00"+t); err == nil && ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.Inner.EmbedDocuments(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for k, vec := range vecs {
		out[missIdx[k]] = vec
		_ = e.Cache.Put(ctx, e.Model, "d\x00"+missTexts[k], vec)
	}
	return out, nil
}

// CachingLoader wraps every embedder produced by Inner in a CachedEmbedder.
type CachingLoader struct {
	Inner ModelLoader
	Cache *VectorCache
}

// IsLocal defers to the wrapped loader.
func (l *CachingLoader) IsLocal(ctx context.Context, model string) bool {
	return l.Inner.IsLocal(ctx, model)
}

// Load loads model through the wrapped loader.
func (l *CachingLoader) Load(ctx context.Context, model string) (Embedder, error) {
	emb, err := l.Inner.Load(ctx, model)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{Model: model, Inner: emb, Cache: l.Cache}, nil
}
