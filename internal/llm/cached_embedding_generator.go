package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// CachedEmbeddingGenerator wraps an EmbeddingGenerator and caches results to a
// file. Monograph passages are re-embedded on every ingest run otherwise, and
// they rarely change.
type CachedEmbeddingGenerator struct {
	realGen       EmbeddingGenerator
	cache         map[string][]float32
	cacheFilePath string
	mu            sync.Mutex
}

// NewCachedEmbeddingGenerator creates a new CachedEmbeddingGenerator.
// It attempts to load the cache from the specified file path.
func NewCachedEmbeddingGenerator(realGen EmbeddingGenerator, cacheFilePath string) (*CachedEmbeddingGenerator, error) {
	c := &CachedEmbeddingGenerator{
		realGen:       realGen,
		cache:         make(map[string][]float32),
		cacheFilePath: cacheFilePath,
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	log.Printf("Loaded %d embeddings from cache: %s", len(c.cache), cacheFilePath)
	return c, nil
}

// cacheKey hashes the text so the cache file stays small even when the
// inputs are whole monograph sections.
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// GenerateEmbedding checks the cache first. If the embedding is not found,
// it calls the real generator, stores the result, and returns it.
func (c *CachedEmbeddingGenerator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)

	c.mu.Lock()
	if embedding, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return embedding, nil
	}
	c.mu.Unlock()

	embedding, err := c.realGen.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding using real generator: %w", err)
	}

	c.mu.Lock()
	c.cache[key] = embedding
	c.mu.Unlock()
	return embedding, nil
}

// SaveCache persists the current in-memory cache to the file system.
func (c *CachedEmbeddingGenerator) SaveCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}

	log.Printf("Saved %d embeddings to cache: %s", len(c.cache), c.cacheFilePath)
	return nil
}
