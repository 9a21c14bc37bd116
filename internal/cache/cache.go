package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/JakubGal/invoice-eval/internal/llm"
)

// Cache stores raw model completions on disk so repeated runs over the
// same dataset do not re-spend provider quota.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a cache rooted at the specified directory. An empty dir
// disables the cache.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key derives the cache key for one completion request. Everything that
// shapes the response participates: model, prompts, images, limits.
func Key(req llm.Request) string {
	h := sha256.New()
	writeString(h.Write, req.Model)
	writeString(h.Write, req.System)
	writeString(h.Write, req.Prompt)
	for _, img := range req.Images {
		digest := sha256.Sum256(img)
		h.Write(digest[:]) //nolint:errcheck
	}
	var limits [9]byte
	binary.BigEndian.PutUint64(limits[:8], uint64(req.MaxTokens))
	if req.JSONMode {
		limits[8] = 1
	}
	h.Write(limits[:]) //nolint:errcheck
	return hex.EncodeToString(h.Sum(nil))
}

func writeString(write func([]byte) (int, error), s string) {
	write([]byte(s))    //nolint:errcheck
	write([]byte{0x00}) //nolint:errcheck
}

type entry struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// Get retrieves a cached completion if it exists.
func (c *Cache) Get(key string) (string, bool) {
	if c.dir == "" {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return "", false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Invalid cache entry, treat as miss
		return "", false
	}
	return e.Response, true
}

// Put stores a completion in the cache.
func (c *Cache) Put(key, model, response string) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.Marshal(entry{Model: model, Response: response})
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return os.WriteFile(c.entryPath(key), data, 0644)
}

// Clear removes every cached entry.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Completer matches the completion client the wrapper delegates to.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

type cachingCompleter struct {
	client Completer
	cache  *Cache
}

// Wrap returns a completer that serves repeated requests from the cache.
// Errors are never cached.
func Wrap(client Completer, cache *Cache) Completer {
	return &cachingCompleter{client: client, cache: cache}
}

func (c *cachingCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	key := Key(req)
	if response, ok := c.cache.Get(key); ok {
		return response, nil
	}

	response, err := c.client.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if err := c.cache.Put(key, req.Model, response); err != nil {
		return "", fmt.Errorf("caching response: %w", err)
	}
	return response, nil
}
