package runtime

import (
	"context"
	"sync"

	"github.com/nodalchain/core/pkg/chainhash"
	"go.uber.org/zap"
)

// Cache maps (ExecutionMethod, CodeHash) to a cached instance plus its
// decoded version metadata. It owns its own mutex so that the caller
// holding a lock for the duration of a fetch is true by construction
// rather than by convention.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cachedEntry
	engine  Engine
	log     *zap.Logger
}

// NewCache creates an empty, unbounded runtime cache. The cache key's
// code hash changes only on a runtime upgrade, so no eviction policy is
// applied here — see DESIGN.md.
func NewCache(engine Engine, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		entries: make(map[cacheKey]*cachedEntry),
		engine:  engine,
		log:     log,
	}
}

// Fetch resolves the current runtime code and heap-page configuration from
// ext, reuses a cached instance when possible, and otherwise builds one.
// ctx is checked once, on entry: if it is already done, Fetch returns its
// error. It is not consulted after that and does not abort an in-flight
// guest call.
func (c *Cache) Fetch(ctx context.Context, ext Externalities, method ExecutionMethod, defaultHeapPages uint64) (*VersionedRuntime, chainhash.Hash, error) {
	if err := ctx.Err(); err != nil {
		return nil, chainhash.Hash{}, err
	}

	codeHash, ok := ext.OriginalStorageHash([]byte(KeyCode))
	if !ok {
		return nil, chainhash.Hash{}, newInvalidCode("CODE not found in storage")
	}
	heapPages := decodeHeapPages(ext, defaultHeapPages)
	key := cacheKey{method: method, codeHash: codeHash}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[key]; exists {
		if entry.err != nil {
			c.log.Error("fetch: re-surfacing cached runtime build failure",
				zap.String("method", method.String()),
				zap.String("code_hash", codeHash.String()),
				zap.Error(entry.err),
			)
			return nil, codeHash, surfaceBuildFailure(entry.err, true)
		}

		if entry.runtime.Instance.UpdateHeapPages(heapPages) {
			return entry.runtime, codeHash, nil
		}

		c.log.Warn("fetch: heap pages update rejected in place, rebuilding",
			zap.String("method", method.String()),
			zap.String("code_hash", codeHash.String()),
			zap.Uint64("heap_pages", heapPages),
		)
		rebuilt, buildErr := c.build(ext, codeHash, heapPages)
		c.entries[key] = &cachedEntry{runtime: rebuilt, err: buildErr}
		if buildErr != nil {
			return nil, codeHash, surfaceBuildFailure(buildErr, false)
		}
		return rebuilt, codeHash, nil
	}

	built, buildErr := c.build(ext, codeHash, heapPages)
	c.entries[key] = &cachedEntry{runtime: built, err: buildErr}
	if buildErr != nil {
		c.log.Error("fetch: runtime build failed, caching failure",
			zap.String("method", method.String()),
			zap.String("code_hash", codeHash.String()),
			zap.Error(buildErr),
		)
		return nil, codeHash, surfaceBuildFailure(buildErr, false)
	}
	c.log.Debug("fetch: runtime built",
		zap.String("method", method.String()),
		zap.String("code_hash", codeHash.String()),
		zap.String("spec_name", built.Version.SpecName),
	)
	return built, codeHash, nil
}

func (c *Cache) build(ext Externalities, codeHash chainhash.Hash, heapPages uint64) (*VersionedRuntime, *Error) {
	code, ok := ext.OriginalStorage([]byte(KeyCode))
	if !ok || len(code) == 0 {
		return nil, newInvalidCode("CODE not found in storage")
	}
	return buildRuntime(c.engine, ext, code, codeHash, heapPages)
}

// Invalidate removes the cache entry unconditionally, for use after a panic
// crossed the guest/host boundary during a user-level call. The next
// Fetch rebuilds from scratch.
func (c *Cache) Invalidate(method ExecutionMethod, codeHash chainhash.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{method: method, codeHash: codeHash})
}
