// Package cache implements the per-job parse-result cache: a
// compile job may import the same file more than once (through several
// namespaces or aliases) and each import should parse the underlying
// source exactly once.
//
// The cache is a content-hash keyed map, not a path-keyed one: two
// different files with byte-identical contents share one parse, and a
// file edited between two lookups within the same job (which should
// never happen, but defends against misbehaving callers) is detected as
// a different entry rather than silently served stale.
package cache

import (
	"sync"

	"github.com/bep/lazycache"
	"github.com/cespare/xxhash/v2"

	"github.com/chtl-lang/chtl/internal/ast"
)

// Entry is one cached parse result.
type Entry struct {
	Arena *ast.Arena
	Root  ast.Ref
	Err   error
}

// ParseCache memoizes Load results by content hash within one compile
// job. It is not safe to share across jobs running concurrently, the
// same restriction internal/symbols.Map carries.
type ParseCache struct {
	mu      sync.Mutex
	results *lazycache.Cache[uint64, Entry]
	loaded  map[string]bool // canonical path -> already resolved, for processed-file tracking
}

// NewParseCache creates an empty cache sized for maxEntries distinct
// source files (0 means unbounded).
func NewParseCache(maxEntries int) *ParseCache {
	return &ParseCache{
		results: lazycache.New[uint64, Entry](lazycache.Options[uint64, Entry]{MaxEntries: maxEntries}),
		loaded:  map[string]bool{},
	}
}

// HashContent returns the cache key for a file's raw contents.
func HashContent(contents string) uint64 {
	return xxhash.Sum64String(contents)
}

// GetOrParse returns the cached Entry for contents' hash, calling parse
// to populate it on a miss. Concurrent callers requesting the same hash
// block on the same in-flight parse rather than duplicating work.
func (c *ParseCache) GetOrParse(path, contents string, parse func() (*ast.Arena, ast.Ref, error)) Entry {
	key := HashContent(contents)
	entry, _, _ := c.results.GetOrCreate(key, func() (Entry, error) {
		arena, root, err := parse()
		return Entry{Arena: arena, Root: root, Err: err}, nil
	})
	c.mu.Lock()
	c.loaded[path] = true
	c.mu.Unlock()
	return entry
}

// Processed reports whether path has already been resolved in this job
// ("processed-file set", used by the resolver's import cycle
// detector alongside internal/symbols.HasCycle).
func (c *ParseCache) Processed(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded[path]
}
