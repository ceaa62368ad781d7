package utymap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Jgoga/utymap/blobstore"
	"github.com/Jgoga/utymap/codec"
	"github.com/Jgoga/utymap/entities"
	"github.com/Jgoga/utymap/geo"
	"github.com/Jgoga/utymap/internal/bitmap"
	"github.com/Jgoga/utymap/internal/cache"
	"github.com/Jgoga/utymap/internal/tilelog"
)

// Query is a boolean term query scoped to a bounding box and a
// level-of-detail range.
//
// Matching elements satisfy (OR of OrTerms) AND (AND of AndTerms) AND NOT
// (OR of NotTerms); an empty OrTerms imposes no restriction. The bounding
// box selects which tiles are queried and additionally filters matches
// geometrically; terms themselves carry no geometry.
type Query struct {
	NotTerms []string
	AndTerms []string
	OrTerms  []string

	BoundingBox geo.BoundingBox
	LodRange    geo.LodRange
}

// Store is a persistent, quad-key-partitioned element store.
//
// Concurrency contract: operations against the same quad key must be
// serialized by the caller; operations against distinct keys may run
// concurrently. The only internal synchronization guards tile-handle
// cache membership and per-handle bitmap loading.
type Store struct {
	root    string
	codec   codec.Codec
	bitmaps blobstore.Store
	logger  *Logger
	cache   *cache.LRU[geo.QuadKey, *tileHandle]
	closed  atomic.Bool
}

// tileHandle bundles a tile's open log pair with its lazily loaded term
// index. Owned exclusively by the cache; closed on eviction.
type tileHandle struct {
	key  geo.QuadKey
	logs *tilelog.LogPair

	// The term index is deserialized from its blob on first use and kept
	// for the life of the handle. sync.Once makes first-touch loading
	// safe even across goroutines.
	once  sync.Once
	index *bitmap.Index
	err   error
}

func (h *tileHandle) termIndex(ctx context.Context, blobs blobstore.Store) (*bitmap.Index, error) {
	h.once.Do(func() {
		data, err := blobs.Get(ctx, tilelog.BlobName(h.key))
		if errors.Is(err, blobstore.ErrNotFound) {
			h.index = bitmap.New()
			return
		}
		if err != nil {
			h.err = err
			return
		}
		h.index, h.err = bitmap.Decode(bytes.NewReader(data))
	})
	return h.index, h.err
}

// Open opens (creating if needed) a store rooted at the given directory.
func Open(root string, opts ...Option) (*Store, error) {
	o := &options{
		cacheCapacity: DefaultCacheCapacity,
		codec:         codec.Default,
		logger:        NoopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.bitmapStore == nil {
		o.bitmapStore = blobstore.NewLocalStore(root)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	s := &Store{
		root:    root,
		codec:   o.codec,
		bitmaps: o.bitmapStore,
		logger:  o.logger,
	}
	s.cache = cache.New(o.cacheCapacity, func(key geo.QuadKey, h *tileHandle) {
		if err := h.logs.Close(); err != nil {
			s.logger.WithQuadKey(key).Warn("close tile handle", "error", err)
		}
	})
	return s, nil
}

// handle resolves the tile's cached handle, opening its log pair on a
// cache miss and evicting the least recently used handle at capacity.
func (s *Store) handle(key geo.QuadKey) (*tileHandle, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	return s.cache.GetOrOpen(key, func() (*tileHandle, error) {
		logs, err := tilelog.Open(s.root, key)
		if err != nil {
			return nil, fmt.Errorf("open tile %s: %w", key, err)
		}
		return &tileHandle{key: key, logs: logs}, nil
	})
}

// Save appends the element to the tile's logs, indexes its terms at the
// new insertion order and rewrites the tile's bitmap blob.
//
// The three writes are not atomic; a crash between them can leave the
// bitmap blob behind the logs.
func (s *Store) Save(element entities.Element, key geo.QuadKey) error {
	ctx := context.Background()

	h, err := s.handle(key)
	if err != nil {
		return err
	}
	ix, err := h.termIndex(ctx, s.bitmaps)
	if err != nil {
		return fmt.Errorf("load term index for tile %s: %w", key, err)
	}

	order, err := h.logs.Append(element, s.codec)
	if err != nil {
		return fmt.Errorf("append to tile %s: %w", key, err)
	}
	ix.Add(element.Terms(), order)

	var buf bytes.Buffer
	if err := ix.Encode(&buf); err != nil {
		return fmt.Errorf("encode term index for tile %s: %w", key, err)
	}
	if err := s.bitmaps.Put(ctx, tilelog.BlobName(key), buf.Bytes()); err != nil {
		return fmt.Errorf("write bitmap blob for tile %s: %w", key, err)
	}
	return nil
}

// SearchTile streams every element stored under the tile to the visitor
// in insertion order. Cancellation is checked once per entry; a cancelled
// scan returns nil after delivering a prefix of the tile.
func (s *Store) SearchTile(ctx context.Context, key geo.QuadKey, visitor entities.ElementVisitor) error {
	h, err := s.handle(key)
	if err != nil {
		return err
	}
	if err := h.logs.ReadAll(ctx, s.codec, visitor); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}
	return nil
}

// SearchTerms evaluates the term query against every tile intersecting
// the query's bounding box within its LOD range, decoding each bitmap
// match from the data log and forwarding only geometrically intersecting
// elements to the visitor.
//
// Cancellation is checked once per bitmap match, mirroring the per-entry
// check of full-tile scans; a cancelled search returns nil after a
// partial result.
func (s *Store) SearchTerms(ctx context.Context, q Query, visitor entities.ElementVisitor) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !q.LodRange.IsValid() {
		return fmt.Errorf("invalid lod range [%d, %d]", q.LodRange.Start, q.LodRange.End)
	}

	filtered := entities.NewFilterVisitor(visitor, func(e entities.Element) bool {
		return e.Intersects(q.BoundingBox)
	})

	for key := range geo.QuadKeysInRange(q.BoundingBox, q.LodRange) {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if !tilelog.HasData(s.root, key) {
			continue
		}
		if err := s.searchTile(ctx, q, key, filtered); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *Store) searchTile(ctx context.Context, q Query, key geo.QuadKey, visitor entities.ElementVisitor) error {
	h, err := s.handle(key)
	if err != nil {
		return err
	}
	ix, err := h.termIndex(ctx, s.bitmaps)
	if err != nil {
		return fmt.Errorf("load term index for tile %s: %w", key, err)
	}

	for order := range ix.Query(q.NotTerms, q.AndTerms, q.OrTerms) {
		if err := ctx.Err(); err != nil {
			return err
		}
		element, err := h.logs.ReadAt(order, s.codec)
		if err != nil {
			return fmt.Errorf("tile %s: %w", key, err)
		}
		visitor.Visit(element)
	}
	return nil
}

// HasData reports whether the tile's data log exists on disk. Absence is
// a normal condition, not an error.
func (s *Store) HasData(key geo.QuadKey) bool {
	return tilelog.HasData(s.root, key)
}

// Erase closes and deletes the tile's three files and drops every cached
// handle. Deletion is best-effort: a file that cannot be removed is
// logged and skipped, and the erase still succeeds.
func (s *Store) Erase(key geo.QuadKey) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.cache.Remove(key)

	log := s.logger.WithQuadKey(key)
	for _, path := range []string{
		tilelog.FilePath(s.root, key, tilelog.IndexExt),
		tilelog.FilePath(s.root, key, tilelog.DataExt),
	} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error("cannot erase", "path", path, "error", err)
		}
	}
	if err := s.bitmaps.Delete(context.Background(), tilelog.BlobName(key)); err != nil &&
		!errors.Is(err, blobstore.ErrNotFound) {
		log.Error("cannot erase", "path", tilelog.BlobName(key), "error", err)
	}

	// The original store drops all cached handles after an erase, not just
	// the erased tile's.
	s.cache.Clear()
	return nil
}

// EraseArea would delete every element intersecting the bounding box
// within the LOD range. It is not supported and always returns
// ErrNotImplemented without touching any state.
func (s *Store) EraseArea(bbox geo.BoundingBox, lods geo.LodRange) error {
	return fmt.Errorf("erase by bounding box and lod range: %w", ErrNotImplemented)
}

// Flush drops every cached tile handle, closing their file streams. All
// durable data remains retrievable; the next access to a tile re-opens
// its files and re-loads its bitmap blob.
func (s *Store) Flush() {
	s.cache.Clear()
}

// Close flushes the store and marks it closed. Subsequent operations
// return ErrClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cache.Clear()
	return nil
}

// CacheStats returns tile-handle cache hit/miss counters.
func (s *Store) CacheStats() (hits, misses int64) {
	return s.cache.Stats()
}
