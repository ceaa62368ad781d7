package utymap

import (
	"github.com/Jgoga/utymap/blobstore"
	"github.com/Jgoga/utymap/codec"
)

// DefaultCacheCapacity bounds the number of simultaneously open tile
// handles when no explicit capacity is configured.
const DefaultCacheCapacity = 12

type options struct {
	cacheCapacity int
	codec         codec.Codec
	logger        *Logger
	bitmapStore   blobstore.Store
}

// Option configures store construction.
type Option func(*options)

// WithCacheCapacity sets the tile-handle cache capacity. Each cached
// handle holds two open file descriptors and the tile's in-memory term
// index, so the capacity bounds both.
func WithCacheCapacity(capacity int) Option {
	return func(o *options) {
		if capacity > 0 {
			o.cacheCapacity = capacity
		}
	}
}

// WithCodec configures the element payload codec used for the data log.
//
// If nil is passed, codec.Default is used. Changing the codec on an
// existing store is safe only if the new codec decodes records written by
// the old one.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger configures structured logging. If nil is passed, logging is
// disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithBitmapStore configures where per-tile bitmap blobs are persisted.
// The default keeps them next to the log files under the storage root;
// an object-store backend (e.g. blobstore/minio) may be used instead,
// since blobs are rewritten whole on every save.
func WithBitmapStore(s blobstore.Store) Option {
	return func(o *options) {
		if s != nil {
			o.bitmapStore = s
		}
	}
}
