// Package utymap implements a persistent, quad-key-partitioned store for
// map elements. Each tile owns an append-only index/data log pair and a
// roaring-bitmap term index; a bounded LRU cache of open tile handles
// keeps repeated access across many tiles affordable.
//
// The store supports two read paths: a full-tile scan in insertion order
// and a boolean term query filtered by bounding box and level-of-detail
// range.
package utymap
