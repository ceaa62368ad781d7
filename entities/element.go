// Package entities defines the map element model stored and queried by the
// persistent store: an element carries a stable identifier, key/value tags
// and a point-sequence geometry.
package entities

import (
	"strings"

	"github.com/Jgoga/utymap/geo"
)

// Tag is one key/value attribute attached to an element.
type Tag struct {
	Key   string
	Value string
}

// Element is a single map feature. Elements are immutable once stored:
// the store supports appends and whole-tile erasure only.
type Element struct {
	// ID is the stable 64-bit identifier of the feature.
	ID uint64

	// Tags describe the feature and are the source of its search terms.
	Tags []Tag

	// Geometry is the feature's point sequence: a single point for nodes,
	// an open chain for ways, a closed chain for areas.
	Geometry []geo.GeoCoordinate
}

// Terms returns the element's indexable search tokens: for every tag the
// lower-cased key, value and "key=value" forms. Duplicates are removed,
// ordering is not significant.
func (e Element) Terms() []string {
	seen := make(map[string]struct{}, len(e.Tags)*3)
	terms := make([]string, 0, len(e.Tags)*3)
	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	for _, tag := range e.Tags {
		k := strings.ToLower(tag.Key)
		v := strings.ToLower(tag.Value)
		add(k)
		add(v)
		if k != "" && v != "" {
			add(k + "=" + v)
		}
	}
	return terms
}

// BoundingBox returns the geographic extent of the element's geometry.
// An element without geometry yields an invalid box.
func (e Element) BoundingBox() geo.BoundingBox {
	bbox := geo.EmptyBoundingBox()
	for _, c := range e.Geometry {
		bbox = bbox.Expand(c)
	}
	return bbox
}

// Intersects reports whether the element's extent overlaps the box. An
// element without geometry intersects nothing.
func (e Element) Intersects(bbox geo.BoundingBox) bool {
	return e.BoundingBox().Intersects(bbox)
}
