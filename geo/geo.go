// Package geo provides the spatial primitives used to partition and query
// stored elements: geographic coordinates, bounding boxes, level-of-detail
// ranges and hierarchical quad keys.
package geo

// GeoCoordinate is a WGS84 latitude/longitude pair in degrees.
type GeoCoordinate struct {
	Latitude  float64
	Longitude float64
}

// BoundingBox is an axis-aligned geographic rectangle.
// Min is the south-west corner, Max the north-east corner.
type BoundingBox struct {
	Min GeoCoordinate
	Max GeoCoordinate
}

// NewBoundingBox returns a bounding box spanning the two corners.
func NewBoundingBox(min, max GeoCoordinate) BoundingBox {
	return BoundingBox{Min: min, Max: max}
}

// EmptyBoundingBox returns an inverted box that expands to the first
// coordinate added to it.
func EmptyBoundingBox() BoundingBox {
	return BoundingBox{
		Min: GeoCoordinate{Latitude: 90, Longitude: 180},
		Max: GeoCoordinate{Latitude: -90, Longitude: -180},
	}
}

// IsValid reports whether the box spans a non-negative area.
func (b BoundingBox) IsValid() bool {
	return b.Min.Latitude <= b.Max.Latitude && b.Min.Longitude <= b.Max.Longitude
}

// Contains reports whether the coordinate lies inside the box, borders
// included.
func (b BoundingBox) Contains(c GeoCoordinate) bool {
	return c.Latitude >= b.Min.Latitude && c.Latitude <= b.Max.Latitude &&
		c.Longitude >= b.Min.Longitude && c.Longitude <= b.Max.Longitude
}

// Intersects reports whether the two boxes share any point.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	if !b.IsValid() || !o.IsValid() {
		return false
	}
	return b.Min.Latitude <= o.Max.Latitude && b.Max.Latitude >= o.Min.Latitude &&
		b.Min.Longitude <= o.Max.Longitude && b.Max.Longitude >= o.Min.Longitude
}

// Expand grows the box to include the coordinate.
func (b BoundingBox) Expand(c GeoCoordinate) BoundingBox {
	if c.Latitude < b.Min.Latitude {
		b.Min.Latitude = c.Latitude
	}
	if c.Latitude > b.Max.Latitude {
		b.Max.Latitude = c.Latitude
	}
	if c.Longitude < b.Min.Longitude {
		b.Min.Longitude = c.Longitude
	}
	if c.Longitude > b.Max.Longitude {
		b.Max.Longitude = c.Longitude
	}
	return b
}

// Union returns the smallest box containing both boxes.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return b.Expand(o.Min).Expand(o.Max)
}

// LodRange is an inclusive range of levels of detail.
type LodRange struct {
	Start int
	End   int
}

// NewLodRange returns the inclusive range [start, end].
func NewLodRange(start, end int) LodRange {
	return LodRange{Start: start, End: end}
}

// Contains reports whether lod falls inside the range.
func (r LodRange) Contains(lod int) bool {
	return lod >= r.Start && lod <= r.End
}

// IsValid reports whether the range is non-empty and within the quad-key
// addressing limits.
func (r LodRange) IsValid() bool {
	return r.Start >= MinLevelOfDetail && r.End <= MaxLevelOfDetail && r.Start <= r.End
}
