package geo

import (
	"fmt"
	"iter"
	"math"
	"strings"
)

// Quad-key addressing follows the Bing Maps tile system: at level of
// detail n the world is a 2^n x 2^n grid of tiles in Web Mercator
// projection, and a key is the base-4 string of interleaved X/Y bits.
const (
	MinLevelOfDetail = 1
	MaxLevelOfDetail = 19

	// MinLatitude and MaxLatitude bound the Web Mercator projection.
	MinLatitude = -85.05112878
	MaxLatitude = 85.05112878

	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// QuadKey identifies one tile of the quad tree. The zero value is not a
// valid key.
type QuadKey struct {
	LevelOfDetail int
	TileX         int
	TileY         int
}

// QuadKeyFromLatLon returns the quad key of the tile containing the
// coordinate at the given level of detail. The coordinate is clipped to
// the Mercator domain.
func QuadKeyFromLatLon(c GeoCoordinate, lod int) QuadKey {
	lat := clip(c.Latitude, MinLatitude, MaxLatitude)
	lon := clip(c.Longitude, MinLongitude, MaxLongitude)

	x := (lon + 180) / 360
	sinLat := math.Sin(lat * math.Pi / 180)
	y := 0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)

	size := float64(int(1) << lod)
	return QuadKey{
		LevelOfDetail: lod,
		TileX:         int(clip(x*size, 0, size-1)),
		TileY:         int(clip(y*size, 0, size-1)),
	}
}

// ParseQuadKey decodes a base-4 quad-key string.
func ParseQuadKey(s string) (QuadKey, error) {
	if s == "" {
		return QuadKey{}, fmt.Errorf("empty quad key")
	}
	key := QuadKey{LevelOfDetail: len(s)}
	for i, d := range s {
		mask := 1 << (len(s) - i - 1)
		switch d {
		case '0':
		case '1':
			key.TileX |= mask
		case '2':
			key.TileY |= mask
		case '3':
			key.TileX |= mask
			key.TileY |= mask
		default:
			return QuadKey{}, fmt.Errorf("invalid quad key %q", s)
		}
	}
	return key, nil
}

// String returns the base-4 encoding of the key, one digit per level.
func (k QuadKey) String() string {
	var sb strings.Builder
	sb.Grow(k.LevelOfDetail)
	for i := k.LevelOfDetail; i > 0; i-- {
		digit := byte('0')
		mask := 1 << (i - 1)
		if k.TileX&mask != 0 {
			digit++
		}
		if k.TileY&mask != 0 {
			digit += 2
		}
		sb.WriteByte(digit)
	}
	return sb.String()
}

// IsValid reports whether the key addresses an existing tile.
func (k QuadKey) IsValid() bool {
	if k.LevelOfDetail < MinLevelOfDetail || k.LevelOfDetail > MaxLevelOfDetail {
		return false
	}
	size := 1 << k.LevelOfDetail
	return k.TileX >= 0 && k.TileX < size && k.TileY >= 0 && k.TileY < size
}

// Parent returns the key of the enclosing tile one level up.
func (k QuadKey) Parent() QuadKey {
	return QuadKey{
		LevelOfDetail: k.LevelOfDetail - 1,
		TileX:         k.TileX / 2,
		TileY:         k.TileY / 2,
	}
}

// Children returns the four keys that subdivide the tile one level down.
func (k QuadKey) Children() [4]QuadKey {
	lod, x, y := k.LevelOfDetail+1, k.TileX*2, k.TileY*2
	return [4]QuadKey{
		{lod, x, y},
		{lod, x + 1, y},
		{lod, x, y + 1},
		{lod, x + 1, y + 1},
	}
}

// BoundingBox returns the geographic extent of the tile.
func (k QuadKey) BoundingBox() BoundingBox {
	north, west := tileOrigin(k.TileX, k.TileY, k.LevelOfDetail)
	south, east := tileOrigin(k.TileX+1, k.TileY+1, k.LevelOfDetail)
	return BoundingBox{
		Min: GeoCoordinate{Latitude: south, Longitude: west},
		Max: GeoCoordinate{Latitude: north, Longitude: east},
	}
}

// tileOrigin returns the coordinate of the tile's north-west corner.
func tileOrigin(tileX, tileY, lod int) (lat, lon float64) {
	size := float64(int(1) << lod)
	x := float64(tileX) / size
	y := float64(tileY) / size
	lon = 360*x - 180
	lat = 90 - 360*math.Atan(math.Exp((y-0.5)*2*math.Pi))/math.Pi
	return lat, lon
}

// QuadKeysInRange yields every quad key whose tile intersects the
// bounding box, for each level of detail in the range, in ascending
// lod/row/column order.
func QuadKeysInRange(bbox BoundingBox, lods LodRange) iter.Seq[QuadKey] {
	return func(yield func(QuadKey) bool) {
		for lod := lods.Start; lod <= lods.End; lod++ {
			// North-west and south-east corners bound the tile grid range.
			nw := QuadKeyFromLatLon(GeoCoordinate{Latitude: bbox.Max.Latitude, Longitude: bbox.Min.Longitude}, lod)
			se := QuadKeyFromLatLon(GeoCoordinate{Latitude: bbox.Min.Latitude, Longitude: bbox.Max.Longitude}, lod)
			for y := nw.TileY; y <= se.TileY; y++ {
				for x := nw.TileX; x <= se.TileX; x++ {
					if !yield(QuadKey{LevelOfDetail: lod, TileX: x, TileY: y}) {
						return
					}
				}
			}
		}
	}
}

func clip(v, min, max float64) float64 {
	return math.Min(math.Max(v, min), max)
}
