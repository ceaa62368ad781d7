// Command utymap-import bulk-loads map elements into a store from a
// JSONL stream, one element per line:
//
//	{"id": 42, "tags": {"amenity": "cafe"}, "geometry": [[52.52, 13.40]]}
//
// Elements are grouped by their target tile and tiles are written
// concurrently. The store only permits concurrent access across distinct
// tiles, so all writes for one tile stay on a single goroutine, and the
// worker limit stays below the tile-handle cache capacity.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Jgoga/utymap"
	"github.com/Jgoga/utymap/codec"
	"github.com/Jgoga/utymap/entities"
	"github.com/Jgoga/utymap/geo"
)

type record struct {
	ID       uint64            `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry [][2]float64      `json:"geometry"`
}

func main() {
	var (
		root        = flag.String("root", "", "storage root directory (required)")
		input       = flag.String("input", "-", "JSONL input file, or - for stdin")
		lod         = flag.Int("lod", 16, "level of detail to store elements at")
		workers     = flag.Int("workers", 4, "number of tiles written concurrently")
		rateLimit   = flag.Int("rate", 0, "max elements per second, 0 for unlimited")
		compression = flag.String("compression", "none", "payload compression: none, lz4 or zstd")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(context.Background(), logger, *root, *input, *lod, *workers, *rateLimit, *compression); err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, root, input string, lod, workers, rateLimit int, compression string) error {
	if root == "" {
		return fmt.Errorf("-root is required")
	}
	if lod < geo.MinLevelOfDetail || lod > geo.MaxLevelOfDetail {
		return fmt.Errorf("lod %d out of range [%d, %d]", lod, geo.MinLevelOfDetail, geo.MaxLevelOfDetail)
	}
	payloadCodec, ok := codec.ByName(compression)
	if !ok {
		return fmt.Errorf("unknown compression %q", compression)
	}
	if workers < 1 {
		workers = 1
	}

	in := io.Reader(os.Stdin)
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	tiles, total, err := readGroups(in, lod)
	if err != nil {
		return err
	}
	logger.Info("parsed input", "elements", total, "tiles", len(tiles), "lod", lod)

	// Keep the handle cache strictly larger than the worker count so a
	// tile being written is never evicted mid-write.
	store, err := utymap.Open(root,
		utymap.WithCodec(payloadCodec),
		utymap.WithCacheCapacity(max(utymap.DefaultCacheCapacity, workers*2)),
		utymap.WithLogger(utymap.NewLogger(logger.Handler())),
	)
	if err != nil {
		return err
	}
	defer store.Close()

	var limiter *rate.Limiter
	if rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for key, elements := range tiles {
		g.Go(func() error {
			for _, element := range elements {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return err
					}
				}
				if err := store.Save(element, key); err != nil {
					return fmt.Errorf("tile %s: %w", key, err)
				}
			}
			logger.Debug("tile imported", "quadkey", key.String(), "elements", len(elements))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("import done", "elements", total, "tiles", len(tiles))
	return nil
}

// readGroups parses the JSONL stream and groups elements by the tile
// containing their geometric center at the target level of detail.
func readGroups(in io.Reader, lod int) (map[geo.QuadKey][]entities.Element, int, error) {
	tiles := make(map[geo.QuadKey][]entities.Element)
	total := 0

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec.Geometry) == 0 {
			return nil, 0, fmt.Errorf("line %d: element %d has no geometry", line, rec.ID)
		}

		element := entities.Element{ID: rec.ID}
		keys := make([]string, 0, len(rec.Tags))
		for k := range rec.Tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			element.Tags = append(element.Tags, entities.Tag{Key: k, Value: rec.Tags[k]})
		}
		for _, c := range rec.Geometry {
			element.Geometry = append(element.Geometry, geo.GeoCoordinate{Latitude: c[0], Longitude: c[1]})
		}

		key := geo.QuadKeyFromLatLon(center(element.Geometry), lod)
		tiles[key] = append(tiles[key], element)
		total++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return tiles, total, nil
}

func center(coords []geo.GeoCoordinate) geo.GeoCoordinate {
	var lat, lon float64
	for _, c := range coords {
		lat += c.Latitude
		lon += c.Longitude
	}
	n := float64(len(coords))
	return geo.GeoCoordinate{Latitude: lat / n, Longitude: lon / n}
}
