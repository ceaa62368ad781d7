// Package tilelog implements the per-tile append-only log pair: a fixed
// 12-byte-record index log mapping element id to data offset, and a data
// log of self-delimiting element records. The ordinal position of an
// index entry is the element's insertion order, the addressing unit used
// by the term index.
package tilelog

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/Jgoga/utymap/codec"
	"github.com/Jgoga/utymap/entities"
	"github.com/Jgoga/utymap/geo"
)

// File extensions of the three per-tile files.
const (
	IndexExt  = ".idf"
	DataExt   = ".dat"
	BitmapExt = ".bmp"
)

// entrySize is the fixed width of one index record: u64 id + u32 offset.
// Offsets and insertion orders are 32-bit: a tile whose data log exceeds
// 4 GiB, or which accumulates more than ~4 billion entries, overflows the
// format. That is a documented limit of the layout, not a handled case.
const entrySize = 12

// FilePath derives the on-disk path of one tile file:
// <root>/<lod>/<quadkey><ext>.
func FilePath(root string, key geo.QuadKey, ext string) string {
	return filepath.Join(root, strconv.Itoa(key.LevelOfDetail), key.String()+ext)
}

// BlobName derives the storage-root-relative blob name of the tile's
// bitmap blob, slash-separated for blobstore keys.
func BlobName(key geo.QuadKey) string {
	return path.Join(strconv.Itoa(key.LevelOfDetail), key.String()+BitmapExt)
}

// LogPair owns the open index and data log streams of one tile. It is
// created on first access to a tile and lives until evicted from the
// resource cache. Not safe for concurrent use.
type LogPair struct {
	indexFile *os.File
	dataFile  *os.File
	indexPath string
	dataPath  string
}

// Open opens (creating if absent) the tile's log pair under root.
func Open(root string, key geo.QuadKey) (*LogPair, error) {
	indexPath := FilePath(root, key, IndexExt)
	dataPath := FilePath(root, key, DataExt)

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, err
	}

	indexFile, err := os.OpenFile(indexPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	dataFile, err := os.OpenFile(dataPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		indexFile.Close()
		return nil, err
	}

	return &LogPair{
		indexFile: indexFile,
		dataFile:  dataFile,
		indexPath: indexPath,
		dataPath:  dataPath,
	}, nil
}

// IndexPath returns the path of the index log.
func (p *LogPair) IndexPath() string { return p.indexPath }

// DataPath returns the path of the data log.
func (p *LogPair) DataPath() string { return p.dataPath }

// Count returns the number of index entries, i.e. the next insertion
// order.
func (p *LogPair) Count() (uint32, error) {
	info, err := p.indexFile.Stat()
	if err != nil {
		return 0, err
	}
	return uint32(info.Size() / entrySize), nil
}

// Append stores one element: the index entry records the data log's
// current end as the element's offset, the data record is encoded with c.
// It returns the element's insertion order. Both logs only ever grow;
// existing bytes are never rewritten.
func (p *LogPair) Append(element entities.Element, c codec.Codec) (uint32, error) {
	indexInfo, err := p.indexFile.Stat()
	if err != nil {
		return 0, err
	}
	dataInfo, err := p.dataFile.Stat()
	if err != nil {
		return 0, err
	}
	order := uint32(indexInfo.Size() / entrySize)
	offset := uint32(dataInfo.Size())

	var buf bytes.Buffer
	if err := c.Encode(&buf, element); err != nil {
		return 0, fmt.Errorf("encode element %d: %w", element.ID, err)
	}
	if _, err := p.dataFile.WriteAt(buf.Bytes(), dataInfo.Size()); err != nil {
		return 0, err
	}

	var entry [entrySize]byte
	binary.LittleEndian.PutUint64(entry[0:], element.ID)
	binary.LittleEndian.PutUint32(entry[8:], offset)
	if _, err := p.indexFile.WriteAt(entry[:], indexInfo.Size()); err != nil {
		return 0, err
	}
	return order, nil
}

// ReadAll streams every stored element to the visitor in insertion
// order. Cancellation is checked once per entry; on cancellation the
// context error is returned and remaining entries are not visited.
func (p *LogPair) ReadAll(ctx context.Context, c codec.Codec, visitor entities.ElementVisitor) error {
	count, err := p.Count()
	if err != nil {
		return err
	}
	for order := uint32(0); order < count; order++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		element, err := p.ReadAt(order, c)
		if err != nil {
			return err
		}
		visitor.Visit(element)
	}
	return nil
}

// ReadAt decodes the single element stored at the given insertion order.
func (p *LogPair) ReadAt(order uint32, c codec.Codec) (entities.Element, error) {
	var entry [entrySize]byte
	if _, err := p.indexFile.ReadAt(entry[:], int64(order)*entrySize); err != nil {
		return entities.Element{}, fmt.Errorf("read index entry %d: %w", order, err)
	}
	id := binary.LittleEndian.Uint64(entry[0:])
	offset := binary.LittleEndian.Uint32(entry[8:])

	dataInfo, err := p.dataFile.Stat()
	if err != nil {
		return entities.Element{}, err
	}
	r := io.NewSectionReader(p.dataFile, int64(offset), dataInfo.Size()-int64(offset))
	element, err := c.Decode(r)
	if err != nil {
		return entities.Element{}, fmt.Errorf("decode element at order %d offset %d: %w", order, offset, err)
	}
	if element.ID != id {
		return entities.Element{}, fmt.Errorf("data log mismatch at order %d: index id %d, record id %d", order, id, element.ID)
	}
	return element, nil
}

// Close closes both log streams.
func (p *LogPair) Close() error {
	err := p.indexFile.Close()
	if derr := p.dataFile.Close(); err == nil {
		err = derr
	}
	return err
}

// HasData reports whether the tile's data log exists and is openable for
// reading. It does not validate contents.
func HasData(root string, key geo.QuadKey) bool {
	f, err := os.Open(FilePath(root, key, DataExt))
	if err != nil {
		return false
	}
	f.Close()
	return true
}
