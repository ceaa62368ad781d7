package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/Jgoga/utymap/entities"
	"github.com/Jgoga/utymap/geo"
)

// Binary is the little-endian element codec.
//
// Wire format of one record:
//
//	[compression u8][compressed length u32][uncompressed length u32][body]
//
// The body holds the element id (u64), the tag list (u32 count,
// u16-length-prefixed key and value per tag) and the geometry (u32 count,
// two f64 per coordinate). The 9-byte header makes records
// self-delimiting, so the data log needs no separate framing.
type Binary struct {
	compression CompressionType
}

// NewBinary returns a Binary codec that compresses record bodies with ct.
// Decoding accepts any compression tag regardless of ct.
func NewBinary(ct CompressionType) *Binary {
	return &Binary{compression: ct}
}

// Name implements Codec.
func (c *Binary) Name() string {
	switch c.compression {
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

const recordHeaderSize = 9

// Encode implements Codec.
func (c *Binary) Encode(w io.Writer, element entities.Element) error {
	body := appendBody(nil, element)

	data, tag, err := compressBody(body, c.compression)
	if err != nil {
		return fmt.Errorf("compress element %d: %w", element.ID, err)
	}

	var header [recordHeaderSize]byte
	header[0] = byte(tag)
	binary.LittleEndian.PutUint32(header[1:], uint32(len(data)))
	binary.LittleEndian.PutUint32(header[5:], uint32(len(body)))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode implements Codec.
func (c *Binary) Decode(r io.Reader) (entities.Element, error) {
	var header [recordHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return entities.Element{}, err
	}
	tag := CompressionType(header[0])
	compressedLen := binary.LittleEndian.Uint32(header[1:])
	bodyLen := binary.LittleEndian.Uint32(header[5:])

	data := make([]byte, compressedLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return entities.Element{}, err
	}

	body, err := decompressBody(data, tag, bodyLen)
	if err != nil {
		return entities.Element{}, err
	}
	return readBody(bytes.NewReader(body))
}

func appendBody(buf []byte, element entities.Element) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, element.ID)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(element.Tags)))
	for _, tag := range element.Tags {
		buf = appendString(buf, tag.Key)
		buf = appendString(buf, tag.Value)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(element.Geometry)))
	for _, c := range element.Geometry {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c.Latitude))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c.Longitude))
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

func readBody(r *bytes.Reader) (entities.Element, error) {
	var element entities.Element
	if err := binary.Read(r, binary.LittleEndian, &element.ID); err != nil {
		return element, err
	}

	var tagCount uint32
	if err := binary.Read(r, binary.LittleEndian, &tagCount); err != nil {
		return element, err
	}
	if tagCount > 0 {
		element.Tags = make([]entities.Tag, 0, tagCount)
	}
	for i := uint32(0); i < tagCount; i++ {
		key, err := readString(r)
		if err != nil {
			return element, err
		}
		value, err := readString(r)
		if err != nil {
			return element, err
		}
		element.Tags = append(element.Tags, entities.Tag{Key: key, Value: value})
	}

	var coordCount uint32
	if err := binary.Read(r, binary.LittleEndian, &coordCount); err != nil {
		return element, err
	}
	if coordCount > 0 {
		element.Geometry = make([]geo.GeoCoordinate, 0, coordCount)
	}
	for i := uint32(0); i < coordCount; i++ {
		var lat, lon uint64
		if err := binary.Read(r, binary.LittleEndian, &lat); err != nil {
			return element, err
		}
		if err := binary.Read(r, binary.LittleEndian, &lon); err != nil {
			return element, err
		}
		element.Geometry = append(element.Geometry, geo.GeoCoordinate{
			Latitude:  math.Float64frombits(lat),
			Longitude: math.Float64frombits(lon),
		})
	}
	return element, nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
