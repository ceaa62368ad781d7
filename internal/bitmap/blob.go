package bitmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Blob layout, little-endian:
//
//	[magic u32][version u8][order count u32][term count u32]
//	then per term: [len u16][term bytes][len u32][roaring portable bytes]
//
// Terms are written in sorted order so identical indexes serialize to
// identical bytes.
const (
	blobMagic   uint32 = 0x504d4255 // "UBMP"
	blobVersion uint8  = 1
)

// Encode writes the full serialized index to w.
func (ix *Index) Encode(w io.Writer) error {
	var header [13]byte
	binary.LittleEndian.PutUint32(header[0:], blobMagic)
	header[4] = blobVersion
	binary.LittleEndian.PutUint32(header[5:], ix.count)
	binary.LittleEndian.PutUint32(header[9:], uint32(len(ix.terms)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	terms := make([]string, 0, len(ix.terms))
	for term := range ix.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	for _, term := range terms {
		data, err := ix.terms[term].ToBytes()
		if err != nil {
			return fmt.Errorf("serialize bitmap for term %q: %w", term, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(term))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, term); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a serialized index produced by Encode.
func Decode(r io.Reader) (*Index, error) {
	var header [13]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	if magic := binary.LittleEndian.Uint32(header[0:]); magic != blobMagic {
		return nil, fmt.Errorf("bad bitmap blob magic %#x", magic)
	}
	if version := header[4]; version != blobVersion {
		return nil, fmt.Errorf("unsupported bitmap blob version %d", version)
	}

	ix := New()
	ix.count = binary.LittleEndian.Uint32(header[5:])
	termCount := binary.LittleEndian.Uint32(header[9:])

	for i := uint32(0); i < termCount; i++ {
		var termLen uint16
		if err := binary.Read(r, binary.LittleEndian, &termLen); err != nil {
			return nil, err
		}
		termBytes := make([]byte, termLen)
		if _, err := io.ReadFull(r, termBytes); err != nil {
			return nil, err
		}
		var dataLen uint32
		if err := binary.Read(r, binary.LittleEndian, &dataLen); err != nil {
			return nil, err
		}
		data := make([]byte, dataLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
		rb := roaring.New()
		if _, err := rb.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("deserialize bitmap for term %q: %w", termBytes, err)
		}
		ix.terms[string(termBytes)] = rb
	}
	return ix, nil
}
