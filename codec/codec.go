// Package codec serializes elements into the self-delimiting binary
// records stored in a tile's data log.
//
// Codec selection is a breaking-change boundary for the data log: records
// are self-describing per record (each carries its compression tag), but
// the body layout itself is versioned only by this package.
package codec

import (
	"fmt"
	"io"

	"github.com/Jgoga/utymap/entities"
)

// Codec encodes and decodes one element record against a byte stream.
// Implementations must be safe for concurrent use.
type Codec interface {
	Encode(w io.Writer, element entities.Element) error
	Decode(r io.Reader) (entities.Element, error)
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = NewBinary(CompressionNone)

// ByName returns a built-in codec by its stable name
// ("none", "lz4" or "zstd").
func ByName(name string) (Codec, bool) {
	switch name {
	case "none":
		return NewBinary(CompressionNone), true
	case "lz4":
		return NewBinary(CompressionLZ4), true
	case "zstd":
		return NewBinary(CompressionZSTD), true
	default:
		return nil, false
	}
}

// MustByName is a helper for tests and command wiring.
func MustByName(name string) Codec {
	c, ok := ByName(name)
	if !ok {
		panic(fmt.Errorf("unknown codec %q", name))
	}
	return c
}
