package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the block compression applied to record bodies.
type CompressionType uint8

const (
	// CompressionNone stores record bodies verbatim.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast, modest ratio).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compressBody compresses body with the given algorithm. It returns the
// compressed bytes and the tag to record; incompressible bodies fall back
// to CompressionNone.
func compressBody(body []byte, ct CompressionType) ([]byte, CompressionType, error) {
	if ct == CompressionNone || len(body) == 0 {
		return body, CompressionNone, nil
	}

	var compressed []byte
	switch ct {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(body)))
		n, err := lz4.CompressBlock(body, buf, nil)
		if err != nil {
			return nil, 0, err
		}
		if n == 0 {
			// Incompressible.
			return body, CompressionNone, nil
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(body, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("unknown compression type %d", ct)
	}

	if len(compressed) >= len(body) {
		return body, CompressionNone, nil
	}
	return compressed, ct, nil
}

// decompressBody reverses compressBody. size is the recorded uncompressed
// length.
func decompressBody(data []byte, ct CompressionType, size uint32) ([]byte, error) {
	switch ct {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		body := make([]byte, size)
		n, err := lz4.UncompressBlock(data, body)
		if err != nil {
			return nil, err
		}
		return body[:n], nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		body, err := dec.DecodeAll(data, make([]byte, 0, size))
		zstdDecoderPool.Put(dec)
		return body, err
	default:
		return nil, fmt.Errorf("unknown compression type %d", ct)
	}
}
