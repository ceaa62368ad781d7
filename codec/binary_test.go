package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jgoga/utymap/entities"
	"github.com/Jgoga/utymap/geo"
)

func testElement() entities.Element {
	return entities.Element{
		ID: 123456789,
		Tags: []entities.Tag{
			{Key: "amenity", Value: "cafe"},
			{Key: "name", Value: "Käffchen"},
		},
		Geometry: []geo.GeoCoordinate{
			{Latitude: 52.520008, Longitude: 13.404954},
			{Latitude: 52.520100, Longitude: 13.405100},
		},
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		t.Run(name, func(t *testing.T) {
			c := MustByName(name)

			var buf bytes.Buffer
			want := testElement()
			require.NoError(t, c.Encode(&buf, want))

			got, err := c.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestBinaryRecordsSelfDelimiting(t *testing.T) {
	c := NewBinary(CompressionNone)

	first := testElement()
	second := entities.Element{ID: 7, Geometry: []geo.GeoCoordinate{{Latitude: 1, Longitude: 2}}}

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, first))
	require.NoError(t, c.Encode(&buf, second))

	got1, err := c.Decode(&buf)
	require.NoError(t, err)
	got2, err := c.Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, first, got1)
	assert.Equal(t, second, got2)
}

func TestBinaryDecodeAcceptsAnyCompressionTag(t *testing.T) {
	// Records written compressed must decode through a codec configured
	// with a different compression setting.
	want := testElement()
	// Repetitive payload so compression actually engages.
	want.Tags = nil
	for i := 0; i < 50; i++ {
		want.Tags = append(want.Tags, entities.Tag{Key: "highway", Value: strings.Repeat("residential", 4)})
	}

	var buf bytes.Buffer
	require.NoError(t, NewBinary(CompressionZSTD).Encode(&buf, want))
	encoded := buf.Len()

	got, err := NewBinary(CompressionNone).Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var raw bytes.Buffer
	require.NoError(t, NewBinary(CompressionNone).Encode(&raw, want))
	assert.Less(t, encoded, raw.Len(), "zstd should shrink a repetitive payload")
}

func TestIncompressibleBodyFallsBackToNone(t *testing.T) {
	// No repetition, nothing for lz4 to match: the body must be stored
	// with the uncompressed tag.
	body := make([]byte, 32)
	for i := range body {
		body[i] = byte(i * 37)
	}

	data, tag, err := compressBody(body, CompressionLZ4)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, tag)
	assert.Equal(t, body, data)
}

func TestByName(t *testing.T) {
	for name, ct := range map[string]CompressionType{
		"none": CompressionNone,
		"lz4":  CompressionLZ4,
		"zstd": CompressionZSTD,
	} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
		assert.Equal(t, ct, c.(*Binary).compression)
	}

	_, ok := ByName("gzip")
	assert.False(t, ok)
}
