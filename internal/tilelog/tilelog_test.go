package tilelog

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jgoga/utymap/codec"
	"github.com/Jgoga/utymap/entities"
	"github.com/Jgoga/utymap/geo"
)

var testKey = geo.QuadKey{LevelOfDetail: 5, TileX: 11, TileY: 7}

func testElements() []entities.Element {
	return []entities.Element{
		{ID: 1, Tags: []entities.Tag{{Key: "a", Value: "1"}}, Geometry: []geo.GeoCoordinate{{Latitude: 1, Longitude: 1}}},
		{ID: 2, Tags: []entities.Tag{{Key: "b", Value: "2"}}, Geometry: []geo.GeoCoordinate{{Latitude: 2, Longitude: 2}}},
		{ID: 3, Geometry: []geo.GeoCoordinate{{Latitude: 3, Longitude: 3}, {Latitude: 4, Longitude: 4}}},
	}
}

func openPair(t *testing.T) (*LogPair, string) {
	t.Helper()
	root := t.TempDir()
	p, err := Open(root, testKey)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, root
}

func TestAppendReadAll(t *testing.T) {
	p, _ := openPair(t)
	c := codec.Default

	for i, element := range testElements() {
		order, err := p.Append(element, c)
		require.NoError(t, err)
		assert.Equal(t, uint32(i), order)
	}

	count, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), count)

	var got []entities.Element
	err = p.ReadAll(context.Background(), c, entities.VisitorFunc(func(e entities.Element) {
		got = append(got, e)
	}))
	require.NoError(t, err)
	assert.Equal(t, testElements(), got, "insertion order preserved")
}

func TestReadAt(t *testing.T) {
	p, _ := openPair(t)
	c := codec.Default

	for _, element := range testElements() {
		_, err := p.Append(element, c)
		require.NoError(t, err)
	}

	// Random access, not sequential.
	for _, order := range []uint32{2, 0, 1} {
		element, err := p.ReadAt(order, c)
		require.NoError(t, err)
		assert.Equal(t, testElements()[order], element)
	}

	_, err := p.ReadAt(3, c)
	assert.Error(t, err)
}

func TestReadAllCancellation(t *testing.T) {
	p, _ := openPair(t)
	c := codec.Default

	for _, element := range testElements() {
		_, err := p.Append(element, c)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	visited := 0
	err := p.ReadAll(ctx, c, entities.VisitorFunc(func(entities.Element) {
		visited++
		cancel()
	}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, visited, "cancellation checked once per entry")
}

func TestIndexEntryLayout(t *testing.T) {
	p, root := openPair(t)

	element := entities.Element{ID: 0xDEADBEEF, Geometry: []geo.GeoCoordinate{{Latitude: 1, Longitude: 2}}}
	_, err := p.Append(element, codec.Default)
	require.NoError(t, err)
	_, err = p.Append(element, codec.Default)
	require.NoError(t, err)

	raw, err := os.ReadFile(FilePath(root, testKey, IndexExt))
	require.NoError(t, err)
	require.Len(t, raw, 2*entrySize, "fixed 12-byte entries")

	assert.Equal(t, uint64(0xDEADBEEF), binary.LittleEndian.Uint64(raw[0:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(raw[8:]), "first record starts at offset 0")

	secondOffset := binary.LittleEndian.Uint32(raw[entrySize+8:])
	dataInfo, err := os.Stat(FilePath(root, testKey, DataExt))
	require.NoError(t, err)
	assert.Equal(t, int64(secondOffset)*2, dataInfo.Size(), "second record starts where the first ended")
}

func TestHasData(t *testing.T) {
	root := t.TempDir()
	assert.False(t, HasData(root, testKey))

	p, err := Open(root, testKey)
	require.NoError(t, err)
	defer p.Close()

	// Open creates the files, so the probe now succeeds even before any
	// element is stored.
	assert.True(t, HasData(root, testKey))
}

func TestFilePathDerivation(t *testing.T) {
	got := FilePath("/data", geo.QuadKey{LevelOfDetail: 3, TileX: 2, TileY: 2}, DataExt)
	assert.Equal(t, filepath.Join("/data", "3", "030.dat"), got)

	assert.Equal(t, "3/030.bmp", BlobName(geo.QuadKey{LevelOfDetail: 3, TileX: 2, TileY: 2}))
}

func TestReopenPreservesData(t *testing.T) {
	root := t.TempDir()
	c := codec.Default

	p, err := Open(root, testKey)
	require.NoError(t, err)
	for _, element := range testElements() {
		_, err := p.Append(element, c)
		require.NoError(t, err)
	}
	require.NoError(t, p.Close())

	p, err = Open(root, testKey)
	require.NoError(t, err)
	defer p.Close()

	count, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), count)

	order, err := p.Append(entities.Element{ID: 4, Geometry: []geo.GeoCoordinate{{Latitude: 5, Longitude: 5}}}, c)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), order, "appends continue after the existing entries")
}
