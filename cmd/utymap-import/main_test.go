package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jgoga/utymap/geo"
)

func TestReadGroups(t *testing.T) {
	input := strings.Join([]string{
		`{"id": 1, "tags": {"amenity": "cafe"}, "geometry": [[52.520008, 13.404954]]}`,
		`{"id": 2, "tags": {"amenity": "bar"}, "geometry": [[52.520100, 13.405100]]}`,
		``,
		`{"id": 3, "geometry": [[-33.865143, 151.2099]]}`,
	}, "\n")

	tiles, total, err := readGroups(strings.NewReader(input), 16)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, tiles, 2, "nearby elements share a tile, Sydney gets its own")

	berlinKey := geo.QuadKeyFromLatLon(geo.GeoCoordinate{Latitude: 52.520008, Longitude: 13.404954}, 16)
	group := tiles[berlinKey]
	require.Len(t, group, 2)
	assert.Equal(t, uint64(1), group[0].ID)
	assert.Equal(t, uint64(2), group[1].ID)
	assert.Equal(t, "amenity", group[0].Tags[0].Key)
}

func TestReadGroupsRejectsMissingGeometry(t *testing.T) {
	_, _, err := readGroups(strings.NewReader(`{"id": 1, "tags": {"a": "b"}}`), 16)
	assert.ErrorContains(t, err, "no geometry")
}

func TestReadGroupsRejectsBadJSON(t *testing.T) {
	_, _, err := readGroups(strings.NewReader(`{`), 16)
	assert.ErrorContains(t, err, "line 1")
}

func TestCenter(t *testing.T) {
	got := center([]geo.GeoCoordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 2, Longitude: 4},
	})
	assert.Equal(t, geo.GeoCoordinate{Latitude: 1, Longitude: 2}, got)
}
