package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "16/1202102332221212.bmp", []byte("blob")))

	got, err := s.Get(ctx, "16/1202102332221212.bmp")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), got)

	// Put replaces in full.
	require.NoError(t, s.Put(ctx, "16/1202102332221212.bmp", []byte("v2")))
	got, err = s.Get(ctx, "16/1202102332221212.bmp")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestLocalStoreNotFound(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	ctx := context.Background()

	_, err := s.Get(ctx, "missing.bmp")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "missing.bmp"), ErrNotFound)
}

func TestLocalStoreDelete(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/b.bmp", []byte("x")))
	require.NoError(t, s.Delete(ctx, "a/b.bmp"))

	_, err := s.Get(ctx, "a/b.bmp")
	assert.ErrorIs(t, err, ErrNotFound)
}
