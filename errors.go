package utymap

import "errors"

var (
	// ErrNotImplemented is returned by operations the store deliberately
	// does not support, such as deletion by bounding box and LOD range.
	ErrNotImplemented = errors.New("not implemented")

	// ErrClosed is returned when the store is used after Close.
	ErrClosed = errors.New("store is closed")
)
