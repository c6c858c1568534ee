package storage

import (
	"context"
	"errors"
	"io"
)

// Provider is an interface for reading source images and writing converted ones
type Provider interface {
	// Exists reports whether anything exists at path
	Exists(ctx context.Context, path string) (bool, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Put writes data to path, replacing anything already there
	Put(ctx context.Context, path string, data []byte) error
}

// Errors
var (
	ErrNotFound = errors.New("file does not exist")
)
