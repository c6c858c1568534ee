package file

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/DMarby/additive-mask/internal/storage"
)

// Provider implements a file-based image storage
type Provider struct {
	root string
}

// New returns a new Provider instance, relative paths are resolved against root
func New(root string) (*Provider, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	return &Provider{
		root,
	}, nil
}

func (p *Provider) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(p.root, path)
}

// Exists reports whether a file or directory exists at path
func (p *Provider) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(p.resolve(path))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// Open opens the file at path for reading
func (p *Provider) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(p.resolve(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}

	return file, nil
}

// Put writes data to the file at path, truncating it if it exists
func (p *Provider) Put(ctx context.Context, path string, data []byte) error {
	return os.WriteFile(p.resolve(path), data, 0644)
}
