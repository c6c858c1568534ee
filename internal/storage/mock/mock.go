package mock

import (
	"context"
	"fmt"
	"io"
)

// Provider implements a mock image storage where every operation fails
type Provider struct {
}

// Exists returns an error
func (p *Provider) Exists(ctx context.Context, path string) (bool, error) {
	return false, fmt.Errorf("exists error")
}

// Open returns an error
func (p *Provider) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("open error")
}

// Put returns an error
func (p *Provider) Put(ctx context.Context, path string, data []byte) error {
	return fmt.Errorf("put error")
}
