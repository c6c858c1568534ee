package mock

import (
	"context"
	"fmt"

	"github.com/DMarby/additive-mask/internal/cache"
)

// Provider is a mock cache, its behaviour depends on the key
type Provider struct{}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	switch key {
	case "notfound", "notfounderr", "seterror":
		return nil, cache.ErrNotFound
	case "error":
		return nil, fmt.Errorf("error")
	case "healthcheck":
		// A healthy cache never has this key
		return []byte("healthcheck"), nil
	}

	return []byte(key), nil
}

// Set adds an object to the cache
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	if key == "seterror" {
		return fmt.Errorf("seterror")
	}

	return nil
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}
