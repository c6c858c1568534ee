package memory

import (
	"container/list"
	"context"
	"sync"

	"github.com/DMarby/additive-mask/internal/cache"
)

// Provider implements an in-memory cache, evicting the least recently used objects beyond a size limit
type Provider struct {
	maxBytes int64
	size     int64
	entries  map[string]*list.Element
	order    *list.List
	mutex    sync.Mutex
}

type entry struct {
	key  string
	data []byte
}

// New returns a new Provider instance holding at most maxBytes of data, 0 means unbounded
func New(maxBytes int64) *Provider {
	return &Provider{
		maxBytes: maxBytes,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	element, exists := p.entries[key]
	if !exists {
		return nil, cache.ErrNotFound
	}

	p.order.MoveToFront(element)
	return element.Value.(*entry).data, nil
}

// Set adds an object to the cache
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		return nil
	}

	if element, exists := p.entries[key]; exists {
		p.size -= int64(len(element.Value.(*entry).data))
		element.Value.(*entry).data = data
		p.size += int64(len(data))
		p.order.MoveToFront(element)
	} else {
		p.entries[key] = p.order.PushFront(&entry{key, data})
		p.size += int64(len(data))
	}

	for p.maxBytes > 0 && p.size > p.maxBytes {
		oldest := p.order.Back()
		e := oldest.Value.(*entry)
		p.order.Remove(oldest)
		delete(p.entries, e.key)
		p.size -= int64(len(e.data))
	}

	return nil
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}
