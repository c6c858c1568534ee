package redis

import (
	"context"
	"time"

	"github.com/DMarby/additive-mask/internal/cache"
	"github.com/DMarby/additive-mask/internal/tracing"
	"github.com/mediocregopher/radix/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Provider implements a redis cache
type Provider struct {
	client radix.Client
	tracer *tracing.Tracer
	ttl    time.Duration
}

// New returns a new Provider instance, objects expire after ttl unless it's 0
func New(ctx context.Context, tracer *tracing.Tracer, address string, poolSize int, ttl time.Duration) (*Provider, error) {
	cfg := radix.PoolConfig{
		Size: poolSize,
	}

	client, err := cfg.New(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: client,
		tracer: tracer,
		ttl:    ttl,
	}, nil
}

// Get returns a converted image from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	ctx, span := p.tracer.Start(ctx, "redis.Get")
	span.SetAttributes(attribute.String("cache.key", key))
	defer span.End()

	mn := radix.Maybe{Rcv: &data}
	if err = p.client.Do(ctx, radix.Cmd(&mn, "GET", key)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis GET failed")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("cache.hit", !mn.Null))
	if mn.Null {
		return nil, cache.ErrNotFound
	}

	return
}

// Set stores a converted image, expiring it after the configured ttl
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	ctx, span := p.tracer.Start(ctx, "redis.Set")
	span.SetAttributes(
		attribute.String("cache.key", key),
		attribute.Int("cache.size", len(data)),
	)
	defer span.End()

	cmd := radix.FlatCmd(nil, "SET", key, data)
	if p.ttl > 0 {
		cmd = radix.FlatCmd(nil, "SET", key, data, "PX", p.ttl.Milliseconds())
	}

	if err = p.client.Do(ctx, cmd); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis SET failed")
	}

	return
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {
	p.client.Close()
}
