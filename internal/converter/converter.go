package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/DMarby/additive-mask/internal/cache"
	"github.com/DMarby/additive-mask/internal/codec"
	"github.com/DMarby/additive-mask/internal/logger"
	"github.com/DMarby/additive-mask/internal/mask"
	"github.com/DMarby/additive-mask/internal/metrics"
	"github.com/DMarby/additive-mask/internal/storage"
	"github.com/DMarby/additive-mask/internal/tracing"
	"github.com/twmb/murmur3"
	"go.opentelemetry.io/otel/attribute"
)

// Processor converts images
type Processor interface {
	// Transform converts encoded image data, name decides the output format
	Transform(ctx context.Context, name string, data []byte) ([]byte, error)
	// Convert converts the image at path and writes the result next to it
	Convert(ctx context.Context, path string) (*Result, error)
}

// Converter applies the additive mask to images in a storage
type Converter struct {
	Storage storage.Provider
	Cache   *cache.Auto // Optional
	Tracer  *tracing.Tracer
	Metrics *metrics.Metrics // Optional
	Log     *logger.Logger
}

// Result is the outcome of converting a path
type Result struct {
	Input   string `json:"input"`
	Output  string `json:"output,omitempty"`
	Skipped bool   `json:"skipped"`
}

// Convert converts the image at path and writes it to OutputPath(path), overwriting anything there.
// Paths that don't exist are skipped without an error.
func (c *Converter) Convert(ctx context.Context, path string) (result *Result, err error) {
	ctx, span := c.Tracer.Start(ctx, "converter.Convert")
	span.SetAttributes(attribute.String("path", path))
	defer span.End()

	start := time.Now()
	defer func() {
		switch {
		case err != nil:
			span.RecordError(err)
			c.Metrics.ObserveConversion(metrics.Failed, time.Since(start))
		case result.Skipped:
			c.Metrics.ObserveConversion(metrics.Skipped, 0)
		default:
			c.Metrics.ObserveConversion(metrics.Converted, time.Since(start))
		}
	}()

	exists, err := c.Storage.Exists(ctx, path)
	if err != nil {
		return nil, &Error{Path: path, Kind: ErrDecode, Err: err}
	}

	if !exists {
		c.Log.Debugw("skipping nonexistent path", "path", path)
		return &Result{Input: path, Skipped: true}, nil
	}

	data, err := c.read(ctx, path)
	if err != nil {
		// Removed since the existence check
		if errors.Is(err, storage.ErrNotFound) {
			c.Log.Debugw("skipping nonexistent path", "path", path)
			return &Result{Input: path, Skipped: true}, nil
		}

		return nil, &Error{Path: path, Kind: ErrDecode, Err: err}
	}

	encoded, err := c.transform(ctx, path, data)
	if err != nil {
		return nil, err
	}

	output := OutputPath(path)
	if err := c.Storage.Put(ctx, output, encoded); err != nil {
		return nil, &Error{Path: output, Kind: ErrWrite, Err: err}
	}

	c.Log.Infow("converted image",
		"input", path,
		"output", output,
		"elapsed", fmt.Sprintf("%.9fs", time.Since(start).Seconds()),
	)

	return &Result{Input: path, Output: output}, nil
}

// read loads the whole file, releasing it before returning
func (c *Converter) read(ctx context.Context, path string) ([]byte, error) {
	ctx, span := c.Tracer.Start(ctx, "converter.read")
	defer span.End()

	reader, err := c.Storage.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

// Transform converts encoded image data, the extension of name decides the output format
func (c *Converter) Transform(ctx context.Context, name string, data []byte) ([]byte, error) {
	start := time.Now()

	encoded, err := c.transform(ctx, name, data)
	if err != nil {
		c.Metrics.ObserveConversion(metrics.Failed, time.Since(start))
		return nil, err
	}

	c.Metrics.ObserveConversion(metrics.Converted, time.Since(start))
	return encoded, nil
}

func (c *Converter) transform(ctx context.Context, name string, data []byte) ([]byte, error) {
	if c.Cache == nil {
		return c.encode(ctx, name, data)
	}

	encoded, err := c.Cache.Get(ctx, cacheKey(name, data), func(ctx context.Context, key string) ([]byte, error) {
		return c.encode(ctx, name, data)
	})
	if err == nil {
		return encoded, nil
	}

	// Concurrent loads of identical data share one result, report the failure for this name
	var convertErr *Error
	if errors.As(err, &convertErr) {
		return nil, &Error{Path: name, Kind: convertErr.Kind, Err: convertErr.Err}
	}

	c.Log.Warnw("cache error, converting without it", "path", name, "error", err)
	return c.encode(ctx, name, data)
}

func (c *Converter) encode(ctx context.Context, name string, data []byte) ([]byte, error) {
	_, span := c.Tracer.Start(ctx, "converter.decode")
	img, format, err := codec.Decode(bytes.NewReader(data), name)
	span.End()
	if err != nil {
		return nil, &Error{Path: name, Kind: ErrDecode, Err: err}
	}

	_, span = c.Tracer.Start(ctx, "mask.Apply")
	bounds := img.Bounds()
	span.SetAttributes(
		attribute.String("format", format.Name),
		attribute.Int("width", bounds.Dx()),
		attribute.Int("height", bounds.Dy()),
	)
	masked := mask.Apply(img)
	span.End()

	_, span = c.Tracer.Start(ctx, "converter.encode")
	defer span.End()

	var buf bytes.Buffer
	if _, err := codec.Encode(&buf, masked, name); err != nil {
		return nil, &Error{Path: name, Kind: ErrEncode, Err: err}
	}

	return buf.Bytes(), nil
}

// cacheKey identifies a conversion by the source content and the output format
func cacheKey(name string, data []byte) string {
	h1, h2 := murmur3.Sum128(data)
	return fmt.Sprintf("mask:%s:%016x%016x", strings.ToLower(filepath.Ext(name)), h1, h2)
}
