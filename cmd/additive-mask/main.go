// Command additive-mask writes a copy of each image given to it with the image's luminance as its alpha channel.
//
// Usage:
//
//	additive-mask [flags] texture.png sky.tga ...
//
// Each existing input is written next to itself as <stem>_trans.<ext>, paths that don't exist are skipped.
// Flags can also be set through the environment, e.g. MASK_WORKERS=4.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/DMarby/additive-mask/internal/cache"
	"github.com/DMarby/additive-mask/internal/cache/memory"
	"github.com/DMarby/additive-mask/internal/cache/redis"
	"github.com/DMarby/additive-mask/internal/cmd"
	"github.com/DMarby/additive-mask/internal/converter"
	"github.com/DMarby/additive-mask/internal/logger"
	"github.com/DMarby/additive-mask/internal/metrics"
	"github.com/DMarby/additive-mask/internal/storage"
	fileStorage "github.com/DMarby/additive-mask/internal/storage/file"
	"github.com/DMarby/additive-mask/internal/storage/spaces"
	"github.com/DMarby/additive-mask/internal/tracing"

	"github.com/jamiealquiza/envy"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

const serviceName = "additive-mask"

// Comandline flags
var (
	// Global
	loglevel  = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")
	workers   = flag.Int("workers", 1, "amount of images to convert in parallel")
	keepGoing = flag.Bool("keep-going", false, "continue with the remaining paths when an image fails to convert")

	// Storage
	storageBackend = flag.String("storage", "file", "which storage backend to use (file, spaces)")

	// Storage - File
	storageFilePath = flag.String("storage-file-path", ".", "directory relative paths are resolved against")

	// Storage - Spaces
	storageSpacesSpace          = flag.String("storage-spaces-space", "", "digitalocean space to use")
	storageSpacesEndpoint       = flag.String("storage-spaces-endpoint", "", "spaces endpoint, e.g. https://ams3.digitaloceanspaces.com")
	storageSpacesAccessKey      = flag.String("storage-spaces-access-key", "", "spaces access key")
	storageSpacesSecretKey      = flag.String("storage-spaces-secret-key", "", "spaces secret key")
	storageSpacesForcePathStyle = flag.Bool("storage-spaces-force-path-style", false, "use path style addressing, for s3 compatible servers")

	// Cache
	cacheBackend = flag.String("cache", "none", "which cache backend to use (none, memory, redis)")

	// Cache - Memory
	cacheMemorySize = flag.Int64("cache-memory-size", 256<<20, "maximum size of the memory cache in bytes, 0 for unbounded")

	// Cache - Redis
	cacheRedisAddress  = flag.String("cache-redis-address", "redis://127.0.0.1:6379", "redis address, may contain authentication details")
	cacheRedisPoolSize = flag.Int("cache-redis-pool-size", 10, "redis connection pool size")
	cacheRedisTTL      = flag.Duration("cache-redis-ttl", 24*time.Hour, "how long converted images are kept in redis, 0 to keep them")

	// Observability
	tracingEnabled     = flag.Bool("tracing", false, "export traces over otlp, configured through the OTEL_EXPORTER_OTLP_* environment variables")
	metricsPushgateway = flag.String("metrics-pushgateway", "", "prometheus pushgateway to push the run's metrics to")
)

func main() {
	// Parse environment variables
	envy.Parse("MASK")

	// Parse commandline flags
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] image...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	os.Exit(run(flag.Args()))
}

// run converts paths and returns the exit code
func run(paths []string) int {
	// Initialize the logger
	log := logger.NewConsole(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	maxprocs.Set(maxprocs.Logger(log.Debugf))

	if *workers < 1 {
		log.Errorf("invalid amount of workers: %d", *workers)
		return cmd.ExitUsage
	}

	// Stop at the next path on interrupt
	ctx, stop := cmd.InterruptContext(context.Background())
	defer stop()

	// Initialize tracing
	tracer, err := setupTracer(ctx, log)
	if err != nil {
		log.Errorf("error initializing tracing: %s", err)
		return cmd.ExitUsage
	}
	defer tracer.Shutdown(context.Background())

	// Initialize the storage, cache
	storage, cacheProvider, err := setupBackends(ctx, tracer)
	if err != nil {
		log.Errorf("error initializing backends: %s", err)
		return cmd.ExitUsage
	}

	m := metrics.New()
	c := &converter.Converter{
		Storage: storage,
		Tracer:  tracer,
		Metrics: m,
		Log:     log,
	}

	if cacheProvider != nil {
		defer cacheProvider.Shutdown()
		c.Cache = &cache.Auto{
			Tracer:   tracer,
			Provider: cacheProvider,
		}
	}

	summary, err := c.Run(ctx, paths, converter.Options{
		Workers:   *workers,
		KeepGoing: *keepGoing,
	})

	if *metricsPushgateway != "" {
		pushCtx, pushCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pushCancel()

		if err := m.Push(pushCtx, *metricsPushgateway, serviceName); err != nil {
			log.Warnf("error pushing metrics: %s", err)
		}
	}

	if err != nil {
		log.Errorf("conversion failed: %s", err)
		return cmd.ExitFailure
	}

	log.Debugw("finished",
		"converted", summary.Converted,
		"skipped", summary.Skipped,
	)

	return cmd.ExitSuccess
}

func setupTracer(ctx context.Context, log *logger.Logger) (*tracing.Tracer, error) {
	if !*tracingEnabled {
		return tracing.NewNoop(log, serviceName), nil
	}

	return tracing.New(ctx, log, serviceName)
}

func setupBackends(ctx context.Context, tracer *tracing.Tracer) (storage storage.Provider, cache cache.Provider, err error) {
	// Storage
	switch *storageBackend {
	case "file":
		storage, err = fileStorage.New(*storageFilePath)
	case "spaces":
		storage, err = spaces.New(*storageSpacesSpace, *storageSpacesEndpoint, *storageSpacesAccessKey, *storageSpacesSecretKey, *storageSpacesForcePathStyle)
	default:
		err = fmt.Errorf("invalid storage backend")
	}

	if err != nil {
		return
	}

	// Cache
	switch *cacheBackend {
	case "none":
	case "memory":
		cache = memory.New(*cacheMemorySize)
	case "redis":
		cache, err = redis.New(ctx, tracer, *cacheRedisAddress, *cacheRedisPoolSize, *cacheRedisTTL)
	default:
		err = fmt.Errorf("invalid cache backend")
	}

	return
}
