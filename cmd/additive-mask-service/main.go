package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/DMarby/additive-mask/internal/cache"
	"github.com/DMarby/additive-mask/internal/cache/memory"
	"github.com/DMarby/additive-mask/internal/cache/redis"
	"github.com/DMarby/additive-mask/internal/cmd"
	"github.com/DMarby/additive-mask/internal/converter"
	"github.com/DMarby/additive-mask/internal/health"
	"github.com/DMarby/additive-mask/internal/logger"
	"github.com/DMarby/additive-mask/internal/metrics"
	"github.com/DMarby/additive-mask/internal/storage"
	fileStorage "github.com/DMarby/additive-mask/internal/storage/file"
	"github.com/DMarby/additive-mask/internal/storage/spaces"
	"github.com/DMarby/additive-mask/internal/tracing"

	api "github.com/DMarby/additive-mask/internal/maskapi"

	"github.com/jamiealquiza/envy"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

const serviceName = "additive-mask-service"

// Comandline flags
var (
	// Global
	listen        = flag.String("listen", ":8080", "listen address")
	metricsListen = flag.String("metrics-listen", "127.0.0.1:8082", "metrics listen address")
	loglevel      = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")
	workers       = flag.Int("workers", runtime.NumCPU(), "amount of images to convert in parallel")
	maxUploadSize = flag.Int64("max-upload-size", 32<<20, "maximum size of uploaded images in bytes")
	corsOrigins   = flag.String("cors-origins", "*", "comma separated list of origins allowed to make cross-origin requests")

	// Storage
	storageBackend = flag.String("storage", "file", "which storage backend to use (file, spaces)")

	// Storage - File
	storageFilePath = flag.String("storage-file-path", ".", "directory paths are resolved against")

	// Storage - Spaces
	storageSpacesSpace          = flag.String("storage-spaces-space", "", "digitalocean space to use")
	storageSpacesEndpoint       = flag.String("storage-spaces-endpoint", "", "spaces endpoint, e.g. https://ams3.digitaloceanspaces.com")
	storageSpacesAccessKey      = flag.String("storage-spaces-access-key", "", "spaces access key")
	storageSpacesSecretKey      = flag.String("storage-spaces-secret-key", "", "spaces secret key")
	storageSpacesForcePathStyle = flag.Bool("storage-spaces-force-path-style", false, "use path style addressing, for s3 compatible servers")

	// Cache
	cacheBackend = flag.String("cache", "memory", "which cache backend to use (none, memory, redis)")

	// Cache - Memory
	cacheMemorySize = flag.Int64("cache-memory-size", 256<<20, "maximum size of the memory cache in bytes, 0 for unbounded")

	// Cache - Redis
	cacheRedisAddress  = flag.String("cache-redis-address", "redis://127.0.0.1:6379", "redis address, may contain authentication details")
	cacheRedisPoolSize = flag.Int("cache-redis-pool-size", 10, "redis connection pool size")
	cacheRedisTTL      = flag.Duration("cache-redis-ttl", 24*time.Hour, "how long converted images are kept in redis, 0 to keep them")

	// Healthcheck
	healthCheckPath = flag.String("health-check-path", ".", "path to look up in the storage to check storage health")

	// Tracing
	tracingEnabled = flag.Bool("tracing", false, "export traces over otlp, configured through the OTEL_EXPORTER_OTLP_* environment variables")
)

func main() {
	// Parse environment variables
	envy.Parse("MASK")

	// Parse commandline flags
	flag.Parse()

	// Initialize the logger
	log := logger.New(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	maxprocs.Set(maxprocs.Logger(log.Infof))

	// Set up context for shutting down
	shutdownCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	// Initialize tracing
	var tracer *tracing.Tracer
	if *tracingEnabled {
		var err error
		tracer, err = tracing.New(shutdownCtx, log, serviceName)
		if err != nil {
			log.Fatalf("error initializing tracing: %s", err)
		}
	} else {
		tracer = tracing.NewNoop(log, serviceName)
	}
	defer tracer.Shutdown(context.Background())

	// Initialize the storage, cache
	storage, cacheProvider, err := setupBackends(shutdownCtx, tracer)
	if err != nil {
		log.Fatalf("error initializing backends: %s", err)
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

	// Initialize the conversion queue
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	processor := converter.NewQueued(processorCtx, log, *workers, m, c)

	// Initialize and start the health checker
	checkerCtx, checkerCancel := context.WithCancel(context.Background())
	defer checkerCancel()

	checker := &health.Checker{
		Ctx:     checkerCtx,
		Storage: storage,
		Path:    *healthCheckPath,
		Cache:   cacheProvider,
		Log:     log,
	}
	go checker.Run()

	// Start the metrics http server
	go metrics.Serve(shutdownCtx, log, m, checker, *metricsListen)

	// Start and listen on http
	api := &api.API{
		Processor:      processor,
		HealthChecker:  checker,
		Log:            log,
		Tracer:         tracer,
		Metrics:        m,
		HandlerTimeout: cmd.HandlerTimeout,
		MaxUploadSize:  *maxUploadSize,
		CORSOrigins:    strings.Split(*corsOrigins, ","),
	}
	server := &http.Server{
		Addr:         *listen,
		Handler:      api.Router(),
		ReadTimeout:  cmd.ReadTimeout,
		WriteTimeout: cmd.WriteTimeout,
		ErrorLog:     logger.NewHTTPErrorLog(log),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Infof("shutting down the http server: %s", err)
			shutdown()
		}
	}()

	log.Infof("http server listening on %s", *listen)

	// Wait for shutdown or error
	err = cmd.WaitForInterrupt(shutdownCtx)
	log.Infof("shutting down: %s", err)

	// Shut down http server
	serverCtx, serverCancel := context.WithTimeout(context.Background(), cmd.WriteTimeout)
	defer serverCancel()
	if err := server.Shutdown(serverCtx); err != nil {
		log.Warnf("error shutting down: %s", err)
	}
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
