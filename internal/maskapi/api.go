package maskapi

import (
	"net/http"
	"time"

	"github.com/DMarby/additive-mask/internal/converter"
	"github.com/DMarby/additive-mask/internal/handler"
	"github.com/DMarby/additive-mask/internal/health"
	"github.com/DMarby/additive-mask/internal/logger"
	"github.com/DMarby/additive-mask/internal/metrics"
	"github.com/DMarby/additive-mask/internal/tracing"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// API is a http api
type API struct {
	Processor      converter.Processor
	HealthChecker  *health.Checker
	Log            *logger.Logger
	Tracer         *tracing.Tracer
	Metrics        *metrics.Metrics
	HandlerTimeout time.Duration
	MaxUploadSize  int64
	CORSOrigins    []string
}

// Utility methods for logging
func (a *API) logError(r *http.Request, message string, err error) {
	a.Log.Errorw(message, handler.LogFields(r, "error", err)...)
}

// Router returns a http router
func (a *API) Router() http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = handler.Handler(a.notFoundHandler)

	// Healthcheck
	router.Handle("/health", handler.Health(a.HealthChecker)).Methods("GET").Name("health")

	// Convert an uploaded image, the file name decides the output format
	router.Handle("/v1/masks/{filename}", handler.Handler(a.maskHandler)).Methods("POST").Name("masks")

	// Convert an image in the storage, writing the result next to it
	router.Handle("/v1/paths/{path:.+}", handler.Handler(a.pathHandler)).Methods("POST").Name("paths")

	routeMatcher := &handler.MuxRouteMatcher{Router: router}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: a.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		ExposedHeaders: []string{"Content-Disposition"},
	})

	// Set up handlers for handling panics, request logging, setting CORS headers, and handler execution timeout
	var h http.Handler = http.TimeoutHandler(router, a.HandlerTimeout, "Something went wrong. Timed out.")
	h = handler.Recovery(a.Log, handler.Logger(a.Log, corsHandler.Handler(h)))

	if a.Metrics != nil {
		h = handler.Metrics(h, routeMatcher, a.Metrics.HTTPRequestsInFlight, a.Metrics.HTTPRequestDuration)
	}

	return handler.Tracer(a.Tracer, h, routeMatcher)
}

// Handle not found errors
var notFoundError = &handler.Error{
	Message: "page not found",
	Code:    http.StatusNotFound,
}

func (a *API) notFoundHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return notFoundError
}
