package test

import (
	"github.com/DMarby/additive-mask/internal/logger"
	"github.com/DMarby/additive-mask/internal/tracing"
)

// Tracer returns a no-op tracer for tests
func Tracer(log *logger.Logger) *tracing.Tracer {
	return tracing.NewNoop(log, "test")
}
