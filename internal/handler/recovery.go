package handler

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/DMarby/additive-mask/internal/logger"
)

// Recovery is a handler for handling panics
func Recovery(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				log.Errorw("panic handling request", LogFields(r,
					"uri", r.URL.String(),
					"panic", fmt.Sprint(err),
					"stacktrace", string(debug.Stack()),
				)...)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
