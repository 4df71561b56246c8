package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts and logs every request. Routes are reduced to their
// first two path segments after /api/v1 to keep label cardinality low.
func Middleware(next http.Handler, metrics *Metrics, logger *zap.Logger) http.Handler {
	logger = OrNop(logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := Route(r.URL.Path)
		if metrics != nil {
			metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Inc()
		}
		logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.code),
			zap.Duration("duration", time.Since(start)))
	})
}

// Route maps a request path to its metric label.
func Route(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/v1/")
	if !ok {
		return path
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) > 1 && parts[1] != "" {
		return "/api/v1/" + parts[0] + "/{id}"
	}
	return "/api/v1/" + parts[0]
}
