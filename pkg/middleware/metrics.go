package middleware

import (
	"net/http"
	"time"

	"github.com/Dias221467/achievements/internal/metrics"
	"github.com/gorilla/mux"
)

// MetricsMiddleware records request counts and latency labelled by the
// matched route template, so ids do not explode label cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := metrics.TrackInFlight()
		defer done()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		path := ""
		if route := mux.CurrentRoute(r); route != nil {
			path, _ = route.GetPathTemplate()
		}
		metrics.ObserveRequest(r.Method, path, rec.code(), time.Since(start))
	})
}
