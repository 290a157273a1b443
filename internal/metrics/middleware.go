package metrics

import (
	"net/http"
	"time"
)

// statusRecorder keeps the first status code the wrapped handler sends.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wrote {
		s.status = code
		s.wrote = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wrote = true
	return s.ResponseWriter.Write(b)
}

// Instrument wraps next so every request is recorded under the route it is
// mounted on. The request path never becomes a label value.
func Instrument(reg *Registry, route string, next http.Handler) http.Handler {
	if route == "" {
		route = DefaultRoute
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.InFlightInc()
		defer reg.InFlightDec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		reg.RecordRequest(r.Method, route, rec.status, time.Since(start).Seconds())
	})
}
