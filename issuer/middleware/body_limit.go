package middleware

import (
	"net/http"

	"github.com/coinagedev/coinage/issuer/knobs"
)

// BodyLimitMiddleware bounds request body sizes. The limit is a knob so it
// can be tightened without a restart.
func BodyLimitMiddleware(knobsService knobs.Knobs) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if knobsService != nil && req.Body != nil {
				req.Body = http.MaxBytesReader(w, req.Body, knobs.GetMaxBodyBytes(knobsService))
			}
			next.ServeHTTP(w, req)
		})
	}
}
