// Package requesttime pins one "now" per request. Application creation dates,
// decision timestamps and membership valid_from dates within a request all
// derive from the same instant.
package requesttime

import (
	"net/http"
	"time"

	"healthfund/pkg/requestcontext"
)

// Middleware captures the current UTC time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
