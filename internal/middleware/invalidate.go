package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"homepros/internal/cache"
)

// InvalidateOnWrite clears the response cache after every successful
// state-changing request.
func InvalidateOnWrite(rc *cache.ResponseCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Status 0 means the handler wrote nothing, which net/http sends as 200.
			if ww.Status() < http.StatusBadRequest {
				rc.InvalidateAll(context.WithoutCancel(r.Context()))
			}
		})
	}
}
