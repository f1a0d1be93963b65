package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/artfolio/engagement-service/internal/transport/http/response"
)

const HeaderInternalSecret = "X-Internal-Secret"

// InternalAuth guards the service-to-service surface with a shared
// secret header. An empty configured secret closes the surface entirely.
func InternalAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(HeaderInternalSecret)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				response.Fail(w, http.StatusForbidden, "forbidden", "forbidden",
					nil, response.RequestIDFromRequest(r))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
