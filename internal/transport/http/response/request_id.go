package response

import (
	"net/http"

	appCtx "github.com/artfolio/engagement-service/internal/pkg/context"
)

// RequestIDFromRequest resolves the id the RequestID middleware stored on
// the context, falling back to the inbound header when the middleware did
// not run (tests that hit a handler directly).
func RequestIDFromRequest(r *http.Request) string {
	if v := appCtx.GetRequestID(r.Context()); v != "" {
		return v
	}
	return r.Header.Get("X-Request-Id")
}
