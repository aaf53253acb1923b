package middleware

import (
	"net/http"

	"github.com/hananlabs/wishpos-backend/pkg/logger"
)

const (
	ownerIDHeader    = "X-Owner-Id"
	terminalIDHeader = "X-Terminal-Id"
)

// Gateway lifts the identity headers stamped by the upstream store gateway into
// the request context. The gateway terminates authentication; these headers are
// trusted as-is and this service never sees credentials.
func Gateway(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if ownerID := r.Header.Get(ownerIDHeader); ownerID != "" {
				ctx = WithOwnerID(ctx, ownerID)
				if logg != nil {
					ctx = logg.WithOwnerID(ctx, ownerID)
				}
			}
			if terminalID := r.Header.Get(terminalIDHeader); terminalID != "" {
				ctx = WithTerminalID(ctx, terminalID)
				if logg != nil {
					ctx = logg.WithTerminalID(ctx, terminalID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
