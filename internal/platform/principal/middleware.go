package principal

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/MannLester/GovTrackerPH-sub000/internal/platform/errors"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/httpx"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/requestctx"
)

// Middleware attaches the bearer principal to the request context. Requests
// without an Authorization header pass through anonymously; a header that
// does not carry a valid token is rejected with 401.
func Middleware(cfg Config) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				httpx.WriteError(w, apperrors.New(apperrors.CodeUnauthenticated, "authorization header must use the Bearer scheme"))
				return
			}
			p, err := Verify(token, cfg)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithPrincipal(r.Context(), p)))
		})
	}
}

// Require returns the request principal or an UNAUTHENTICATED error.
func Require(ctx context.Context) (requestctx.Principal, error) {
	p, ok := requestctx.PrincipalFromContext(ctx)
	if !ok {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeUnauthenticated, "authentication is required")
	}
	return p, nil
}
