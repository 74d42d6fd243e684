package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hongminglow/express-accounts/internal/auth"
	"github.com/hongminglow/express-accounts/internal/http/respond"
	"github.com/hongminglow/express-accounts/internal/result"
)

// TokenValidator validates authentication tokens.
type TokenValidator interface {
	ValidateAuthenticationToken(token string) result.Result[auth.AuthenticationClaims]
}

type claimsKey struct{}

// Bearer requires a valid "Authorization: Bearer <token>" header. With
// requireHTTPS set, plain-HTTP requests are rejected as well.
func Bearer(tokens TokenValidator, requireHTTPS bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requireHTTPS && !isHTTPS(r) {
				respond.Failure(w, auth.UnauthorizedError())
				return
			}

			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				respond.Failure(w, auth.UnauthorizedError())
				return
			}

			res := tokens.ValidateAuthenticationToken(strings.TrimSpace(token))
			if !res.IsSuccess() {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				respond.Failure(w, res.Err())
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, res.Value())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom returns the authentication claims stored by Bearer.
func ClaimsFrom(ctx context.Context) (auth.AuthenticationClaims, bool) {
	c, ok := ctx.Value(claimsKey{}).(auth.AuthenticationClaims)
	return c, ok
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
