package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/netzstatus/netzstatus/internal/api/models"
	"github.com/netzstatus/netzstatus/internal/auth"
)

// adminSubjectKey is the context key for the authenticated admin subject.
type adminSubjectKey struct{}

// AdminAuth creates middleware that validates admin JWT bearer tokens.
func AdminAuth(verifier *auth.AdminVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, r, "missing authorization header")
				return
			}

			// Bearer prefix is matched case-insensitively.
			const bearerPrefix = "Bearer "
			if len(authHeader) < len(bearerPrefix) ||
				!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
				writeUnauthorized(w, r, "invalid authorization header format")
				return
			}

			tokenString := authHeader[len(bearerPrefix):]
			if tokenString == "" {
				writeUnauthorized(w, r, "missing bearer token")
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					writeUnauthorized(w, r, "admin token has expired")
				case errors.Is(err, auth.ErrNotAdmin):
					writeUnauthorized(w, r, "token is not an admin token")
				default:
					writeUnauthorized(w, r, "invalid admin token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), adminSubjectKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized writes a 401 response. Implemented here directly to
// avoid an import cycle with the response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetAdminSubject retrieves the authenticated admin subject from the
// context. Returns an empty string outside admin routes.
func GetAdminSubject(ctx context.Context) string {
	if sub, ok := ctx.Value(adminSubjectKey{}).(string); ok {
		return sub
	}
	return ""
}
