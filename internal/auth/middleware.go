package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/khandaa/adminbase/internal/access"
	"github.com/khandaa/adminbase/internal/platform/httpx"
	"github.com/khandaa/adminbase/internal/shared"
)

type claimsContextKey struct{}

// Middleware decodes the bearer token into a principal for each request.
// Requests without a token pass through anonymously; the access guard denies
// them where a rule applies. A present-but-invalid token is answered 401
// immediately so clients clear their session and re-login.
type Middleware struct {
	Tokens  *TokenManager
	Service *Service
	Logger  *slog.Logger
}

// Authenticate is the chi middleware entry point.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.Tokens.Parse(token)
		if err != nil {
			m.reject(w, r, err)
			return
		}
		if m.Service != nil && m.Service.CheckRevoked(r.Context(), claims.ID) {
			m.reject(w, r, shared.ErrTokenRevoked)
			return
		}
		principal, err := claims.Principal()
		if err != nil {
			m.reject(w, r, err)
			return
		}

		ctx := access.ContextWithPrincipal(r.Context(), principal)
		ctx = contextWithClaims(ctx, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	if m.Logger != nil {
		m.Logger.Warn("bearer token rejected",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	detail := "invalid token"
	switch {
	case errors.Is(err, shared.ErrTokenExpired):
		detail = "token expired"
	case errors.Is(err, shared.ErrTokenRevoked):
		detail = "token revoked"
	}
	httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", detail)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func contextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts the raw claims, used by logout.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}
