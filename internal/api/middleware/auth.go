package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/notes-api/internal/api/shared"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/service/auth"
)

// Route identifies an endpoint by method and path.
type Route struct {
	Method string
	Path   string
}

// AuthMiddleware authenticates bearer tokens and guards routes that are
// not on the anonymous allow-list.
type AuthMiddleware struct {
	jwtService auth.JWTService
	anonymous  map[Route]struct{}
	logger     *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. anonymous lists the
// routes that may be called without a token; paths are matched exactly,
// ignoring a trailing slash.
func NewAuthMiddleware(jwtService auth.JWTService, log *slog.Logger, anonymous ...Route) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	allowed := make(map[Route]struct{}, len(anonymous))
	for _, rt := range anonymous {
		allowed[Route{Method: rt.Method, Path: normalizePath(rt.Path)}] = struct{}{}
	}
	return &AuthMiddleware{
		jwtService: jwtService,
		anonymous:  allowed,
		logger:     log.With("component", "auth_middleware"),
	}
}

func normalizePath(p string) string {
	if len(p) > 1 {
		return strings.TrimSuffix(p, "/")
	}
	return p
}

// IsAnonymous reports whether r targets an allow-listed route.
func (m *AuthMiddleware) IsAnonymous(r *http.Request) bool {
	_, ok := m.anonymous[Route{Method: r.Method, Path: normalizePath(r.URL.Path)}]
	return ok
}

// Authenticate validates a bearer token when one is present and stores the
// caller's Identity in the request context. Requests without an
// Authorization header pass through unauthenticated; Guard decides whether
// that is acceptable. Bad tokens are rejected unless the route is anonymous.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		log := logger.FromContextOrDefault(r.Context(), m.logger)

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			if m.IsAnonymous(r) {
				next.ServeHTTP(w, r)
				return
			}
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			if m.IsAnonymous(r) {
				log.Debug("ignoring invalid token on anonymous route", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrWrongTokenType),
				errors.Is(err, auth.ErrMissingClaims):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			}
			return
		}

		id := shared.Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
			Address:  claims.Address,
		}
		ctx := shared.ContextWithIdentity(r.Context(), id)
		ctx = logger.WithLogger(ctx, log.With("user_id", id.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Guard rejects requests without an authenticated caller, except on the
// anonymous allow-list. It must run after Authenticate.
func (m *AuthMiddleware) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.IdentityFromContext(r.Context()); ok || m.IsAnonymous(r) {
			next.ServeHTTP(w, r)
			return
		}
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
	})
}
