package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/notes-api/internal/api/shared"
	"github.com/phrazzld/notes-api/internal/mocks"
	"github.com/phrazzld/notes-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anonymousRoutes = []Route{
	{Method: http.MethodPost, Path: "/api/user"},
	{Method: http.MethodPost, Path: "/api/user/authenticate"},
}

// identityRecorder captures the identity seen by the downstream handler.
type identityRecorder struct {
	called   bool
	identity shared.Identity
	found    bool
}

func (ir *identityRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ir.called = true
	ir.identity, ir.found = shared.IdentityFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func validClaims() *auth.Claims {
	return &auth.Claims{UserID: 7, Username: "alice", Address: "Main St 1", TokenType: "access"}
}

func newTestAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return NewAuthMiddleware(jwtService, nil, anonymousRoutes...)
}

func serve(h http.Handler, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("valid token sets identity", func(t *testing.T) {
		t.Parallel()
		var gotToken string
		jwtSvc := &mocks.MockJWTService{
			ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
				gotToken = token
				return validClaims(), nil
			},
		}
		next := &identityRecorder{}
		rr := serve(newTestAuthMiddleware(jwtSvc).Authenticate(next), http.MethodGet, "/api/user/whoami", "Bearer abc.def.ghi")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "abc.def.ghi", gotToken)
		require.True(t, next.found)
		assert.Equal(t, shared.Identity{UserID: 7, Username: "alice", Address: "Main St 1"}, next.identity)
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		t.Parallel()
		jwtSvc := &mocks.MockJWTService{Claims: validClaims()}
		next := &identityRecorder{}
		rr := serve(newTestAuthMiddleware(jwtSvc).Authenticate(next), http.MethodGet, "/api/user/whoami", "bearer tok")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, next.found)
	})

	t.Run("missing header passes through without identity", func(t *testing.T) {
		t.Parallel()
		jwtSvc := &mocks.MockJWTService{ValidateErr: errors.New("must not be called")}
		next := &identityRecorder{}
		rr := serve(newTestAuthMiddleware(jwtSvc).Authenticate(next), http.MethodGet, "/api/user", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, next.called)
		assert.False(t, next.found)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		t.Parallel()
		next := &identityRecorder{}
		rr := serve(newTestAuthMiddleware(&mocks.MockJWTService{}).Authenticate(next), http.MethodGet, "/api/user", "Token abc")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid authorization format", errorMessage(t, rr))
		assert.False(t, next.called)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		t.Parallel()
		jwtSvc := &mocks.MockJWTService{ValidateErr: auth.ErrExpiredToken}
		next := &identityRecorder{}
		rr := serve(newTestAuthMiddleware(jwtSvc).Authenticate(next), http.MethodGet, "/api/user", "Bearer old")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Token expired", errorMessage(t, rr))
		assert.False(t, next.called)
	})

	t.Run("invalid token variants are rejected", func(t *testing.T) {
		t.Parallel()
		for _, err := range []error{
			auth.ErrInvalidToken,
			auth.ErrTokenNotYetValid,
			auth.ErrWrongTokenType,
			auth.ErrMissingClaims,
		} {
			jwtSvc := &mocks.MockJWTService{ValidateErr: err}
			next := &identityRecorder{}
			rr := serve(newTestAuthMiddleware(jwtSvc).Authenticate(next), http.MethodGet, "/api/user", "Bearer bad")

			assert.Equal(t, http.StatusUnauthorized, rr.Code, err.Error())
			assert.Equal(t, "Invalid token", errorMessage(t, rr))
			assert.False(t, next.called)
		}
	})

	t.Run("unexpected validation error is a server error", func(t *testing.T) {
		t.Parallel()
		jwtSvc := &mocks.MockJWTService{ValidateErr: errors.New("boom")}
		rr := serve(newTestAuthMiddleware(jwtSvc).Authenticate(&identityRecorder{}), http.MethodGet, "/api/user", "Bearer x")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Authentication error", errorMessage(t, rr))
	})

	t.Run("invalid token on anonymous route continues anonymously", func(t *testing.T) {
		t.Parallel()
		jwtSvc := &mocks.MockJWTService{ValidateErr: auth.ErrExpiredToken}
		next := &identityRecorder{}
		rr := serve(newTestAuthMiddleware(jwtSvc).Authenticate(next), http.MethodPost, "/api/user/authenticate", "Bearer stale")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, next.called)
		assert.False(t, next.found)
	})
}

func TestGuard(t *testing.T) {
	t.Parallel()

	m := newTestAuthMiddleware(&mocks.MockJWTService{})

	tests := []struct {
		name     string
		method   string
		path     string
		identity bool
		want     int
	}{
		{"register is anonymous", http.MethodPost, "/api/user", false, http.StatusOK},
		{"register with trailing slash", http.MethodPost, "/api/user/", false, http.StatusOK},
		{"authenticate is anonymous", http.MethodPost, "/api/user/authenticate", false, http.StatusOK},
		{"listing requires identity", http.MethodGet, "/api/user", false, http.StatusUnauthorized},
		{"method matters", http.MethodGet, "/api/user/authenticate", false, http.StatusUnauthorized},
		{"whoami requires identity", http.MethodGet, "/api/user/whoami", false, http.StatusUnauthorized},
		{"identity grants access", http.MethodGet, "/api/user/whoami", true, http.StatusOK},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.identity {
				req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: 1, Username: "bob"}))
			}
			rr := httptest.NewRecorder()
			m.Guard(&identityRecorder{}).ServeHTTP(rr, req)

			assert.Equal(t, tc.want, rr.Code)
			if tc.want == http.StatusUnauthorized {
				assert.Equal(t, "Authentication required", errorMessage(t, rr))
			}
		})
	}
}

func TestAuthenticateThenGuard(t *testing.T) {
	t.Parallel()

	jwtSvc := &mocks.MockJWTService{Claims: validClaims()}
	m := newTestAuthMiddleware(jwtSvc)
	next := &identityRecorder{}
	h := m.Authenticate(m.Guard(next))

	rr := serve(h, http.MethodGet, "/api/user/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, next.called)

	rr = serve(h, http.MethodGet, "/api/user/whoami", "Bearer good")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(7), next.identity.UserID)
}
