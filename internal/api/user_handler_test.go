package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/notes-api/internal/api/shared"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/mocks"
	"github.com/phrazzld/notes-api/internal/service"
	"github.com/phrazzld/notes-api/internal/service/auth"
	"github.com/phrazzld/notes-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = shared.Identity{UserID: 42, Username: "alice", Address: "Main St 1"}

// newTestRouter mounts the user routes under /api/user. A non-nil identity
// is injected into every request, standing in for the auth middleware.
func newTestRouter(
	dir service.UserDirectory,
	val service.InputValidator,
	identity *shared.Identity,
) http.Handler {
	h := NewUserHandler(dir, val, nil)
	r := chi.NewRouter()
	r.Route("/api/user", func(r chi.Router) {
		if identity != nil {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(shared.ContextWithIdentity(req.Context(), *identity)))
				})
			})
		}
		h.RegisterRoutes(r)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func sampleUsers() []domain.User {
	return []domain.User{
		{ID: 1, FirstName: "Ada", LastName: "Lovelace", Username: "ada", Address: "London", HashedPassword: "secret-hash"},
		{ID: 2, FirstName: "Alan", LastName: "Turing", Username: "alan", Address: "Wilmslow", HashedPassword: "secret-hash"},
	}
}

func TestListUsers(t *testing.T) {
	t.Parallel()

	t.Run("returns public fields only", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{
			ListUsersFn: func(context.Context) ([]domain.User, error) { return sampleUsers(), nil },
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodGet, "/api/user", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		var got []UserResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "ada", got[0].Username)
		assert.Equal(t, int64(2), got[1].ID)
		assert.NotContains(t, rr.Body.String(), "secret-hash")
		assert.NotContains(t, rr.Body.String(), "notes")
	})

	t.Run("empty store returns empty array", func(t *testing.T) {
		t.Parallel()
		rr := doRequest(t, newTestRouter(&mocks.MockUserDirectory{}, &mocks.MockInputValidator{}, &testIdentity),
			http.MethodGet, "/api/user", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})

	t.Run("store failure is a server error", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{
			ListUsersFn: func(context.Context) ([]domain.User, error) {
				return nil, errors.New("dial tcp 10.0.0.1:5432: connection refused")
			},
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodGet, "/api/user", nil)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Failed to list users", decodeError(t, rr))
		assert.NotContains(t, rr.Body.String(), "10.0.0.1")
	})
}

func TestListUsersWithNotes(t *testing.T) {
	t.Parallel()

	users := sampleUsers()
	users[0].Notes = []domain.Note{{ID: 5, UserID: 1, Text: "buy milk", Color: "yellow", Tag: 2}}
	dir := &mocks.MockUserDirectory{
		ListUsersWithNotesFn: func(context.Context) ([]domain.User, error) { return users, nil },
	}
	rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodGet, "/api/user/all/notes", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []UserWithNotesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, []NoteResponse{{ID: 5, Text: "buy milk", Color: "yellow", Tag: 2}}, got[0].Notes)
	assert.NotNil(t, got[1].Notes)
	assert.Empty(t, got[1].Notes)
	assert.Contains(t, rr.Body.String(), `"notes":[]`)
	assert.True(t, dir.Called("ListUsersWithNotes"))
}

func TestGetUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		getFn      func(context.Context, int64) (*domain.User, error)
		wantStatus int
		wantError  string
	}{
		{
			name: "found",
			path: "/api/user/1",
			getFn: func(_ context.Context, id int64) (*domain.User, error) {
				u := sampleUsers()[0]
				u.ID = id
				return &u, nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/api/user/99",
			getFn: func(context.Context, int64) (*domain.User, error) {
				return nil, store.ErrUserNotFound
			},
			wantStatus: http.StatusNotFound,
			wantError:  "User not found",
		},
		{
			name:       "non numeric id",
			path:       "/api/user/abc",
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid ID",
		},
		{
			name:       "zero id",
			path:       "/api/user/0",
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid ID",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := &mocks.MockUserDirectory{GetUserFn: tc.getFn}
			rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodGet, tc.path, nil)

			require.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, decodeError(t, rr))
				return
			}
			var got UserResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, int64(1), got.ID)
			assert.Equal(t, "Ada", got.FirstName)
		})
	}
}

func TestGetUserWithNotes(t *testing.T) {
	t.Parallel()

	var gotID int64
	dir := &mocks.MockUserDirectory{
		GetUserWithNotesFn: func(_ context.Context, id int64) (*domain.User, error) {
			gotID = id
			u := sampleUsers()[1]
			u.Notes = []domain.Note{{ID: 1, UserID: 2, Text: "enigma", Color: "blue"}}
			return &u, nil
		},
	}
	rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodGet, "/api/user/2/notes", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(2), gotID)
	var got UserWithNotesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "alan", got.Username)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "enigma", got.Notes[0].Text)

	dir.GetUserWithNotesFn = func(context.Context, int64) (*domain.User, error) { return nil, store.ErrUserNotFound }
	rr = doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodGet, "/api/user/3/notes", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func validRegisterRequest() RegisterUserRequest {
	return RegisterUserRequest{
		FirstName:         "Grace",
		LastName:          "Hopper",
		Username:          "grace",
		Password:          "cobol1959",
		ConfirmedPassword: "cobol1959",
		Address:           "Arlington",
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("success returns 201 with empty body", func(t *testing.T) {
		t.Parallel()
		var got service.Registration
		dir := &mocks.MockUserDirectory{
			RegisterFn: func(_ context.Context, reg service.Registration) (*domain.User, error) {
				got = reg
				return &domain.User{ID: 1, Username: reg.Username}, nil
			},
		}
		val := &mocks.MockInputValidator{}
		rr := doRequest(t, newTestRouter(dir, val, nil), http.MethodPost, "/api/user", validRegisterRequest())

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Empty(t, rr.Body.String())
		assert.Equal(t, 1, val.CallCount)
		assert.Equal(t, "grace", got.Username)
		assert.Equal(t, "cobol1959", got.ConfirmedPassword)
	})

	t.Run("validation outcome is returned verbatim", func(t *testing.T) {
		t.Parallel()
		outcome := domain.NewValidationOutcome()
		outcome.Add("username", "Username already exists")
		outcome.Add("confirmedPassword", "Passwords do not match")

		dir := &mocks.MockUserDirectory{}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{Outcome: outcome}, nil),
			http.MethodPost, "/api/user", validRegisterRequest())

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var got domain.ValidationOutcome
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, outcome, got)
		assert.False(t, dir.Called("Register"))
	})

	t.Run("username race is reported as validation outcome", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{
			RegisterFn: func(context.Context, service.Registration) (*domain.User, error) {
				return nil, store.ErrUsernameExists
			},
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, nil),
			http.MethodPost, "/api/user", validRegisterRequest())

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var got domain.ValidationOutcome
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.True(t, got.HasError)
		assert.True(t, got.Has("username"))
	})

	t.Run("password over bcrypt limit is reported as validation outcome", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{
			RegisterFn: func(context.Context, service.Registration) (*domain.User, error) {
				return nil, fmt.Errorf("%w: %w", domain.ErrValidation, auth.ErrPasswordTooLong)
			},
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, nil),
			http.MethodPost, "/api/user", validRegisterRequest())

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var got domain.ValidationOutcome
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.True(t, got.Has("password"))
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		val := &mocks.MockInputValidator{}
		rr := doRequest(t, newTestRouter(&mocks.MockUserDirectory{}, val, nil), http.MethodPost, "/api/user", "{not json")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid request format", decodeError(t, rr))
		assert.Zero(t, val.CallCount)
	})

	t.Run("directory failure", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{
			RegisterFn: func(context.Context, service.Registration) (*domain.User, error) {
				return nil, errors.New("db down")
			},
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, nil),
			http.MethodPost, "/api/user", validRegisterRequest())

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Failed to register user", decodeError(t, rr))
	})
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	valid := UpdateUserRequest{ID: 3, FirstName: "Edsger", LastName: "Dijkstra", Username: "edsger", Address: "Nuenen"}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		var got service.UserUpdate
		dir := &mocks.MockUserDirectory{
			UpdateFn: func(_ context.Context, u service.UserUpdate) error {
				got = u
				return nil
			},
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodPost, "/api/user/update", valid)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, valid.ToUserUpdate(), got)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{
			UpdateFn: func(context.Context, service.UserUpdate) error { return store.ErrUserNotFound },
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodPost, "/api/user/update", valid)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "User not found", decodeError(t, rr))
	})

	t.Run("username taken", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{
			UpdateFn: func(context.Context, service.UserUpdate) error {
				return fmt.Errorf("update: %w", store.ErrUsernameExists)
			},
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodPost, "/api/user/update", valid)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "Username already exists", decodeError(t, rr))
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()
		bad := valid
		bad.Username = "no spaces allowed"
		dir := &mocks.MockUserDirectory{}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodPost, "/api/user/update", bad)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid username: letters and digits only", decodeError(t, rr))
		assert.False(t, dir.Called("Update"))
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()
		var gotID int64
		dir := &mocks.MockUserDirectory{
			DeleteFn: func(_ context.Context, id int64) error {
				gotID = id
				return nil
			},
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodDelete, "/api/user/8/delete", nil)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, int64(8), gotID)
	})

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodDelete, "/api/user/-1/delete", nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.False(t, dir.Called("Delete"))
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{
			DeleteFn: func(context.Context, int64) error { return errors.New("boom") },
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity), http.MethodDelete, "/api/user/8/delete", nil)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Failed to delete user", decodeError(t, rr))
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("success returns token", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{
			AuthenticateFn: func(_ context.Context, username, password string) (*auth.Token, error) {
				assert.Equal(t, "alice", username)
				assert.Equal(t, "wonderland", password)
				return &auth.Token{Value: "signed.jwt.value", ExpiresAt: expires}, nil
			},
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, nil), http.MethodPost, "/api/user/authenticate",
			LoginRequest{Username: "alice", Password: "wonderland"})

		require.Equal(t, http.StatusOK, rr.Code)
		var got TokenResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "signed.jwt.value", got.Token)
		assert.True(t, expires.Equal(got.ExpiresAt))
	})

	t.Run("bad credentials return literal text", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{
			AuthenticateFn: func(context.Context, string, string) (*auth.Token, error) {
				return nil, service.ErrInvalidCredentials
			},
		}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, nil), http.MethodPost, "/api/user/authenticate",
			LoginRequest{Username: "alice", Password: "nope"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid Username Or Password", rr.Body.String())
		assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()
		dir := &mocks.MockUserDirectory{}
		rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, nil), http.MethodPost, "/api/user/authenticate",
			LoginRequest{Username: "alice"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid password: required field", decodeError(t, rr))
		assert.False(t, dir.Called("Authenticate"))
	})
}

func TestWhoAmI(t *testing.T) {
	t.Parallel()

	rr := doRequest(t, newTestRouter(&mocks.MockUserDirectory{}, &mocks.MockInputValidator{}, &testIdentity),
		http.MethodGet, "/api/user/whoami", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42 - alice (Main St 1)", rr.Body.String())

	rr = doRequest(t, newTestRouter(&mocks.MockUserDirectory{}, &mocks.MockInputValidator{}, nil),
		http.MethodGet, "/api/user/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Authentication required", decodeError(t, rr))
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       interface{}
		changeFn   func(context.Context, int64, string, string) (bool, error)
		wantStatus int
		wantText   string
		wantError  string
		wantCalled bool
	}{
		{
			name: "changed",
			body: ChangePasswordRequest{Password: "old-secret", NewPassword: "new-secret"},
			changeFn: func(_ context.Context, id int64, current, next string) (bool, error) {
				if id != 42 || current != "old-secret" || next != "new-secret" {
					return false, errors.New("unexpected arguments")
				}
				return true, nil
			},
			wantStatus: http.StatusOK,
			wantText:   "Successfully changed password.",
			wantCalled: true,
		},
		{
			name:       "same password",
			body:       ChangePasswordRequest{Password: "same-secret", NewPassword: "same-secret"},
			wantStatus: http.StatusBadRequest,
			wantText:   "The old and the new password must be different.",
		},
		{
			name: "wrong current password",
			body: ChangePasswordRequest{Password: "guess", NewPassword: "new-secret"},
			changeFn: func(context.Context, int64, string, string) (bool, error) {
				return false, nil
			},
			wantStatus: http.StatusBadRequest,
			wantText:   "Incorrect password.",
			wantCalled: true,
		},
		{
			name:       "same password over bcrypt limit",
			body:       ChangePasswordRequest{Password: strings.Repeat("x", 80), NewPassword: strings.Repeat("x", 80)},
			wantStatus: http.StatusBadRequest,
			wantText:   "The old and the new password must be different.",
		},
		{
			// 40 runes, 80 bytes
			name:       "new password over bcrypt limit",
			body:       ChangePasswordRequest{Password: "old-secret", NewPassword: strings.Repeat("é", 40)},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid newPassword: too long",
		},
		{
			name: "hasher rejects length",
			body: ChangePasswordRequest{Password: "old-secret", NewPassword: "new-secret"},
			changeFn: func(context.Context, int64, string, string) (bool, error) {
				return false, fmt.Errorf("failed to change password: %w: %w", domain.ErrValidation, auth.ErrPasswordTooLong)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Failed to change password",
			wantCalled: true,
		},
		{
			name:       "missing new password",
			body:       ChangePasswordRequest{Password: "old-secret"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid newPassword: required field",
		},
		{
			name: "user vanished",
			body: ChangePasswordRequest{Password: "old-secret", NewPassword: "new-secret"},
			changeFn: func(context.Context, int64, string, string) (bool, error) {
				return false, store.ErrUserNotFound
			},
			wantStatus: http.StatusNotFound,
			wantError:  "Failed to change password",
			wantCalled: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := &mocks.MockUserDirectory{ChangePasswordFn: tc.changeFn}
			rr := doRequest(t, newTestRouter(dir, &mocks.MockInputValidator{}, &testIdentity),
				http.MethodPost, "/api/user/changePassword", tc.body)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCalled, dir.Called("ChangePassword"))
			if tc.wantText != "" {
				assert.Equal(t, tc.wantText, rr.Body.String())
			}
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, decodeError(t, rr))
			}
		})
	}
}
