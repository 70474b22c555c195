package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/notes-api/internal/api/shared"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/service"
	"github.com/phrazzld/notes-api/internal/service/auth"
	"github.com/phrazzld/notes-api/internal/store"
)

// UserHandler handles the /api/user endpoints.
type UserHandler struct {
	directory  service.UserDirectory
	validation service.InputValidator
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(
	directory service.UserDirectory,
	validation service.InputValidator,
	log *slog.Logger,
) *UserHandler {
	if log == nil {
		log = slog.Default()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	if err := auth.RegisterPasswordValidation(v); err != nil {
		// ALLOW-PANIC: the tag is registered once with a fixed name
		panic(fmt.Sprintf("failed to register password validation: %v", err))
	}

	return &UserHandler{
		directory:  directory,
		validation: validation,
		validator:  v,
		logger:     log.With("component", "user_handler"),
	}
}

// ListUsers handles GET /api/user.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.ListUsers(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, usersToResponse(users))
}

// ListUsersWithNotes handles GET /api/user/all/notes.
func (h *UserHandler) ListUsersWithNotes(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.ListUsersWithNotes(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, usersWithNotesToResponse(users))
}

// GetUser handles GET /api/user/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.directory.GetUser(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// GetUserWithNotes handles GET /api/user/{id}/notes.
func (h *UserHandler) GetUserWithNotes(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.directory.GetUserWithNotes(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userWithNotesToResponse(user))
}

// Register handles POST /api/user.
// Invalid input is answered with the ValidationOutcome itself.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	reg := req.ToRegistration()
	outcome := h.validation.ValidateRegistration(r.Context(), reg)
	if outcome.HasError {
		log.Debug("registration rejected", "error_count", len(outcome.Errors))
		shared.RespondWithJSON(w, r, http.StatusBadRequest, outcome)
		return
	}

	if _, err := h.directory.Register(r.Context(), reg); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			// lost a race with a concurrent registration
			conflict := domain.NewValidationOutcome()
			conflict.Add("username", "Username already exists")
			shared.RespondWithJSON(w, r, http.StatusBadRequest, conflict)
			return
		}
		if errors.Is(err, auth.ErrPasswordTooLong) {
			rejected := domain.NewValidationOutcome()
			rejected.Add("password", fmt.Sprintf("password must be at most %d bytes long", auth.MaxPasswordBytes))
			shared.RespondWithJSON(w, r, http.StatusBadRequest, rejected)
			return
		}
		HandleAPIError(w, r, err, "Failed to register user")
		return
	}

	shared.RespondWithStatus(w, http.StatusCreated)
}

// Update handles POST /api/user/update.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if err := h.directory.Update(r.Context(), req.ToUserUpdate()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithStatus(w, http.StatusAccepted)
}

// Delete handles DELETE /api/user/{id}/delete.
// Deleting an unknown user is accepted.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.directory.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	shared.RespondWithStatus(w, http.StatusAccepted)
}

// Authenticate handles POST /api/user/authenticate.
func (h *UserHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	token, err := h.directory.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			shared.RespondWithText(w, r, http.StatusBadRequest, msgInvalidCredentials)
			return
		}
		HandleAPIError(w, r, err, "Failed to authenticate")
		return
	}
	if token == nil {
		shared.RespondWithText(w, r, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tokenToResponse(token))
}

// WhoAmI handles GET /api/user/whoami.
func (h *UserHandler) WhoAmI(w http.ResponseWriter, r *http.Request, id shared.Identity) {
	shared.RespondWithText(w, r, http.StatusOK,
		fmt.Sprintf("%d - %s (%s)", id.UserID, id.Username, id.Address))
}

// ChangePassword handles POST /api/user/changePassword.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request, id shared.Identity) {
	var req ChangePasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if req.Password == req.NewPassword {
		shared.RespondWithText(w, r, http.StatusBadRequest, msgSamePassword)
		return
	}
	if err := h.validator.Var(req.NewPassword, auth.PasswordLengthTag); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgNewPasswordTooLong, err)
		return
	}

	changed, err := h.directory.ChangePassword(r.Context(), id.UserID, req.Password, req.NewPassword)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to change password")
		return
	}
	if !changed {
		shared.RespondWithText(w, r, http.StatusBadRequest, msgIncorrectPassword)
		return
	}

	shared.RespondWithText(w, r, http.StatusOK, msgPasswordChanged)
}

// RegisterRoutes mounts the handlers on r, relative to /api/user.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListUsers)
	r.Post("/", h.Register)
	r.Get("/all/notes", h.ListUsersWithNotes)
	r.Post("/update", h.Update)
	r.Post("/authenticate", h.Authenticate)
	r.Get("/whoami", WithIdentity(h.WhoAmI))
	r.Post("/changePassword", WithIdentity(h.ChangePassword))
	r.Get("/{id}", h.GetUser)
	r.Get("/{id}/notes", h.GetUserWithNotes)
	r.Delete("/{id}/delete", h.Delete)
}
