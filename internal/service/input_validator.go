package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/service/auth"
	"github.com/phrazzld/notes-api/internal/store"
)

// Messages reported for the username uniqueness check.
const (
	msgUsernameExists      = "Username already exists"
	msgUsernameUnavailable = "Username availability could not be checked"
)

// InputValidator validates user input before it reaches the UserDirectory.
type InputValidator interface {
	// ValidateRegistration reports every failed rule for reg.
	// It never returns an error; lookup failures become field errors.
	ValidateRegistration(ctx context.Context, reg Registration) domain.ValidationOutcome
}

// RegistrationValidator implements InputValidator with struct tags and a
// username lookup against the store.
type RegistrationValidator struct {
	validate  *validator.Validate
	userStore store.UserStore
	logger    *slog.Logger
}

// Ensure RegistrationValidator implements InputValidator interface
var _ InputValidator = (*RegistrationValidator)(nil)

// NewRegistrationValidator creates a RegistrationValidator.
func NewRegistrationValidator(userStore store.UserStore, log *slog.Logger) (*RegistrationValidator, error) {
	if userStore == nil {
		return nil, errors.New("userStore cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	if err := auth.RegisterPasswordValidation(v); err != nil {
		return nil, fmt.Errorf("failed to register password validation: %w", err)
	}

	return &RegistrationValidator{
		validate:  v,
		userStore: userStore,
		logger:    log.With("component", "input_validator"),
	}, nil
}

// ValidateRegistration implements InputValidator.
func (v *RegistrationValidator) ValidateRegistration(
	ctx context.Context,
	reg Registration,
) domain.ValidationOutcome {
	log := logger.FromContextOrDefault(ctx, v.logger)
	outcome := domain.NewValidationOutcome()

	if err := v.validate.StructCtx(ctx, reg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			log.Error("registration validation failed unexpectedly", "error", err)
			outcome.Add("", "Invalid registration input")
			return outcome
		}
		for _, fe := range fieldErrs {
			outcome.Add(fe.Field(), fieldMessage(fe))
		}
	}

	if reg.Username != "" && !outcome.Has("username") {
		_, err := v.userStore.GetByUsername(ctx, reg.Username)
		switch {
		case err == nil:
			outcome.Add("username", msgUsernameExists)
		case errors.Is(err, store.ErrUserNotFound):
			// available
		default:
			log.Error("username availability check failed", "error", err)
			outcome.Add("username", msgUsernameUnavailable)
		}
	}

	if outcome.HasError {
		log.Debug("registration input rejected", "error_count", len(outcome.Errors))
	}
	return outcome
}

// jsonFieldName reports fields by their JSON name so messages match the request body.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "alphanum":
		return fmt.Sprintf("%s may only contain letters and digits", fe.Field())
	case auth.PasswordLengthTag:
		return fmt.Sprintf("%s must be at most %d bytes long", fe.Field(), auth.MaxPasswordBytes)
	case "eqfield":
		return "Passwords do not match"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
