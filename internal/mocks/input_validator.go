package mocks

import (
	"context"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/service"
)

// MockInputValidator implements service.InputValidator for testing.
// Without ValidateRegistrationFn it returns Outcome, which defaults to no errors.
type MockInputValidator struct {
	ValidateRegistrationFn func(ctx context.Context, reg service.Registration) domain.ValidationOutcome

	Outcome   domain.ValidationOutcome
	CallCount int
}

var _ service.InputValidator = (*MockInputValidator)(nil)

// ValidateRegistration implements service.InputValidator
func (m *MockInputValidator) ValidateRegistration(
	ctx context.Context,
	reg service.Registration,
) domain.ValidationOutcome {
	m.CallCount++
	if m.ValidateRegistrationFn != nil {
		return m.ValidateRegistrationFn(ctx, reg)
	}
	if m.Outcome.Errors == nil {
		return domain.NewValidationOutcome()
	}
	return m.Outcome
}
