package domain

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationOutcome is the result of validating an input. It is produced
// once per request and returned verbatim to the client when HasError is set.
type ValidationOutcome struct {
	HasError bool         `json:"hasError"`
	Errors   []FieldError `json:"errors"`
}

// NewValidationOutcome returns an outcome with no errors.
func NewValidationOutcome() ValidationOutcome {
	return ValidationOutcome{Errors: []FieldError{}}
}

// Add records a failed rule for field and flags the outcome.
func (o *ValidationOutcome) Add(field, message string) {
	o.HasError = true
	o.Errors = append(o.Errors, FieldError{Field: field, Message: message})
}

// Has reports whether a failure was recorded for field.
func (o ValidationOutcome) Has(field string) bool {
	for _, e := range o.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}
