package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/notes-api/internal/api/shared"
	"github.com/phrazzld/notes-api/internal/domain"
)

// getPathID extracts a positive integer ID from the URL path parameters.
//
// Returns:
//   - (id, nil): the parsed ID
//   - (0, error): wrapping domain.ErrInvalidID if the parameter is missing,
//     not an integer, or not positive
func getPathID(r *http.Request, paramName string) (int64, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidID, paramName)
	}

	id, err := strconv.ParseInt(pathParam, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive", domain.ErrInvalidID, paramName)
	}

	return id, nil
}

// WithIdentity adapts an IdentityHandlerFunc to http.HandlerFunc. Requests
// without an authenticated caller get 401 and never reach fn.
func WithIdentity(fn shared.IdentityHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			HandleAPIError(w, r, domain.ErrUnauthorized, "")
			return
		}
		fn(w, r, id)
	}
}
