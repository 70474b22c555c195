// Package api handles the /api/user HTTP surface: request decoding and
// validation, delegation to the UserDirectory and InputValidator, and the
// mapping of results and errors to status codes.
package api
