package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrWrongTokenType indicates a token issued for another purpose was presented
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrMissingClaims indicates a validly signed token lacks identity claims
	ErrMissingClaims = errors.New("authentication token is missing identity claims")

	// ErrPasswordMismatch indicates a password does not match its hash
	ErrPasswordMismatch = errors.New("password does not match")

	// ErrPasswordTooLong indicates a password exceeds MaxPasswordBytes
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)
