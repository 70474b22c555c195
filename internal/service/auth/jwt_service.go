package auth

import (
	"context"
	"time"
)

// Subject is the identity a token is issued for.
type Subject struct {
	UserID   int64
	Username string
	Address  string
}

// Token is a signed access token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token carrying the subject's
	// id, username and address claims.
	GenerateToken(ctx context.Context, subject Subject) (*Token, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns ErrExpiredToken, ErrInvalidToken, ErrTokenNotYetValid, ErrWrongTokenType
	// or ErrMissingClaims when validation fails.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
type Claims struct {
	// UserID is the name-identifier claim.
	UserID int64 `json:"uid,omitempty"`

	// Username is the name claim.
	Username string `json:"name,omitempty"`

	// Address is the custom address claim.
	Address string `json:"addr,omitempty"`

	// TokenType indicates the purpose of the token.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
