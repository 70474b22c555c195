package auth

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	assert.NoError(t, hasher.Compare(hash, "Secret123"))
	assert.ErrorIs(t, hasher.Compare(hash, "secret123"), ErrPasswordMismatch)

	other, err := hasher.Hash("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes should be salted")
}

func TestBcryptHasher_CostFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestBcryptHasher_PasswordTooLong(t *testing.T) {
	t.Parallel()
	hasher := NewBcryptHasher(bcrypt.MinCost)

	_, err := hasher.Hash(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)

	// 36 runes, 72 bytes: fits.
	_, err = hasher.Hash(strings.Repeat("é", 36))
	assert.NoError(t, err)

	_, err = hasher.Hash(strings.Repeat("é", 37))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestRegisterPasswordValidation(t *testing.T) {
	t.Parallel()
	v := validator.New()
	require.NoError(t, RegisterPasswordValidation(v))

	assert.NoError(t, v.Var(strings.Repeat("a", 72), PasswordLengthTag))
	assert.Error(t, v.Var(strings.Repeat("a", 73), PasswordLengthTag))
	assert.Error(t, v.Var(strings.Repeat("é", 40), PasswordLengthTag), "limit counts bytes, not runes")
}

func TestBcryptHasher_CompareMalformedHash(t *testing.T) {
	t.Parallel()
	hasher := NewBcryptHasher(bcrypt.MinCost)

	err := hasher.Compare("not-a-hash", "whatever")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}
