package domain

import (
	"fmt"
	"time"
)

// maxUsernameLength mirrors the users.username column width.
const maxUsernameLength = 30

// User represents a registered user of the notes application.
// Notes is only populated by the reads that explicitly ask for it.
type User struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Username       string    `json:"username"`
	Address        string    `json:"address"`
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	Notes          []Note    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewUser creates a new User from registration data and an already hashed password.
// The ID is assigned by the store on Create.
func NewUser(firstName, lastName, username, address, hashedPassword string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		FirstName:      firstName,
		LastName:       lastName,
		Username:       username,
		Address:        address,
		HashedPassword: hashedPassword,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks the invariants every persisted user must satisfy.
func (u *User) Validate() error {
	if u.ID < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, u.ID)
	}

	if u.Username == "" {
		return ErrEmptyUsername
	}

	if len(u.Username) > maxUsernameLength {
		return ErrUsernameTooLong
	}

	if u.FirstName == "" {
		return ErrEmptyFirstName
	}

	if u.LastName == "" {
		return ErrEmptyLastName
	}

	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}

	return nil
}
