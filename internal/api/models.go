package api

import (
	"time"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/service"
	"github.com/phrazzld/notes-api/internal/service/auth"
)

// Literal responses of the user endpoint.
const (
	msgInvalidCredentials = "Invalid Username Or Password"
	msgSamePassword       = "The old and the new password must be different."
	msgIncorrectPassword  = "Incorrect password."
	msgPasswordChanged    = "Successfully changed password."
	msgNewPasswordTooLong = "Invalid newPassword: too long"
)

// RegisterUserRequest defines the payload for user registration.
// Rules are applied by the InputValidator, not by struct tags here.
type RegisterUserRequest struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	ConfirmedPassword string `json:"confirmedPassword"`
	Address           string `json:"address"`
}

// ToRegistration converts the request to the service input.
func (r RegisterUserRequest) ToRegistration() service.Registration {
	return service.Registration{
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Username:          r.Username,
		Password:          r.Password,
		ConfirmedPassword: r.ConfirmedPassword,
		Address:           r.Address,
	}
}

// UpdateUserRequest defines the payload for the update endpoint.
type UpdateUserRequest struct {
	ID        int64  `json:"id"        validate:"required,gt=0"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
	Username  string `json:"username"  validate:"required,min=3,max=30,alphanum"`
	Address   string `json:"address"   validate:"max=150"`
}

// ToUserUpdate converts the request to the service input.
func (r UpdateUserRequest) ToUserUpdate() service.UserUpdate {
	return service.UserUpdate{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Username:  r.Username,
		Address:   r.Address,
	}
}

// LoginRequest defines the payload for the authenticate endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest defines the payload for the change password endpoint.
type ChangePasswordRequest struct {
	Password    string `json:"password"    validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// TokenResponse is returned by a successful authentication.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Address   string `json:"address"`
}

// NoteResponse is the public view of a note.
type NoteResponse struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Color string `json:"color"`
	Tag   int    `json:"tag"`
}

// UserWithNotesResponse is a user together with their notes.
type UserWithNotesResponse struct {
	UserResponse
	Notes []NoteResponse `json:"notes"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Address:   u.Address,
	}
}

func usersToResponse(users []domain.User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, userToResponse(&users[i]))
	}
	return resp
}

func userWithNotesToResponse(u *domain.User) UserWithNotesResponse {
	notes := make([]NoteResponse, 0, len(u.Notes))
	for _, n := range u.Notes {
		notes = append(notes, NoteResponse{ID: n.ID, Text: n.Text, Color: n.Color, Tag: n.Tag})
	}
	return UserWithNotesResponse{UserResponse: userToResponse(u), Notes: notes}
}

func usersWithNotesToResponse(users []domain.User) []UserWithNotesResponse {
	resp := make([]UserWithNotesResponse, 0, len(users))
	for i := range users {
		resp = append(resp, userWithNotesToResponse(&users[i]))
	}
	return resp
}

func tokenToResponse(t *auth.Token) TokenResponse {
	return TokenResponse{Token: t.Value, ExpiresAt: t.ExpiresAt.UTC()}
}
