package session

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/desertthunder/filmx/internal/services"
	"github.com/desertthunder/filmx/internal/shared"
)

// Messages shown when the server gives no detail.
const (
	LoginFallback    = "Unable to log in."
	RegisterFallback = "Unable to register."
)

// AuthError is returned by [Manager.Login] and [Manager.Register].
//
// Error returns the message meant for the user: the server's detail verbatim when it sent one,
// otherwise a generic fallback. The cause stays reachable through errors.Is/As.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool { return target == shared.ErrAuthFailed }

func newAuthError(op, fallback string, err error) *AuthError {
	msg := fallback
	if detail, ok := services.ErrorDetail(err); ok {
		msg = detail
	}
	return &AuthError{Op: op, Message: msg, Err: err}
}

func invalidInput(op string, err error) *AuthError {
	return &AuthError{Op: op, Message: err.Error(), Err: fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)}
}

// LoginInput is validated before any request is sent.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(1, 254)),
		validation.Field(&in.Password, validation.Required),
	)
}

// RegisterInput is validated before any request is sent.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Required),
	)
}
