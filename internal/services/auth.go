package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/filmx/internal/models"
)

// Remote endpoints used by the session.
const (
	PathLogin = "/login/"
	PathUsers = "/users/"
	PathMe    = "/users/me"
)

// LoginRequest is the body of POST /login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /users/.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the body returned by POST /login/.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthAPI maps the authentication endpoints onto an [APIService].
type AuthAPI struct {
	api *APIService
}

// NewAuthAPI creates an [AuthAPI] that sends requests through api.
func NewAuthAPI(api *APIService) *AuthAPI {
	return &AuthAPI{api: api}
}

// Login exchanges a username and password for a bearer credential.
func (a *AuthAPI) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	resp, err := a.api.Post(ctx, PathLogin, LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := DecodeJSON(resp, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, &DecodeError{Err: errors.New("missing access_token")}
	}
	return &tok, nil
}

// Register creates an account. It does not authenticate the caller.
func (a *AuthAPI) Register(ctx context.Context, name, email, password string) (models.UserProfile, error) {
	resp, err := a.api.Post(ctx, PathUsers, RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return models.UserProfile{}, err
	}
	return decodeProfile(resp)
}

// Me fetches the profile of the credential attached to the request.
func (a *AuthAPI) Me(ctx context.Context, opts ...RequestOption) (models.UserProfile, error) {
	resp, err := a.api.Get(ctx, PathMe, opts...)
	if err != nil {
		return models.UserProfile{}, err
	}
	return decodeProfile(resp)
}

func decodeProfile(resp *APIResponse) (models.UserProfile, error) {
	var profile models.UserProfile
	if err := DecodeJSON(resp, &profile); err != nil {
		return models.UserProfile{}, err
	}
	if err := profile.Validate(); err != nil {
		return models.UserProfile{}, &DecodeError{Err: fmt.Errorf("user profile: %w", err)}
	}
	return profile, nil
}
