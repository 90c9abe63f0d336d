package services

import (
	"context"
	"errors"

	"freshbasket/internal/api"
	"freshbasket/internal/validate"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	API *api.Client
}

// Login checks the form locally and exchanges it for a credential. Server
// rejections come back as *api.APIError carrying the server's message.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email, ok := validate.Email(email)
	if !ok || !validate.Password(password) {
		return "", ErrBadCreds
	}
	return s.API.Login(ctx, email, password)
}

// Logout tells the API the credential is done with. Errors are ignored by
// callers; the local session is cleared either way.
func (s *AuthService) Logout(ctx context.Context, cred string) error {
	if cred == "" {
		return nil
	}
	return s.API.Logout(ctx, cred)
}
