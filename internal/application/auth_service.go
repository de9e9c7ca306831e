package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/aeye-cli/internal/domain"
	"github.com/bnema/aeye-cli/internal/ports"
)

// AuthService obtains credentials from the backend and hands them to the
// session manager.
type AuthService struct {
	api      ports.AuthAPI
	sessions *SessionManager
}

func NewAuthService(api ports.AuthAPI, sessions *SessionManager) *AuthService {
	return &AuthService{api: api, sessions: sessions}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return s.sessions.Session(), errors.New("username is required")
	}
	if password == "" {
		return s.sessions.Session(), errors.New("password is required")
	}

	credential, err := s.api.Login(ctx, username, password)
	if err != nil {
		return s.sessions.Session(), fmt.Errorf("login: %w", err)
	}

	return s.sessions.Login(ctx, credential)
}

func (s *AuthService) Register(ctx context.Context, registration domain.Registration) error {
	registration.Username = strings.TrimSpace(registration.Username)
	registration.PhoneNumber = strings.TrimSpace(registration.PhoneNumber)

	if registration.Username == "" {
		return errors.New("username is required")
	}
	if registration.Password == "" {
		return errors.New("password is required")
	}
	if registration.Password != registration.ConfirmPassword {
		return domain.ErrPasswordMismatch
	}

	if err := s.api.Register(ctx, registration); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	return nil
}

func (s *AuthService) Logout(ctx context.Context) domain.Session {
	return s.sessions.Logout(ctx)
}
