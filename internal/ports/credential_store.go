package ports

import (
	"context"

	"github.com/bnema/aeye-cli/internal/domain"
)

// CredentialStore keeps at most one credential. Load reports
// domain.ErrCredentialNotFound when the slot is empty; Clear on an empty
// slot is not an error.
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, credential string) error
	Clear(ctx context.Context) error
}

// ClaimsDecoder extracts claims from a credential without verifying it.
type ClaimsDecoder interface {
	Decode(credential string) (domain.Claims, error)
}

type SessionRevoker interface {
	Logout(ctx context.Context) error
}

type AuthAPI interface {
	SessionRevoker
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, registration domain.Registration) error
}

type Navigator interface {
	Navigate(path string)
}
