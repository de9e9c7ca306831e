package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/aeye-cli/internal/adapters/credential/file"
	passstore "github.com/bnema/aeye-cli/internal/adapters/credential/pass"
	"github.com/bnema/aeye-cli/internal/domain"
	"github.com/bnema/aeye-cli/internal/ports"
)

// Store reads and writes through primary, falling back when primary fails.
// Clear always empties both backends so a stale fallback copy cannot
// resurrect a session.
type Store struct {
	primary  ports.CredentialStore
	fallback ports.CredentialStore
}

var _ ports.CredentialStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary credential store is nil")
	errNilFallbackStore = errors.New("fallback credential store is nil")
)

func NewStore(primary ports.CredentialStore, fallback ports.CredentialStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.CredentialStore, fallback ports.CredentialStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(passEntry string, filePath string) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(passEntry), filestore.NewStore(filePath))
}

func (s *Store) Save(ctx context.Context, credential string) error {
	err := s.primary.Save(ctx, credential)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Save(ctx, credential)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend save failed: %w; fallback backend save failed: %w", err, fallbackErr)
}

func (s *Store) Load(ctx context.Context) (string, error) {
	value, err := s.primary.Load(ctx)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Load(ctx)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	primaryMissing := errors.Is(err, domain.ErrCredentialNotFound)
	fallbackMissing := errors.Is(fallbackErr, domain.ErrCredentialNotFound)
	switch {
	case primaryMissing && fallbackMissing:
		return "", domain.ErrCredentialNotFound
	case primaryMissing:
		return "", fmt.Errorf("fallback backend load failed: %w", fallbackErr)
	case fallbackMissing:
		return "", fmt.Errorf("primary backend load failed: %w", err)
	}

	return "", fmt.Errorf("primary backend load failed: %w; fallback backend load failed: %w", err, fallbackErr)
}

func (s *Store) Clear(ctx context.Context) error {
	err := s.primary.Clear(ctx)
	if err != nil && shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Clear(ctx)
	switch {
	case err == nil && fallbackErr == nil:
		return nil
	case err == nil:
		return fmt.Errorf("fallback backend clear failed: %w", fallbackErr)
	case fallbackErr == nil:
		return fmt.Errorf("primary backend clear failed: %w", err)
	}

	return fmt.Errorf("primary backend clear failed: %w; fallback backend clear failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
