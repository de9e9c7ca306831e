package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/aeye-cli/internal/domain"
)

func TestAuthServiceLoginStoresCredential(t *testing.T) {
	t.Parallel()

	store := &memoryStore{}
	api := &fakeAuthAPI{token: "alice:ROLE_USER"}
	sessions := NewSessionManager(store, stubDecoder{}, api, nil, nil)
	sessions.Restore(context.Background())
	service := NewAuthService(api, sessions)

	session, err := service.Login(context.Background(), " alice ", "secret")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionAuthenticated, session.Status)
	assert.Equal(t, "alice:ROLE_USER", store.current())
}

func TestAuthServiceLoginSurfacesBackendMessage(t *testing.T) {
	t.Parallel()

	store := &memoryStore{}
	api := &fakeAuthAPI{loginErr: &domain.RequestError{Op: "login", StatusCode: 401, Message: "Invalid username or password"}}
	sessions := NewSessionManager(store, stubDecoder{}, api, nil, nil)
	sessions.Restore(context.Background())
	service := NewAuthService(api, sessions)

	session, err := service.Login(context.Background(), "alice", "wrong")
	require.ErrorContains(t, err, "Invalid username or password")
	assert.Equal(t, domain.SessionUnauthenticated, session.Status)
	assert.Empty(t, store.current())
}

func TestAuthServiceLoginValidatesInput(t *testing.T) {
	t.Parallel()

	api := &fakeAuthAPI{token: "alice:USER"}
	service := NewAuthService(api, NewSessionManager(&memoryStore{}, stubDecoder{}, api, nil, nil))

	_, err := service.Login(context.Background(), " ", "secret")
	assert.ErrorContains(t, err, "username is required")

	_, err = service.Login(context.Background(), "alice", "")
	assert.ErrorContains(t, err, "password is required")
}

func TestAuthServiceRegister(t *testing.T) {
	t.Parallel()

	api := &fakeAuthAPI{}
	service := NewAuthService(api, NewSessionManager(&memoryStore{}, stubDecoder{}, api, nil, nil))

	err := service.Register(context.Background(), domain.Registration{
		Username:        " gina ",
		PhoneNumber:     "0400000000",
		Password:        "pw",
		ConfirmPassword: "pw",
	})
	require.NoError(t, err)
	require.Len(t, api.registered, 1)
	assert.Equal(t, "gina", api.registered[0].Username)
}

func TestAuthServiceRegisterRejectsMismatchBeforeCallingBackend(t *testing.T) {
	t.Parallel()

	api := &fakeAuthAPI{registerErr: errors.New("must not be called")}
	service := NewAuthService(api, NewSessionManager(&memoryStore{}, stubDecoder{}, api, nil, nil))

	err := service.Register(context.Background(), domain.Registration{Username: "gina", Password: "a", ConfirmPassword: "b"})
	assert.ErrorIs(t, err, domain.ErrPasswordMismatch)
	assert.Empty(t, api.registered)
}

func TestAuthServiceLogoutDelegates(t *testing.T) {
	t.Parallel()

	store := &memoryStore{credential: "alice:USER"}
	api := &fakeAuthAPI{}
	nav := &recordingNavigator{}
	sessions := NewSessionManager(store, stubDecoder{}, api, nav, nil)
	sessions.Restore(context.Background())

	session := NewAuthService(api, sessions).Logout(context.Background())
	assert.Equal(t, domain.SessionUnauthenticated, session.Status)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, []string{domain.PathLogin}, nav.visited())
}
