package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bnema/aeye-cli/internal/domain"
	"github.com/bnema/aeye-cli/internal/logging"
	"github.com/bnema/aeye-cli/internal/ports"
)

// SessionManager is the only writer of the credential store. Every other
// component observes the Session it derives.
type SessionManager struct {
	store     ports.CredentialStore
	decoder   ports.ClaimsDecoder
	revoker   ports.SessionRevoker
	navigator ports.Navigator
	logger    *slog.Logger

	// ops serialises store mutations between restore, login and logout.
	ops         sync.Mutex
	restoreOnce sync.Once
	readyOnce   sync.Once
	ready       chan struct{}

	mu      sync.RWMutex
	session domain.Session
}

func NewSessionManager(store ports.CredentialStore, decoder ports.ClaimsDecoder, revoker ports.SessionRevoker, navigator ports.Navigator, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		store:     store,
		decoder:   decoder,
		revoker:   revoker,
		navigator: navigator,
		logger:    logging.Default(logger).With("component", "session"),
		ready:     make(chan struct{}),
		session:   domain.InitializingSession(),
	}
}

func (m *SessionManager) Session() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Ready is closed once the session has left the initializing state.
func (m *SessionManager) Ready() <-chan struct{} {
	return m.ready
}

func (m *SessionManager) WaitReady(ctx context.Context) (domain.Session, error) {
	select {
	case <-m.ready:
		return m.Session(), nil
	case <-ctx.Done():
		return m.Session(), ctx.Err()
	}
}

// Restore derives the session from the stored credential. Only the first
// call does any work; later calls return the current session.
func (m *SessionManager) Restore(ctx context.Context) domain.Session {
	m.restoreOnce.Do(func() {
		m.ops.Lock()
		defer m.ops.Unlock()

		if m.Session().Status != domain.SessionInitializing {
			return
		}
		m.set(m.restore(ctx))
	})

	return m.Session()
}

func (m *SessionManager) restore(ctx context.Context) domain.Session {
	credential, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrCredentialNotFound) {
			m.logger.Warn("credential store unreadable", "error", err)
		}
		return domain.UnauthenticatedSession()
	}

	claims, err := m.decoder.Decode(credential)
	if err != nil {
		m.logger.Info("discarding stored credential", "error", err)
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.logger.Warn("clear undecodable credential", "error", clearErr)
		}
		return domain.UnauthenticatedSession()
	}

	m.logger.Debug("session restored", "subject", claims.Subject, "role", claims.Role)
	return domain.AuthenticatedSession(claims)
}

// Login derives the session from credential and stores it. A credential
// that cannot be decoded is never stored: it clears whatever was stored
// before and leaves the session unauthenticated.
func (m *SessionManager) Login(ctx context.Context, credential string) (domain.Session, error) {
	m.ops.Lock()
	defer m.ops.Unlock()

	claims, err := m.decoder.Decode(credential)
	if err != nil {
		m.set(domain.UnauthenticatedSession())
		if clearErr := m.store.Clear(context.WithoutCancel(ctx)); clearErr != nil {
			return m.Session(), fmt.Errorf("decode credential and clear it: %w", errors.Join(err, clearErr))
		}
		return m.Session(), fmt.Errorf("decode credential: %w", err)
	}

	if err := m.store.Save(ctx, credential); err != nil {
		return m.Session(), fmt.Errorf("store credential: %w", err)
	}

	m.set(domain.AuthenticatedSession(claims))
	m.logger.Info("session started", "subject", claims.Subject, "role", claims.Role)
	return m.Session(), nil
}

// Logout always ends in the unauthenticated state on the login view. The
// remote notification is best effort.
func (m *SessionManager) Logout(ctx context.Context) domain.Session {
	m.ops.Lock()
	defer m.ops.Unlock()

	if m.revoker != nil {
		if err := m.revoker.Logout(ctx); err != nil {
			m.logger.Warn("logout notification failed", "error", err)
		}
	}

	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.logger.Error("clear credential", "error", err)
	}

	m.set(domain.UnauthenticatedSession())
	if m.navigator != nil {
		m.navigator.Navigate(domain.PathLogin)
	}

	return m.Session()
}

func (m *SessionManager) set(session domain.Session) {
	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	if session.Status != domain.SessionInitializing {
		m.readyOnce.Do(func() { close(m.ready) })
	}
}
