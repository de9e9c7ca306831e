package domain

type Claims struct {
	Subject string
	Role    Role
}

type SessionStatus string

const (
	SessionInitializing    SessionStatus = "initializing"
	SessionUnauthenticated SessionStatus = "unauthenticated"
	SessionAuthenticated   SessionStatus = "authenticated"
)

// Session is a snapshot; Claims is non-nil only while authenticated.
type Session struct {
	Status SessionStatus
	Claims *Claims
}

func InitializingSession() Session {
	return Session{Status: SessionInitializing}
}

func UnauthenticatedSession() Session {
	return Session{Status: SessionUnauthenticated}
}

func AuthenticatedSession(claims Claims) Session {
	return Session{Status: SessionAuthenticated, Claims: &claims}
}

func (s Session) Role() (Role, bool) {
	if s.Status != SessionAuthenticated || s.Claims == nil {
		return "", false
	}
	return s.Claims.Role, true
}

type Registration struct {
	Username        string
	PhoneNumber     string
	Password        string
	ConfirmPassword string
}
