// Package token reads the claims carried by a backend-issued JWT. The
// signature is not checked: the backend re-validates every request, so the
// client only needs the payload to pick a view.
package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bnema/aeye-cli/internal/domain"
	"github.com/bnema/aeye-cli/internal/ports"
)

type tokenClaims struct {
	Role     string   `json:"role,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Username string   `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type Decoder struct {
	parser *jwt.Parser
	clock  ports.Clock
	leeway time.Duration
}

var _ ports.ClaimsDecoder = (*Decoder)(nil)

type Option func(*Decoder)

func WithClock(clock ports.Clock) Option {
	return func(d *Decoder) {
		if clock != nil {
			d.clock = clock
		}
	}
}

func WithLeeway(leeway time.Duration) Option {
	return func(d *Decoder) {
		if leeway >= 0 {
			d.leeway = leeway
		}
	}
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		parser: jwt.NewParser(),
		clock:  ports.SystemClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode never touches the network. A single "role" claim wins over the
// legacy "roles" array; the array is only consulted when "role" is absent,
// and then its most privileged entry is used.
func (d *Decoder) Decode(credential string) (domain.Claims, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Claims{}, fmt.Errorf("%w: empty credential", domain.ErrInvalidCredential)
	}

	var claims tokenClaims
	if _, _, err := d.parser.ParseUnverified(credential, &claims); err != nil {
		return domain.Claims{}, fmt.Errorf("%w: %w", domain.ErrInvalidCredential, err)
	}

	if claims.ExpiresAt != nil && !d.clock.Now().Before(claims.ExpiresAt.Time.Add(d.leeway)) {
		return domain.Claims{}, fmt.Errorf("%w: expired at %s", domain.ErrCredentialExpired, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		subject = strings.TrimSpace(claims.Username)
	}
	if subject == "" {
		return domain.Claims{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidCredential)
	}

	role, err := resolveRole(claims)
	if err != nil {
		return domain.Claims{}, fmt.Errorf("%w: %w", domain.ErrInvalidCredential, err)
	}

	return domain.Claims{Subject: subject, Role: role}, nil
}

func resolveRole(claims tokenClaims) (domain.Role, error) {
	if strings.TrimSpace(claims.Role) != "" {
		return domain.ParseRole(claims.Role)
	}
	if len(claims.Roles) > 0 {
		return domain.HighestRole(claims.Roles)
	}
	return "", fmt.Errorf("%w: no role claim", domain.ErrUnknownRole)
}
