package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/aeye-cli/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("not-checked-by-the-client"))
	require.NoError(t, err)
	return raw
}

func TestDecodeSingleRole(t *testing.T) {
	t.Parallel()

	decoder := NewDecoder()
	claims, err := decoder.Decode(signed(t, jwt.MapClaims{"sub": "alice", "role": "ROLE_MANAGER"}))
	require.NoError(t, err)
	assert.Equal(t, domain.Claims{Subject: "alice", Role: domain.RoleManager}, claims)
}

func TestDecodeShortRoleAndUsernameFallback(t *testing.T) {
	t.Parallel()

	claims, err := NewDecoder().Decode(signed(t, jwt.MapClaims{"username": "bob", "role": "admin"}))
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestDecodeLegacyRolesArray(t *testing.T) {
	t.Parallel()

	claims, err := NewDecoder().Decode(signed(t, jwt.MapClaims{"sub": "carol", "roles": []string{"ROLE_USER", "ROLE_MANAGER"}}))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, claims.Role)
}

func TestDecodeRoleWinsOverRolesArray(t *testing.T) {
	t.Parallel()

	claims, err := NewDecoder().Decode(signed(t, jwt.MapClaims{"sub": "dave", "role": "ROLE_USER", "roles": []string{"ROLE_ADMIN"}}))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestDecodeUnsignedTokenIsAccepted(t *testing.T) {
	t.Parallel()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "erin", "role": "USER"})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := NewDecoder().Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestDecodeExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := signed(t, jwt.MapClaims{"sub": "alice", "role": "USER", "exp": now.Add(-time.Minute).Unix()})

	_, err := NewDecoder(WithClock(fixedClock{now: now})).Decode(raw)
	assert.ErrorIs(t, err, domain.ErrCredentialExpired)

	claims, err := NewDecoder(WithClock(fixedClock{now: now}), WithLeeway(2*time.Minute)).Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)

	fresh := signed(t, jwt.MapClaims{"sub": "alice", "role": "USER", "exp": now.Add(time.Hour).Unix()})
	_, err = NewDecoder(WithClock(fixedClock{now: now})).Decode(fresh)
	assert.NoError(t, err)
}

func TestDecodeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		credential string
	}{
		{name: "empty", credential: "  "},
		{name: "not a jwt", credential: "garbage"},
		{name: "bad base64 payload", credential: "eyJhbGciOiJIUzI1NiJ9.%%%.sig"},
		{name: "missing role", credential: signed(t, jwt.MapClaims{"sub": "alice"})},
		{name: "unknown role", credential: signed(t, jwt.MapClaims{"sub": "alice", "role": "ROLE_GUEST"})},
		{name: "missing subject", credential: signed(t, jwt.MapClaims{"role": "ROLE_USER"})},
		{name: "roles array without known role", credential: signed(t, jwt.MapClaims{"sub": "alice", "roles": []string{"X"}})},
	}

	decoder := NewDecoder()
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := decoder.Decode(tc.credential)
			assert.ErrorIs(t, err, domain.ErrInvalidCredential)
		})
	}
}
