package domain

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    Role
		wantErr bool
	}{
		{name: "canonical", raw: "ROLE_ADMIN", want: RoleAdmin},
		{name: "short form", raw: "MANAGER", want: RoleManager},
		{name: "lower case short form", raw: "user", want: RoleUser},
		{name: "padded", raw: "  role_user ", want: RoleUser},
		{name: "empty", raw: "", wantErr: true},
		{name: "unknown", raw: "ROLE_GUEST", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRole(tc.raw)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnknownRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHighestRole(t *testing.T) {
	t.Parallel()

	role, err := HighestRole([]string{"USER", "bogus", "ROLE_ADMIN", "MANAGER"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = HighestRole([]string{"bogus"})
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = HighestRole(nil)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRoleSetContains(t *testing.T) {
	t.Parallel()

	set := Roles(RoleManager, RoleAdmin)
	assert.True(t, set.Contains(RoleAdmin))
	assert.False(t, set.Contains(RoleUser))
	assert.Equal(t, "MANAGER,ADMIN", set.String())

	var none RoleSet
	assert.False(t, none.Contains(RoleAdmin))
	assert.Equal(t, "any", none.String())

	empty := Roles()
	assert.NotNil(t, empty)
	assert.False(t, empty.Contains(RoleAdmin))
}

func TestSessionRole(t *testing.T) {
	t.Parallel()

	role, ok := AuthenticatedSession(Claims{Subject: "alice", Role: RoleUser}).Role()
	assert.True(t, ok)
	assert.Equal(t, RoleUser, role)

	_, ok = UnauthenticatedSession().Role()
	assert.False(t, ok)

	_, ok = InitializingSession().Role()
	assert.False(t, ok)
}

func TestFeedSourceValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  FeedSource
		wantErr string
	}{
		{name: "valid", source: FeedSource{ID: "1", Path: "/api/images/1"}},
		{name: "missing id", source: FeedSource{Path: "/api/images/1"}, wantErr: "id is required"},
		{name: "missing path", source: FeedSource{ID: "1"}, wantErr: "path is required"},
		{name: "relative path", source: FeedSource{ID: "1", Path: "api/images/1"}, wantErr: "must be absolute"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.source.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestDefaultFeedSourcesAreValid(t *testing.T) {
	t.Parallel()

	for _, source := range DefaultFeedSources() {
		require.NoError(t, source.Validate())
	}
	assert.Equal(t, "Camera 01", DefaultFeedSources()[0].Label())
	assert.Equal(t, "cam-x", FeedSource{ID: "cam-x"}.Label())
}

func TestResourceHandleReleaseOnce(t *testing.T) {
	t.Parallel()

	var releases atomic.Int32
	h := NewResourceHandle("1", "mem:abc", 3, time.Unix(0, 0), Image{Data: []byte("jpeg"), ContentType: "image/jpeg"}, func() {
		releases.Add(1)
	})

	data, err := h.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
	assert.Equal(t, 4, h.Info().Size)

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.Release() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(1), releases.Load())
	assert.True(t, h.Released())

	_, err = h.Bytes()
	assert.ErrorIs(t, err, ErrHandleReleased)

	info := h.Info()
	assert.Equal(t, uint64(3), info.Seq)
	assert.Equal(t, 0, info.Size)
}

func TestRequestError(t *testing.T) {
	t.Parallel()

	err := error(&RequestError{Op: "login", StatusCode: http.StatusUnauthorized, Message: "Bad credentials"})
	assert.EqualError(t, err, "login failed with status 401: Bad credentials")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	other := &RequestError{Op: "register", StatusCode: http.StatusConflict}
	assert.EqualError(t, other, "register failed with status 409")
	assert.False(t, errors.Is(other, ErrUnauthorized))
}

func TestDefaultViews(t *testing.T) {
	t.Parallel()

	byPath := map[string]View{}
	for _, view := range DefaultViews() {
		byPath[view.Path] = view
	}

	assert.True(t, byPath[PathLogin].Public)
	assert.Nil(t, byPath[PathRoot].RequiredRoles)
	assert.Equal(t, PathFeed, byPath[PathRoot].RedirectTo)
	assert.True(t, byPath[PathAdmin].RequiredRoles.Contains(RoleAdmin))
	assert.False(t, byPath[PathAnalytics].RequiredRoles.Contains(RoleUser))
}
