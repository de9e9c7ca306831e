package application

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bnema/aeye-cli/internal/domain"
)

type memoryStore struct {
	mu         sync.Mutex
	credential string
	loadErr    error
	saveErr    error
	clears     int
}

func (s *memoryStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return "", s.loadErr
	}
	if s.credential == "" {
		return "", domain.ErrCredentialNotFound
	}
	return s.credential, nil
}

func (s *memoryStore) Save(ctx context.Context, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.credential = credential
	return nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.credential = ""
	return nil
}

func (s *memoryStore) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential
}

// stubDecoder accepts credentials shaped "subject:ROLE".
type stubDecoder struct{}

func (stubDecoder) Decode(credential string) (domain.Claims, error) {
	subject, rawRole, ok := strings.Cut(credential, ":")
	if !ok || subject == "" {
		return domain.Claims{}, domain.ErrInvalidCredential
	}
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return domain.Claims{}, errors.Join(domain.ErrInvalidCredential, err)
	}
	return domain.Claims{Subject: subject, Role: role}, nil
}

type fakeRevoker struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *fakeRevoker) Logout(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type fakeAuthAPI struct {
	fakeRevoker
	token       string
	loginErr    error
	registerErr error

	mu         sync.Mutex
	registered []domain.Registration
}

func (a *fakeAuthAPI) Login(ctx context.Context, username, password string) (string, error) {
	if a.loginErr != nil {
		return "", a.loginErr
	}
	return a.token, nil
}

func (a *fakeAuthAPI) Register(ctx context.Context, registration domain.Registration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.registerErr != nil {
		return a.registerErr
	}
	a.registered = append(a.registered, registration)
	return nil
}

type publishRecord struct {
	sourceID         domain.FeedSourceID
	seq              uint64
	previousReleased bool
}

// recordingDisplay keeps the last handle per source only to check release
// ordering; a real display copies what it needs during Publish.
type recordingDisplay struct {
	mu        sync.Mutex
	last      map[domain.FeedSourceID]*domain.ResourceHandle
	published []publishRecord
	withdrawn []domain.FeedSourceID
}

func newRecordingDisplay() *recordingDisplay {
	return &recordingDisplay{last: map[domain.FeedSourceID]*domain.ResourceHandle{}}
}

func (d *recordingDisplay) Publish(handle *domain.ResourceHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	record := publishRecord{sourceID: handle.SourceID, seq: handle.Seq}
	if previous, ok := d.last[handle.SourceID]; ok {
		record.previousReleased = previous.Released()
	}
	if _, err := handle.Bytes(); err != nil {
		panic("published a released handle")
	}
	d.last[handle.SourceID] = handle
	d.published = append(d.published, record)
}

func (d *recordingDisplay) Withdraw(id domain.FeedSourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.withdrawn = append(d.withdrawn, id)
}

func (d *recordingDisplay) publishes() []publishRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]publishRecord(nil), d.published...)
}

func (d *recordingDisplay) countFor(id domain.FeedSourceID) int {
	n := 0
	for _, record := range d.publishes() {
		if record.sourceID == id {
			n++
		}
	}
	return n
}

func (d *recordingDisplay) withdrawals() []domain.FeedSourceID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.FeedSourceID(nil), d.withdrawn...)
}

type fetchFunc func(ctx context.Context, source domain.FeedSource) (domain.Image, error)

func (f fetchFunc) FetchImage(ctx context.Context, source domain.FeedSource) (domain.Image, error) {
	return f(ctx, source)
}

func jpeg(payload string) domain.Image {
	return domain.Image{Data: []byte(payload), ContentType: "image/jpeg"}
}
