package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/vidtube/internal/auth"
	"github.com/iliyamo/vidtube/internal/config"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/queue"
	"github.com/iliyamo/vidtube/internal/repository"
)

// memStore is an in-memory CredentialStore.
type memStore struct {
	mu     sync.Mutex
	users  map[uint64]*model.User
	nextID uint64

	createErr error // forced Create failure, e.g. a lost uniqueness race
	findErr   error
}

func newMemStore() *memStore { return &memStore{users: map[uint64]*model.User{}} }

func (s *memStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, e := range s.users {
		if e.Username == u.Username || e.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *memStore) FindByUsernameOrEmail(_ context.Context, username, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	username, email = normalize(username), normalize(email)
	for _, u := range s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) FindByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *memStore) update(id uint64, fn func(u *model.User)) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(u)
	c := *u
	return &c, nil
}

func (s *memStore) UpdateRefreshToken(_ context.Context, id uint64, hash string) error {
	_, err := s.update(id, func(u *model.User) { u.RefreshTokenHash = hash })
	return err
}

func (s *memStore) UpdatePassword(_ context.Context, id uint64, hash string) error {
	_, err := s.update(id, func(u *model.User) { u.PasswordHash = hash })
	return err
}

func (s *memStore) UpdateAccount(_ context.Context, id uint64, fullName, email string) (*model.User, error) {
	s.mu.Lock()
	for _, u := range s.users {
		if u.ID != id && u.Email == email {
			s.mu.Unlock()
			return nil, repository.ErrDuplicate
		}
	}
	s.mu.Unlock()
	return s.update(id, func(u *model.User) { u.FullName, u.Email = fullName, email })
}

func (s *memStore) UpdateAvatar(_ context.Context, id uint64, url string) (*model.User, error) {
	return s.update(id, func(u *model.User) { u.Avatar = url })
}

func (s *memStore) UpdateCoverImage(_ context.Context, id uint64, url string) (*model.User, error) {
	return s.update(id, func(u *model.User) { u.CoverImage = url })
}

func (s *memStore) get(id uint64) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// fakeUploader removes the local file like the real uploader and returns a
// URL derived from its name.
type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	failOn   string // basename that fails
	err      error
}

func (f *fakeUploader) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeUploader) Upload(_ context.Context, p string) (string, error) {
	defer os.Remove(p)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil && (f.failOn == "" || f.failOn == filepath.Base(p)) {
		return "", f.err
	}
	f.uploaded = append(f.uploaded, filepath.Base(p))
	return "https://cdn.example/" + filepath.Base(p), nil
}

type fakePublisher struct {
	mu     sync.Mutex
	users  []queue.UserRegisteredEvent
	videos []queue.VideoPublishedEvent
	err    error
}

func (p *fakePublisher) PublishUserRegistered(_ context.Context, ev queue.UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, ev)
	return p.err
}

func (p *fakePublisher) PublishVideoPublished(_ context.Context, ev queue.VideoPublishedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.videos = append(p.videos, ev)
	return p.err
}

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testIssuer() *auth.Issuer {
	return auth.NewIssuer(&config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTTLMin:       15,
		RefreshTTLDays:     10,
	})
}

type sessionFixture struct {
	m     *SessionManager
	store *memStore
	up    *fakeUploader
	pub   *fakePublisher
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{store: newMemStore(), up: &fakeUploader{}, pub: &fakePublisher{}}
	f.m = NewSessionManager(f.store, auth.NewHasher(bcrypt.MinCost), testIssuer(), f.up, f.pub, discardLogger())
	return f
}

// tempFile creates a scratch file standing in for a saved multipart upload.
func tempFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o600))
	return p
}

func wrapDuplicate() error { return fmt.Errorf("insert user: %w", repository.ErrDuplicate) }
