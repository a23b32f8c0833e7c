package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/auth"
)

func (f *sessionFixture) register(t *testing.T, username, email, password string) uint64 {
	t.Helper()
	u, err := f.m.Register(context.Background(), RegisterInput{
		FullName:   "Test " + username,
		Email:      email,
		Username:   username,
		Password:   password,
		AvatarPath: tempFile(t, username+"-avatar.png"),
	})
	require.NoError(t, err)
	return u.ID
}

func TestAliceScenario(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.register(t, "alice", "alice@x.com", "P@ss1")

	s, err := f.m.Login(ctx, LoginInput{Username: "alice", Password: "P@ss1"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.Tokens.AccessToken)
	assert.NotEmpty(t, s.Tokens.RefreshToken)
	assert.Empty(t, s.User.PasswordHash)
	assert.Empty(t, s.User.RefreshTokenHash)
	assert.Equal(t, "alice", s.User.Username)

	original := s.Tokens.RefreshToken
	next, err := f.m.Refresh(ctx, original)
	require.NoError(t, err)
	assert.NotEqual(t, original, next.RefreshToken)

	require.NoError(t, f.m.Logout(ctx, s.User.ID))

	_, err = f.m.Refresh(ctx, original)
	require.Error(t, err)
	assert.True(t, apierror.As(err).Kind == apierror.KindTokenReused || apierror.As(err).Kind == apierror.KindTokenInvalid)
}

func TestRefreshRotationAndReplay(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	id := f.register(t, "bob", "bob@x.com", "secret")

	s, err := f.m.Login(ctx, LoginInput{Email: "BOB@x.com", Password: "secret"})
	require.NoError(t, err)

	first := s.Tokens.RefreshToken
	second, err := f.m.Refresh(ctx, first)
	require.NoError(t, err)
	assert.NotEqual(t, first, second.RefreshToken)
	assert.Equal(t, auth.HashRefreshToken(second.RefreshToken), f.store.get(id).RefreshTokenHash)

	// the superseded token is rejected and does not disturb the live one
	_, err = f.m.Refresh(ctx, first)
	assert.ErrorIs(t, err, apierror.ErrTokenReused)
	assert.Equal(t, auth.HashRefreshToken(second.RefreshToken), f.store.get(id).RefreshTokenHash)

	third, err := f.m.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, second.RefreshToken, third.RefreshToken)
}

func TestLoginOverwritesPreviousSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.register(t, "carol", "carol@x.com", "pw")

	a, err := f.m.Login(ctx, LoginInput{Username: "carol", Password: "pw"})
	require.NoError(t, err)
	b, err := f.m.Login(ctx, LoginInput{Username: "carol", Password: "pw"})
	require.NoError(t, err)

	_, err = f.m.Refresh(ctx, a.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apierror.ErrTokenReused)
	_, err = f.m.Refresh(ctx, b.Tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshFailures(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	id := f.register(t, "dave", "dave@x.com", "pw")
	s, err := f.m.Login(ctx, LoginInput{Username: "dave", Password: "pw"})
	require.NoError(t, err)

	_, err = f.m.Refresh(ctx, "")
	assert.ErrorIs(t, err, apierror.ErrUnauthorized)

	_, err = f.m.Refresh(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, apierror.ErrTokenInvalid)

	// an access token is signed with the other secret
	_, err = f.m.Refresh(ctx, s.Tokens.AccessToken)
	assert.ErrorIs(t, err, apierror.ErrTokenInvalid)

	raw := s.Tokens.RefreshToken
	tampered := raw[:len(raw)-43] + flip(raw[len(raw)-43]) + raw[len(raw)-42:]
	_, err = f.m.Refresh(ctx, tampered)
	assert.ErrorIs(t, err, apierror.ErrTokenInvalid)

	// subject no longer exists
	f.store.mu.Lock()
	delete(f.store.users, id)
	f.store.mu.Unlock()
	_, err = f.m.Refresh(ctx, raw)
	assert.ErrorIs(t, err, apierror.ErrTokenInvalid)
}

func flip(c byte) string {
	if c == 'A' {
		return "B"
	}
	return "A"
}

func TestLoginFailures(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.register(t, "erin", "erin@x.com", "right")

	_, err := f.m.Login(ctx, LoginInput{Username: "nobody", Password: "right"})
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	_, err = f.m.Login(ctx, LoginInput{Username: "erin", Password: "wrong"})
	assert.ErrorIs(t, err, apierror.ErrInvalidCredential)

	_, err = f.m.Login(ctx, LoginInput{Password: "right"})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	_, err = f.m.Login(ctx, LoginInput{Username: "erin"})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	f.store.findErr = errBoom
	_, err = f.m.Login(ctx, LoginInput{Username: "erin", Password: "right"})
	assert.ErrorIs(t, err, apierror.ErrUpstream)
}

func TestRegister(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	avatar, cover := tempFile(t, "a.png"), tempFile(t, "c.png")
	u, err := f.m.Register(ctx, RegisterInput{
		FullName: " Alice A ", Email: "Alice@X.com", Username: " Alice ", Password: "P@ss1",
		AvatarPath: avatar, CoverImagePath: cover,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.Equal(t, "Alice A", u.FullName)
	assert.Equal(t, "https://cdn.example/a.png", u.Avatar)
	assert.Equal(t, "https://cdn.example/c.png", u.CoverImage)
	assert.Empty(t, u.PasswordHash)
	assert.NoFileExists(t, avatar)
	assert.NoFileExists(t, cover)

	stored := f.store.get(u.ID)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
	assert.NotEqual(t, "P@ss1", stored.PasswordHash)
	assert.Empty(t, stored.RefreshTokenHash)

	require.Len(t, f.pub.users, 1)
	assert.Equal(t, "alice", f.pub.users[0].Username)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "alice@x.com", "pw")

	avatar := tempFile(t, "dup.png")
	_, err := f.m.Register(ctx, RegisterInput{FullName: "A", Email: "other@x.com", Username: "ALICE", Password: "pw", AvatarPath: avatar})
	assert.ErrorIs(t, err, apierror.ErrDuplicateUser)
	assert.NoFileExists(t, avatar)
	assert.Len(t, f.up.uploaded, 1, "no upload after a duplicate is found")

	_, err = f.m.Register(ctx, RegisterInput{FullName: "A", Email: "ALICE@x.com", Username: "other", Password: "pw", AvatarPath: tempFile(t, "dup2.png")})
	assert.ErrorIs(t, err, apierror.ErrDuplicateUser)
}

func TestRegisterLosesUniquenessRace(t *testing.T) {
	f := newSessionFixture(t)
	f.store.createErr = wrapDuplicate()
	_, err := f.m.Register(context.Background(), RegisterInput{
		FullName: "A", Email: "a@x.com", Username: "a", Password: "pw", AvatarPath: tempFile(t, "a.png"),
	})
	assert.ErrorIs(t, err, apierror.ErrDuplicateUser)
	assert.Equal(t, []string{"https://cdn.example/a.png"}, f.up.deleted)
}

func TestRegisterValidation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	cover := tempFile(t, "cover.png")
	_, err := f.m.Register(ctx, RegisterInput{FullName: "A", Email: "a@x.com", Username: "a", Password: "pw", CoverImagePath: cover})
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.NoFileExists(t, cover)

	avatar := tempFile(t, "avatar.png")
	_, err = f.m.Register(ctx, RegisterInput{FullName: "  ", Email: "a@x.com", Username: "a", Password: "pw", AvatarPath: avatar})
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.NoFileExists(t, avatar)

	_, err = f.m.Register(ctx, RegisterInput{FullName: "A", Email: "a@x.com", Username: "a",
		Password: strings.Repeat("x", 73), AvatarPath: tempFile(t, "x.png")})
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.Empty(t, f.up.uploaded)
}

func TestRegisterUploadFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.up.err = errBoom
	f.up.failOn = "avatar.png"

	cover := tempFile(t, "cover.png")
	_, err := f.m.Register(context.Background(), RegisterInput{
		FullName: "A", Email: "a@x.com", Username: "a", Password: "pw",
		AvatarPath: tempFile(t, "avatar.png"), CoverImagePath: cover,
	})
	assert.ErrorIs(t, err, apierror.ErrUpstream)
	assert.NoFileExists(t, cover)
	assert.Empty(t, f.store.users)
	assert.Empty(t, f.up.deleted)
}

func TestRegisterCoverFailureRemovesAvatar(t *testing.T) {
	f := newSessionFixture(t)
	f.up.err = errBoom
	f.up.failOn = "cover.png"

	_, err := f.m.Register(context.Background(), RegisterInput{
		FullName: "A", Email: "a@x.com", Username: "a", Password: "pw",
		AvatarPath: tempFile(t, "avatar.png"), CoverImagePath: tempFile(t, "cover.png"),
	})
	assert.ErrorIs(t, err, apierror.ErrUpstream)
	assert.Equal(t, []string{"avatar.png"}, f.up.uploaded)
	assert.Equal(t, []string{"https://cdn.example/avatar.png"}, f.up.deleted)
	assert.Empty(t, f.store.users)
}

func TestRegisterSurvivesPublishFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.pub.err = errBoom
	f.register(t, "zed", "zed@x.com", "pw")
	assert.Len(t, f.pub.users, 1)
}

func TestChangePassword(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	id := f.register(t, "frank", "frank@x.com", "old")

	err := f.m.ChangePassword(ctx, id, "wrong", "new")
	assert.ErrorIs(t, err, apierror.ErrInvalidCredential)

	require.NoError(t, f.m.ChangePassword(ctx, id, "old", "new"))
	_, err = f.m.Login(ctx, LoginInput{Username: "frank", Password: "old"})
	assert.ErrorIs(t, err, apierror.ErrInvalidCredential)
	_, err = f.m.Login(ctx, LoginInput{Username: "frank", Password: "new"})
	assert.NoError(t, err)

	assert.ErrorIs(t, f.m.ChangePassword(ctx, id, "", "x"), apierror.ErrValidation)
	assert.ErrorIs(t, f.m.ChangePassword(ctx, 999, "a", "b"), apierror.ErrNotFound)
}

func TestLogoutUnknownUser(t *testing.T) {
	f := newSessionFixture(t)
	assert.ErrorIs(t, f.m.Logout(context.Background(), 42), apierror.ErrUnauthorized)
}

func TestUpdateAccount(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	id := f.register(t, "gina", "gina@x.com", "pw")
	f.register(t, "hank", "hank@x.com", "pw")

	u, err := f.m.UpdateAccount(ctx, id, " Gina G ", "GINA2@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Gina G", u.FullName)
	assert.Equal(t, "gina2@x.com", u.Email)
	assert.Empty(t, u.PasswordHash)

	_, err = f.m.UpdateAccount(ctx, id, "Gina", "hank@x.com")
	assert.ErrorIs(t, err, apierror.ErrDuplicateUser)

	_, err = f.m.UpdateAccount(ctx, id, "", "x@x.com")
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestUpdateImages(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	id := f.register(t, "ivy", "ivy@x.com", "pw")

	u, err := f.m.UpdateAvatar(ctx, id, tempFile(t, "new-avatar.png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/new-avatar.png", u.Avatar)

	u, err = f.m.UpdateCoverImage(ctx, id, tempFile(t, "new-cover.png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/new-cover.png", u.CoverImage)

	_, err = f.m.UpdateAvatar(ctx, id, "")
	assert.ErrorIs(t, err, apierror.ErrValidation)

	f.up.err = errBoom
	_, err = f.m.UpdateCoverImage(ctx, id, tempFile(t, "x.png"))
	assert.ErrorIs(t, err, apierror.ErrUpstream)
}
