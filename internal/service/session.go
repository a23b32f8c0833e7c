package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/auth"
	"github.com/iliyamo/vidtube/internal/media"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/queue"
	"github.com/iliyamo/vidtube/internal/repository"
)

// CredentialStore persists users.  Lookups return repository.ErrNotFound
// when no user matches; Create returns repository.ErrDuplicate when the
// username or email is taken.
type CredentialStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	UpdateRefreshToken(ctx context.Context, id uint64, hash string) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	UpdateAccount(ctx context.Context, id uint64, fullName, email string) (*model.User, error)
	UpdateAvatar(ctx context.Context, id uint64, url string) (*model.User, error)
	UpdateCoverImage(ctx context.Context, id uint64, url string) (*model.User, error)
}

// RegisterInput carries a sign-up request.  AvatarPath and CoverImagePath
// are local temp files; the manager owns them and removes them.
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput identifies the user by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Session is the outcome of a successful login.
type Session struct {
	User   model.User     `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// SessionManager drives the account lifecycle:
//
//	anonymous -> registered -> logged in -> (refreshed)* -> logged out
//
// At most one refresh token per user is redeemable at any time.  Its
// SHA-256 digest lives on the user row; login and refresh overwrite it,
// logout clears it.  Presenting any other refresh token fails with
// TokenReused.
type SessionManager struct {
	store    CredentialStore
	hasher   *auth.Hasher
	issuer   *auth.Issuer
	uploader media.Uploader
	events   queue.Publisher
	logger   *slog.Logger
}

func NewSessionManager(store CredentialStore, hasher *auth.Hasher, issuer *auth.Issuer,
	uploader media.Uploader, events queue.Publisher, logger *slog.Logger) *SessionManager {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &SessionManager{
		store:    store,
		hasher:   hasher,
		issuer:   issuer,
		uploader: uploader,
		events:   events,
		logger:   logger,
	}
}

func removeTemp(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}

// Register creates an account.  The avatar is required and uploaded before
// the row is written; the cover image is optional.
func (m *SessionManager) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))

	if in.FullName == "" || in.Email == "" || in.Username == "" || strings.TrimSpace(in.Password) == "" {
		removeTemp(in.AvatarPath, in.CoverImagePath)
		return nil, apierror.Validation("all fields are required")
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		removeTemp(in.AvatarPath, in.CoverImagePath)
		return nil, apierror.Validation("password must be at most 72 bytes")
	}
	if in.AvatarPath == "" {
		removeTemp(in.CoverImagePath)
		return nil, apierror.Validation("avatar file is required")
	}

	if _, err := m.store.FindByUsernameOrEmail(ctx, in.Username, in.Email); err == nil {
		removeTemp(in.AvatarPath, in.CoverImagePath)
		return nil, apierror.ErrDuplicateUser
	} else if !errors.Is(err, repository.ErrNotFound) {
		removeTemp(in.AvatarPath, in.CoverImagePath)
		return nil, storeErr(err, "user")
	}

	avatarURL, err := m.uploader.Upload(ctx, in.AvatarPath)
	if err != nil {
		removeTemp(in.CoverImagePath)
		return nil, uploadErr(err, "avatar")
	}
	var coverURL string
	if in.CoverImagePath != "" {
		if coverURL, err = m.uploader.Upload(ctx, in.CoverImagePath); err != nil {
			discardUploads(ctx, m.uploader, m.logger, avatarURL)
			return nil, uploadErr(err, "cover image")
		}
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		discardUploads(ctx, m.uploader, m.logger, avatarURL, coverURL)
		return nil, apierror.Wrap(apierror.KindInternal, "failed to hash password", err)
	}
	u := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		PasswordHash: hash,
	}
	if err := m.store.Create(ctx, u); err != nil {
		discardUploads(ctx, m.uploader, m.logger, avatarURL, coverURL)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.ErrDuplicateUser
		}
		return nil, storeErr(err, "user")
	}

	m.logger.Info("user registered", "user_id", u.ID, "username", u.Username)
	if err := m.events.PublishUserRegistered(ctx, queue.UserRegisteredEvent{
		UserID:       u.ID,
		Username:     u.Username,
		Email:        u.Email,
		RegisteredAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		m.logger.Warn("publish user.registered failed", "user_id", u.ID, "err", err)
	}

	out := u.Sanitized()
	return &out, nil
}

// Login verifies credentials and starts a new session, replacing any
// refresh token issued earlier.  An unknown user yields NotFound and a wrong
// password InvalidCredential; both cost one bcrypt comparison.
func (m *SessionManager) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if strings.TrimSpace(in.Username) == "" && strings.TrimSpace(in.Email) == "" {
		return nil, apierror.Validation("username or email is required")
	}
	if in.Password == "" {
		return nil, apierror.Validation("password is required")
	}

	u, err := m.store.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.hasher.VerifyDummy(in.Password)
			return nil, apierror.New(apierror.KindNotFound, "user does not exist")
		}
		return nil, storeErr(err, "user")
	}
	if !m.hasher.Verify(in.Password, u.PasswordHash) {
		return nil, apierror.ErrInvalidCredential
	}

	pair, err := m.rotate(ctx, u)
	if err != nil {
		return nil, err
	}
	m.logger.Info("user logged in", "user_id", u.ID)
	return &Session{User: u.Sanitized(), Tokens: pair}, nil
}

// rotate issues a new pair for u and records its refresh token as the only
// redeemable one.
func (m *SessionManager) rotate(ctx context.Context, u *model.User) (auth.TokenPair, error) {
	pair, err := m.issuer.IssuePair(u)
	if err != nil {
		return auth.TokenPair{}, apierror.Wrap(apierror.KindInternal, "failed to issue tokens", err)
	}
	if err := m.store.UpdateRefreshToken(ctx, u.ID, auth.HashRefreshToken(pair.RefreshToken)); err != nil {
		return auth.TokenPair{}, storeErr(err, "user")
	}
	return pair, nil
}

// Logout clears the stored refresh token.  Access tokens already issued stay
// valid until they expire.
func (m *SessionManager) Logout(ctx context.Context, userID uint64) error {
	if err := m.store.UpdateRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.ErrUnauthorized
		}
		return storeErr(err, "user")
	}
	m.logger.Info("user logged out", "user_id", userID)
	return nil
}

// Refresh exchanges a refresh token for a new pair.  The presented token
// must be the one most recently issued to its subject; a superseded or
// logged-out token fails with TokenReused.
func (m *SessionManager) Refresh(ctx context.Context, raw string) (*auth.TokenPair, error) {
	if raw == "" {
		return nil, apierror.ErrUnauthorized
	}
	claims, err := m.issuer.VerifyRefresh(raw)
	if err != nil {
		return nil, err
	}
	id, err := auth.SubjectID(claims)
	if err != nil {
		return nil, err
	}
	u, err := m.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.ErrTokenInvalid
		}
		return nil, storeErr(err, "user")
	}
	if !auth.RefreshTokenMatches(raw, u.RefreshTokenHash) {
		m.logger.Warn("refresh token reuse detected", "user_id", u.ID)
		return nil, apierror.ErrTokenReused
	}

	pair, err := m.rotate(ctx, u)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// ChangePassword replaces the password after verifying the current one.
func (m *SessionManager) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return apierror.Validation("old and new password are required")
	}
	if len(newPassword) > auth.MaxPasswordBytes {
		return apierror.Validation("password must be at most 72 bytes")
	}
	u, err := m.store.FindByID(ctx, userID)
	if err != nil {
		return storeErr(err, "user")
	}
	if !m.hasher.Verify(oldPassword, u.PasswordHash) {
		return apierror.New(apierror.KindInvalidCredential, "invalid old password")
	}
	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return apierror.Wrap(apierror.KindInternal, "failed to hash password", err)
	}
	if err := m.store.UpdatePassword(ctx, userID, hash); err != nil {
		return storeErr(err, "user")
	}
	m.logger.Info("password changed", "user_id", userID)
	return nil
}

// UpdateAccount changes the full name and email of the user.
func (m *SessionManager) UpdateAccount(ctx context.Context, userID uint64, fullName, email string) (*model.User, error) {
	fullName, email = strings.TrimSpace(fullName), strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, apierror.Validation("fullName and email are required")
	}
	u, err := m.store.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.New(apierror.KindDuplicateUser, "email is already in use")
		}
		return nil, storeErr(err, "user")
	}
	out := u.Sanitized()
	return &out, nil
}

// UpdateAvatar uploads localPath and stores it as the user's avatar.
func (m *SessionManager) UpdateAvatar(ctx context.Context, userID uint64, localPath string) (*model.User, error) {
	return m.updateImage(ctx, localPath, "avatar", func(url string) (*model.User, error) {
		return m.store.UpdateAvatar(ctx, userID, url)
	})
}

// UpdateCoverImage uploads localPath and stores it as the user's cover image.
func (m *SessionManager) UpdateCoverImage(ctx context.Context, userID uint64, localPath string) (*model.User, error) {
	return m.updateImage(ctx, localPath, "cover image", func(url string) (*model.User, error) {
		return m.store.UpdateCoverImage(ctx, userID, url)
	})
}

func (m *SessionManager) updateImage(ctx context.Context, localPath, what string, save func(url string) (*model.User, error)) (*model.User, error) {
	if localPath == "" {
		return nil, apierror.Validation(what + " file is missing")
	}
	url, err := m.uploader.Upload(ctx, localPath)
	if err != nil {
		return nil, uploadErr(err, what)
	}
	u, err := save(url)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	out := u.Sanitized()
	return &out, nil
}
