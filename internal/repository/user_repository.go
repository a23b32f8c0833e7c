package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/vidtube/internal/model"
)

// UserRepo persists users in MySQL.  It satisfies the credential store the
// session manager depends on, plus the profile reads used by the user
// handlers.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the provided DB handle.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, username, email, full_name, avatar, cover_image,
	password_hash, COALESCE(refresh_token_hash, ''), created_at, updated_at`

func scanUser(s rowScanner) (*model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Avatar, &u.CoverImage,
		&u.PasswordHash, &u.RefreshTokenHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func normalizeIdent(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Create inserts u and fills its ID and timestamps.  Username and email are
// normalized before insert.  A unique key violation yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Username = normalizeIdent(u.Username)
	u.Email = normalizeIdent(u.Email)
	const q = `INSERT INTO users (username, email, full_name, avatar, cover_image, password_hash)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, u.Username, u.Email, u.FullName, u.Avatar, u.CoverImage, u.PasswordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)

	// Follow-up read for the DB-assigned timestamps.
	const qSelect = "SELECT created_at, updated_at FROM users WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, u.ID).Scan(&u.CreatedAt, &u.UpdatedAt)
}

// FindByUsernameOrEmail returns the user whose username equals username or
// whose email equals email.  Empty arguments never match.
func (r *UserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	username, email = normalizeIdent(username), normalizeIdent(email)
	if username == "" && email == "" {
		return nil, ErrNotFound
	}
	q := "SELECT " + userColumns + " FROM users WHERE (username = ? AND ? <> '') OR (email = ? AND ? <> '') LIMIT 1"
	return scanUser(r.db.QueryRowContext(ctx, q, username, username, email, email))
}

// FindByID returns the user with the given id or ErrNotFound.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// FindByUsername returns the user with the given username or ErrNotFound.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE username = ?"
	return scanUser(r.db.QueryRowContext(ctx, q, normalizeIdent(username)))
}

// Exists reports whether a user with the given id exists.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	return rowExists(ctx, r.db, "SELECT 1 FROM users WHERE id = ?", id)
}

// UpdateRefreshToken overwrites the stored refresh token digest.  An empty
// hash clears it (stored as NULL).
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, id uint64, hash string) error {
	var v any
	if hash != "" {
		v = hash
	}
	res, err := r.db.ExecContext(ctx, "UPDATE users SET refresh_token_hash = ? WHERE id = ?", v, id)
	return expectOneRow(res, err)
}

// UpdatePassword replaces the password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	return expectOneRow(res, err)
}

// UpdateAccount changes the full name and email and returns the updated
// row.  An email already used by another account yields ErrDuplicate.
func (r *UserRepo) UpdateAccount(ctx context.Context, id uint64, fullName, email string) (*model.User, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET full_name = ?, email = ? WHERE id = ?",
		strings.TrimSpace(fullName), normalizeIdent(email), id)
	if err != nil && isDuplicateKey(err) {
		return nil, ErrDuplicate
	}
	if err := expectOneRow(res, err); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// UpdateAvatar stores a new avatar URL and returns the updated row.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uint64, url string) (*model.User, error) {
	return r.updateImage(ctx, "avatar", id, url)
}

// UpdateCoverImage stores a new cover image URL and returns the updated row.
func (r *UserRepo) UpdateCoverImage(ctx context.Context, id uint64, url string) (*model.User, error) {
	return r.updateImage(ctx, "cover_image", id, url)
}

// column is one of two constants, never caller input
func (r *UserRepo) updateImage(ctx context.Context, column string, id uint64, url string) (*model.User, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET "+column+" = ? WHERE id = ?", url, id)
	if err := expectOneRow(res, err); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// ChannelProfile loads the public channel page of username as seen by
// viewerID, with subscriber counts and whether the viewer is subscribed.
func (r *UserRepo) ChannelProfile(ctx context.Context, username string, viewerID uint64) (*model.ChannelProfile, error) {
	const q = `SELECT u.id, u.username, u.email, u.full_name, u.avatar, u.cover_image, u.created_at,
		(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
		(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
		EXISTS(SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?)
		FROM users u WHERE u.username = ?`
	var p model.ChannelProfile
	err := r.db.QueryRowContext(ctx, q, viewerID, normalizeIdent(username)).Scan(
		&p.ID, &p.Username, &p.Email, &p.FullName, &p.Avatar, &p.CoverImage, &p.CreatedAt,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
