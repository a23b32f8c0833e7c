package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/vidtube/internal/model"
)

// TweetRepo encapsulates queries on channel tweets.
type TweetRepo struct {
	db *sql.DB
}

func NewTweetRepo(db *sql.DB) *TweetRepo { return &TweetRepo{db: db} }

const tweetColumns = "id, owner_id, content, created_at, updated_at"

func scanTweet(s rowScanner) (*model.Tweet, error) {
	var t model.Tweet
	if err := s.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TweetRepo) Create(ctx context.Context, t *model.Tweet) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO tweets (owner_id, content) VALUES (?, ?)", t.OwnerID, t.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*t = *created
	return nil
}

func (r *TweetRepo) GetByID(ctx context.Context, id uint64) (*model.Tweet, error) {
	return scanTweet(r.db.QueryRowContext(ctx, "SELECT "+tweetColumns+" FROM tweets WHERE id = ?", id))
}

// ListByOwner returns the tweets of ownerID, newest first.
func (r *TweetRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Tweet, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+tweetColumns+" FROM tweets WHERE owner_id = ? ORDER BY created_at DESC, id DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Tweet{}
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TweetRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, content string) (*model.Tweet, error) {
	if err := checkOwnerOf(ctx, r.db, "tweets", id, ownerID); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE tweets SET content = ? WHERE id = ?", content, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *TweetRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	if err := checkOwnerOf(ctx, r.db, "tweets", id, ownerID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM tweets WHERE id = ?", id)
	return expectOneRow(res, err)
}
