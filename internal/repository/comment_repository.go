package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/vidtube/internal/model"
)

// CommentRepo encapsulates queries on video comments.
type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

const commentSelect = `SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
	u.id, u.username, u.full_name, u.avatar
	FROM comments c JOIN users u ON u.id = c.owner_id`

func scanComment(s rowScanner) (*model.Comment, error) {
	var c model.Comment
	var o model.UserSummary
	if err := s.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
		&o.ID, &o.Username, &o.FullName, &o.Avatar); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Owner = &o
	return &c, nil
}

// ListByVideo returns one page of the comments on videoID, newest first.
// A video without comments yields an empty slice.
func (r *CommentRepo) ListByVideo(ctx context.Context, videoID uint64, limit, offset int) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		commentSelect+" WHERE c.video_id = ? ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?",
		videoID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Create inserts c.  A missing video yields ErrNotFound.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (video_id, owner_id, content) VALUES (?, ?, ?)",
		c.VideoID, c.OwnerID, c.Content)
	if err != nil {
		if isMissingReference(err) {
			return ErrNotFound
		}
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
	*c = *created
	return nil
}

// GetByID returns the comment with its author or ErrNotFound.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (*model.Comment, error) {
	return scanComment(r.db.QueryRowContext(ctx, commentSelect+" WHERE c.id = ?", id))
}

// UpdateByIDAndOwner replaces the content provided ownerID wrote the comment.
func (r *CommentRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, content string) (*model.Comment, error) {
	if err := checkOwnerOf(ctx, r.db, "comments", id, ownerID); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE comments SET content = ? WHERE id = ?", content, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// DeleteByIDAndOwner removes the comment provided ownerID wrote it.
func (r *CommentRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	if err := checkOwnerOf(ctx, r.db, "comments", id, ownerID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	return expectOneRow(res, err)
}
