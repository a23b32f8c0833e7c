package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/vidtube/internal/model"
)

// LikeRepo encapsulates queries on likes of videos, comments and tweets.
type LikeRepo struct {
	db *sql.DB
}

func NewLikeRepo(db *sql.DB) *LikeRepo { return &LikeRepo{db: db} }

// likeColumns maps a like target to its foreign key column.
var likeColumns = map[model.LikeTarget]string{
	model.LikeVideo:   "video_id",
	model.LikeComment: "comment_id",
	model.LikeTweet:   "tweet_id",
}

// Toggle removes the like of userID on the target if present, and creates it
// otherwise.  liked reports the resulting state; like is nil when the like
// was removed.  A missing target yields ErrNotFound.
func (r *LikeRepo) Toggle(ctx context.Context, userID uint64, target model.LikeTarget, targetID uint64) (like *model.Like, liked bool, err error) {
	col, ok := likeColumns[target]
	if !ok {
		return nil, false, fmt.Errorf("unknown like target %q", target)
	}
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM likes WHERE liked_by = ? AND "+col+" = ?", userID, targetID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		res, err = tx.ExecContext(ctx, "INSERT INTO likes (liked_by, "+col+") VALUES (?, ?)", userID, targetID)
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
		l := &model.Like{ID: uint64(id), LikedBy: userID}
		if err := tx.QueryRowContext(ctx, "SELECT created_at FROM likes WHERE id = ?", l.ID).Scan(&l.CreatedAt); err != nil {
			return err
		}
		tid := targetID
		switch target {
		case model.LikeVideo:
			l.VideoID = &tid
		case model.LikeComment:
			l.CommentID = &tid
		case model.LikeTweet:
			l.TweetID = &tid
		}
		like, liked = l, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return like, liked, nil
}

// LikedVideos returns the published videos userID has liked, most recent
// like first.
func (r *LikeRepo) LikedVideos(ctx context.Context, userID uint64) ([]model.LikedVideo, error) {
	const q = "SELECT " + videoColumns + `, l.created_at
	FROM likes l
	JOIN videos v ON v.id = l.video_id
	JOIN users u ON u.id = v.owner_id
	WHERE l.liked_by = ? AND (v.is_published = TRUE OR v.owner_id = ?)
	ORDER BY l.created_at DESC, l.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.LikedVideo{}
	for rows.Next() {
		var lv model.LikedVideo
		v, err := scanVideo(rows, &lv.LikedAt)
		if err != nil {
			return nil, err
		}
		lv.Video = *v
		out = append(out, lv)
	}
	return out, rows.Err()
}
