package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/vidtube/internal/model"
)

// VideoRepo encapsulates queries on videos and the watch history.
type VideoRepo struct {
	db *sql.DB
}

// NewVideoRepo constructs a VideoRepo with the provided DB handle.
func NewVideoRepo(db *sql.DB) *VideoRepo { return &VideoRepo{db: db} }

// videoColumns selects a video (alias v) and its owner summary (alias u).
const videoColumns = `v.id, v.owner_id, v.title, v.description, v.video_file, v.thumbnail,
	v.duration, v.views, v.is_published, v.created_at, v.updated_at,
	u.id, u.username, u.full_name, u.avatar`

const videoSelect = "SELECT " + videoColumns + " FROM videos v JOIN users u ON u.id = v.owner_id"

// extra receives trailing columns appended after the video columns.
func scanVideo(s rowScanner, extra ...any) (*model.Video, error) {
	var v model.Video
	var o model.UserSummary
	dest := []any{&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoFile, &v.Thumbnail,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
		&o.ID, &o.Username, &o.FullName, &o.Avatar}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.Owner = &o
	return &v, nil
}

// sortColumns whitelists the sortBy values accepted by List.
var sortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"title":     "v.title",
	"duration":  "v.duration",
}

// SortColumnAllowed reports whether sortBy is accepted by List.
func SortColumnAllowed(sortBy string) bool {
	_, ok := sortColumns[sortBy]
	return ok
}

// List returns one page of videos matching q together with the total number
// of matching rows.  Unpublished videos are only included for their owner.
func (r *VideoRepo) List(ctx context.Context, q model.VideoListQuery) ([]model.Video, int64, error) {
	where := []string{"(v.is_published = TRUE OR v.owner_id = ?)"}
	args := []any{q.ViewerID}

	if s := strings.TrimSpace(q.Query); s != "" {
		where = append(where, `LOWER(v.title) LIKE ? ESCAPE '\\'`)
		args = append(args, "%"+likeEscape(strings.ToLower(s))+"%")
	}
	if q.OwnerID != 0 {
		where = append(where, "v.owner_id = ?")
		args = append(args, q.OwnerID)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := "SELECT COUNT(*) FROM videos v WHERE " + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = sortColumns["createdAt"]
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	dataSQL := videoSelect + " WHERE " + cond + " ORDER BY " + col + " " + dir + ", v.id " + dir + " LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, dataSQL, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create inserts v and fills its ID, timestamps and owner summary.
func (r *VideoRepo) Create(ctx context.Context, v *model.Video) error {
	const q = `INSERT INTO videos (owner_id, title, description, video_file, thumbnail, duration, is_published)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.OwnerID, v.Title, v.Description, v.VideoFile, v.Thumbnail, v.Duration, v.IsPublished)
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
	*v = *created
	return nil
}

// GetByID returns the video with its owner summary or ErrNotFound.
func (r *VideoRepo) GetByID(ctx context.Context, id uint64) (*model.Video, error) {
	return scanVideo(r.db.QueryRowContext(ctx, videoSelect+" WHERE v.id = ?", id))
}

// VisibleTo reports whether the video exists and viewerID may see it:
// it is published or viewerID owns it.
func (r *VideoRepo) VisibleTo(ctx context.Context, id, viewerID uint64) (bool, error) {
	return rowExists(ctx, r.db, "SELECT 1 FROM videos WHERE id = ? AND (is_published = TRUE OR owner_id = ?)", id, viewerID)
}

// UpdateByIDAndOwner changes title and description, and the thumbnail when
// non-empty, provided ownerID owns the video.
func (r *VideoRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, title, description, thumbnail string) (*model.Video, error) {
	if err := checkOwnerOf(ctx, r.db, "videos", id, ownerID); err != nil {
		return nil, err
	}
	const q = `UPDATE videos
	           SET title = ?, description = ?, thumbnail = COALESCE(NULLIF(?, ''), thumbnail)
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, title, description, thumbnail, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// DeleteByIDAndOwner removes the video provided ownerID owns it.  Comments,
// likes, playlist entries and history rows go with it through the foreign
// key cascades.
func (r *VideoRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	if err := checkOwnerOf(ctx, r.db, "videos", id, ownerID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
	return expectOneRow(res, err)
}

// TogglePublish flips is_published provided ownerID owns the video.
func (r *VideoRepo) TogglePublish(ctx context.Context, id, ownerID uint64) (*model.Video, error) {
	if err := checkOwnerOf(ctx, r.db, "videos", id, ownerID); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE videos SET is_published = NOT is_published WHERE id = ?", id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// RecordView increments the view counter and moves the video to the top of
// the viewer's watch history in one transaction.
func (r *VideoRepo) RecordView(ctx context.Context, videoID, viewerID uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE videos SET views = views + 1 WHERE id = ?", videoID)
		if err := expectOneRow(res, err); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO watch_history (user_id, video_id) VALUES (?, ?)
			 ON DUPLICATE KEY UPDATE watched_at = CURRENT_TIMESTAMP`, viewerID, videoID)
		return err
	})
}

// WatchHistory returns the videos userID has watched, most recent first.
// Videos unpublished since they were watched are left out unless userID
// owns them.
func (r *VideoRepo) WatchHistory(ctx context.Context, userID uint64) ([]model.WatchHistoryEntry, error) {
	const q = "SELECT " + videoColumns + `, wh.watched_at
	FROM watch_history wh
	JOIN videos v ON v.id = wh.video_id
	JOIN users u ON u.id = v.owner_id
	WHERE wh.user_id = ? AND (v.is_published = TRUE OR v.owner_id = wh.user_id)
	ORDER BY wh.watched_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WatchHistoryEntry{}
	for rows.Next() {
		var e model.WatchHistoryEntry
		v, err := scanVideo(rows, &e.WatchedAt)
		if err != nil {
			return nil, err
		}
		e.Video = *v
		out = append(out, e)
	}
	return out, rows.Err()
}
