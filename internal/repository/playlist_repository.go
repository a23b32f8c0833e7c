package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/vidtube/internal/model"
)

// PlaylistRepo encapsulates queries on playlists and their entries.
type PlaylistRepo struct {
	db *sql.DB
}

func NewPlaylistRepo(db *sql.DB) *PlaylistRepo { return &PlaylistRepo{db: db} }

const playlistColumns = "id, owner_id, name, description, created_at, updated_at"

func scanPlaylist(s rowScanner) (*model.Playlist, error) {
	p := model.Playlist{Videos: []model.Video{}}
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts p and fills its ID and timestamps.
func (r *PlaylistRepo) Create(ctx context.Context, p *model.Playlist) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO playlists (owner_id, name, description) VALUES (?, ?, ?)",
		p.OwnerID, p.Name, p.Description)
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
	*p = *created
	return nil
}

// GetByID returns the playlist with its videos in insertion order.
func (r *PlaylistRepo) GetByID(ctx context.Context, id uint64) (*model.Playlist, error) {
	p, err := scanPlaylist(r.db.QueryRowContext(ctx, "SELECT "+playlistColumns+" FROM playlists WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := r.attachVideos(ctx, map[uint64]*model.Playlist{p.ID: p}); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByOwner returns the playlists of ownerID with their videos, newest
// first.
func (r *PlaylistRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Playlist, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+playlistColumns+" FROM playlists WHERE owner_id = ? ORDER BY created_at DESC, id DESC", ownerID)
	if err != nil {
		return nil, err
	}
	var list []*model.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byID := make(map[uint64]*model.Playlist, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	if err := r.attachVideos(ctx, byID); err != nil {
		return nil, err
	}
	out := make([]model.Playlist, 0, len(list))
	for _, p := range list {
		out = append(out, *p)
	}
	return out, nil
}

// attachVideos loads the entries of every playlist in byID with one query.
func (r *PlaylistRepo) attachVideos(ctx context.Context, byID map[uint64]*model.Playlist) error {
	if len(byID) == 0 {
		return nil
	}
	args := make([]any, 0, len(byID))
	for id := range byID {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	q := "SELECT " + videoColumns + `, pv.playlist_id
	FROM playlist_videos pv
	JOIN videos v ON v.id = pv.video_id
	JOIN users u ON u.id = v.owner_id
	WHERE pv.playlist_id IN (` + placeholders + `)
	ORDER BY pv.added_at, v.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var pid uint64
		v, err := scanVideo(rows, &pid)
		if err != nil {
			return err
		}
		if p, ok := byID[pid]; ok {
			p.Videos = append(p.Videos, *v)
		}
	}
	return rows.Err()
}

// UpdateByIDAndOwner renames the playlist provided ownerID owns it.
func (r *PlaylistRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, name, description string) (*model.Playlist, error) {
	if err := checkOwnerOf(ctx, r.db, "playlists", id, ownerID); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE playlists SET name = ?, description = ? WHERE id = ?", name, description, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// DeleteByIDAndOwner removes the playlist provided ownerID owns it.
func (r *PlaylistRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	if err := checkOwnerOf(ctx, r.db, "playlists", id, ownerID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
	return expectOneRow(res, err)
}

// AddVideo appends videoID to the playlist.  ErrConflict when the video is
// already present; ErrNotFound when the video does not exist.
func (r *PlaylistRepo) AddVideo(ctx context.Context, playlistID, ownerID, videoID uint64) (*model.Playlist, error) {
	if err := checkOwnerOf(ctx, r.db, "playlists", playlistID, ownerID); err != nil {
		return nil, err
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO playlist_videos (playlist_id, video_id) VALUES (?, ?)", playlistID, videoID)
	switch {
	case err == nil:
	case isDuplicateKey(err):
		return nil, ErrConflict
	case isMissingReference(err):
		return nil, ErrNotFound
	default:
		return nil, err
	}
	return r.GetByID(ctx, playlistID)
}

// RemoveVideo drops videoID from the playlist.  ErrNotFound when the video
// is not in it.
func (r *PlaylistRepo) RemoveVideo(ctx context.Context, playlistID, ownerID, videoID uint64) (*model.Playlist, error) {
	if err := checkOwnerOf(ctx, r.db, "playlists", playlistID, ownerID); err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM playlist_videos WHERE playlist_id = ? AND video_id = ?", playlistID, videoID)
	if err := expectOneRow(res, err); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, playlistID)
}
