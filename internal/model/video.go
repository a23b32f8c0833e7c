package model

import (
	"math"
	"time"
)

// Video mirrors the `videos` table.  VideoFile and Thumbnail are durable URLs
// returned by the media host.
type Video struct {
	ID          uint64       `json:"id"`
	OwnerID     uint64       `json:"ownerId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	VideoFile   string       `json:"videoFile"`
	Thumbnail   string       `json:"thumbnail"`
	Duration    float64      `json:"duration"`
	Views       uint64       `json:"views"`
	IsPublished bool         `json:"isPublished"`
	Owner       *UserSummary `json:"owner,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// WatchHistoryEntry is one video in a user's watch history.
type WatchHistoryEntry struct {
	Video     Video     `json:"video"`
	WatchedAt time.Time `json:"watchedAt"`
}

// VideoListQuery carries the filters of the paginated video listing.
type VideoListQuery struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortDesc bool
	OwnerID  uint64 // zero lists every channel
	ViewerID uint64 // unpublished videos are visible to their owner only
}

// PageInRange reports whether page and limit are positive and the row offset
// (page-1)*limit fits in an int.
func PageInRange(page, limit int) bool {
	return page >= 1 && limit >= 1 && page-1 <= math.MaxInt/limit
}

// PageOffset converts a page number into a row offset.  Callers check
// PageInRange first; out of range input yields 0.
func PageOffset(page, limit int) int {
	if !PageInRange(page, limit) {
		return 0
	}
	return (page - 1) * limit
}

// Offset converts Page/Limit into a row offset.
func (q VideoListQuery) Offset() int { return PageOffset(q.Page, q.Limit) }
