package model

import "time"

// Comment mirrors the `comments` table.
type Comment struct {
	ID        uint64       `json:"id"`
	VideoID   uint64       `json:"videoId"`
	OwnerID   uint64       `json:"ownerId"`
	Content   string       `json:"content"`
	Owner     *UserSummary `json:"owner,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Tweet mirrors the `tweets` table.
type Tweet struct {
	ID        uint64    `json:"id"`
	OwnerID   uint64    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikeTarget names the kind of resource a like points at.
type LikeTarget string

const (
	LikeVideo   LikeTarget = "video"
	LikeComment LikeTarget = "comment"
	LikeTweet   LikeTarget = "tweet"
)

// Like mirrors the `likes` table.  Exactly one of VideoID, CommentID and
// TweetID is non-nil.
type Like struct {
	ID        uint64    `json:"id"`
	LikedBy   uint64    `json:"likedBy"`
	VideoID   *uint64   `json:"videoId,omitempty"`
	CommentID *uint64   `json:"commentId,omitempty"`
	TweetID   *uint64   `json:"tweetId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikedVideo is a liked video together with the time of the like.
type LikedVideo struct {
	Video   Video     `json:"video"`
	LikedAt time.Time `json:"likedAt"`
}

// Subscription mirrors the `subscriptions` table.  Subscriber and Channel
// are filled by the listing queries.
type Subscription struct {
	ID           uint64       `json:"id"`
	SubscriberID uint64       `json:"subscriberId"`
	ChannelID    uint64       `json:"channelId"`
	Subscriber   *UserSummary `json:"subscriber,omitempty"`
	Channel      *UserSummary `json:"channel,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Playlist mirrors the `playlists` table; Videos is populated from
// `playlist_videos` when the playlist is loaded with its contents.
type Playlist struct {
	ID          uint64    `json:"id"`
	OwnerID     uint64    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Videos      []Video   `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
