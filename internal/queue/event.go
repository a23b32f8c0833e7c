// Package queue defines the domain events exchanged over RabbitMQ, the
// publisher used by request handlers and the background activity consumer.
package queue

// Queue names.  Each event type has its own durable queue and is routed
// through the default exchange.
const (
	UserRegisteredQueue = "user.registered"
	VideoPublishedQueue = "video.published"
)

// UserRegisteredEvent is published after a user account is created.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	RegisteredAt string `json:"registered_at"`
}

// VideoPublishedEvent is published after a video is uploaded.  Downstream
// consumers use it for activity feeds without querying the database.
type VideoPublishedEvent struct {
	VideoID     uint64  `json:"video_id"`
	OwnerID     uint64  `json:"owner_id"`
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	IsPublished bool    `json:"is_published"`
	PublishedAt string  `json:"published_at"`
}
