package model

import "time"

// User mirrors a row of the `users` table.  Username and Email are stored
// trimmed and lower-cased.  PasswordHash and RefreshTokenHash never leave the
// server: both carry `json:"-"` and Sanitized clears them so that a user
// attached to a request context holds no secret material.
//
// RefreshTokenHash is the SHA-256 hex digest of the single refresh token the
// user may currently redeem; empty means no session (never logged in or
// logged out).
type User struct {
	ID               uint64    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FullName         string    `json:"fullName"`
	Avatar           string    `json:"avatar"`
	CoverImage       string    `json:"coverImage"`
	PasswordHash     string    `json:"-"`
	RefreshTokenHash string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Sanitized returns a copy of u without the password hash and refresh token.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshTokenHash = ""
	return u
}

// UserSummary is the public slice of a user embedded in other resources
// (video owner, comment author, subscriber lists).
type UserSummary struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// ChannelProfile is a user's public channel page as seen by a viewer.
type ChannelProfile struct {
	ID                        uint64    `json:"id"`
	Username                  string    `json:"username"`
	Email                     string    `json:"email"`
	FullName                  string    `json:"fullName"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
	CreatedAt                 time.Time `json:"createdAt"`
}
