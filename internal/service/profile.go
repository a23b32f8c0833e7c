package service

import (
	"context"
	"strings"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/model"
)

// ChannelReader loads public channel pages.
type ChannelReader interface {
	ChannelProfile(ctx context.Context, username string, viewerID uint64) (*model.ChannelProfile, error)
}

// HistoryReader loads a user's watch history.
type HistoryReader interface {
	WatchHistory(ctx context.Context, userID uint64) ([]model.WatchHistoryEntry, error)
}

// ProfileService serves the read-only user pages.
type ProfileService struct {
	channels ChannelReader
	history  HistoryReader
}

func NewProfileService(channels ChannelReader, history HistoryReader) *ProfileService {
	return &ProfileService{channels: channels, history: history}
}

// Channel returns the channel page of username as seen by viewerID.
func (s *ProfileService) Channel(ctx context.Context, username string, viewerID uint64) (*model.ChannelProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apierror.Validation("username is missing")
	}
	p, err := s.channels.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		return nil, storeErr(err, "channel")
	}
	return p, nil
}

// WatchHistory returns the videos userID watched, most recent first.
func (s *ProfileService) WatchHistory(ctx context.Context, userID uint64) ([]model.WatchHistoryEntry, error) {
	out, err := s.history.WatchHistory(ctx, userID)
	return out, storeErr(err, "user")
}
