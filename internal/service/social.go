package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/repository"
)

// CommentStore is the persistence needed by CommentService.
type CommentStore interface {
	ListByVideo(ctx context.Context, videoID uint64, limit, offset int) ([]model.Comment, error)
	Create(ctx context.Context, c *model.Comment) error
	UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, content string) (*model.Comment, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
}

// VideoChecker answers whether a video exists and is visible to a viewer:
// published, or owned by the viewer.
type VideoChecker interface {
	VisibleTo(ctx context.Context, id, viewerID uint64) (bool, error)
}

// CommentService manages comments on videos.
type CommentService struct {
	comments CommentStore
	videos   VideoChecker
}

func NewCommentService(comments CommentStore, videos VideoChecker) *CommentService {
	return &CommentService{comments: comments, videos: videos}
}

// List returns one page of comments on videoID, newest first.
func (s *CommentService) List(ctx context.Context, videoID, viewerID uint64, page, limit int) ([]model.Comment, error) {
	if !model.PageInRange(page, limit) {
		return nil, apierror.Validation("page is out of range")
	}
	if err := mustSee(ctx, s.videos, videoID, viewerID); err != nil {
		return nil, err
	}
	out, err := s.comments.ListByVideo(ctx, videoID, limit, model.PageOffset(page, limit))
	return out, storeErr(err, "comment")
}

func (s *CommentService) Add(ctx context.Context, videoID, ownerID uint64, content string) (*model.Comment, error) {
	content, err := requireContent(content)
	if err != nil {
		return nil, err
	}
	if err := mustSee(ctx, s.videos, videoID, ownerID); err != nil {
		return nil, err
	}
	c := &model.Comment{VideoID: videoID, OwnerID: ownerID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, storeErr(err, "video")
	}
	return c, nil
}

func (s *CommentService) Update(ctx context.Context, id, ownerID uint64, content string) (*model.Comment, error) {
	content, err := requireContent(content)
	if err != nil {
		return nil, err
	}
	c, err := s.comments.UpdateByIDAndOwner(ctx, id, ownerID, content)
	return c, storeErr(err, "comment")
}

func (s *CommentService) Delete(ctx context.Context, id, ownerID uint64) error {
	return storeErr(s.comments.DeleteByIDAndOwner(ctx, id, ownerID), "comment")
}

// TweetStore is the persistence needed by TweetService.
type TweetStore interface {
	Create(ctx context.Context, t *model.Tweet) error
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Tweet, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, content string) (*model.Tweet, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
}

// TweetService manages short text posts.
type TweetService struct {
	tweets TweetStore
	users  UserChecker
}

func NewTweetService(tweets TweetStore, users UserChecker) *TweetService {
	return &TweetService{tweets: tweets, users: users}
}

func (s *TweetService) Create(ctx context.Context, ownerID uint64, content string) (*model.Tweet, error) {
	content, err := requireContent(content)
	if err != nil {
		return nil, err
	}
	t := &model.Tweet{OwnerID: ownerID, Content: content}
	if err := s.tweets.Create(ctx, t); err != nil {
		return nil, storeErr(err, "user")
	}
	return t, nil
}

// ListByUser returns the tweets of userID, newest first.
func (s *TweetService) ListByUser(ctx context.Context, userID uint64) ([]model.Tweet, error) {
	if err := mustExist(ctx, s.users, userID, "user"); err != nil {
		return nil, err
	}
	out, err := s.tweets.ListByOwner(ctx, userID)
	return out, storeErr(err, "tweet")
}

func (s *TweetService) Update(ctx context.Context, id, ownerID uint64, content string) (*model.Tweet, error) {
	content, err := requireContent(content)
	if err != nil {
		return nil, err
	}
	t, err := s.tweets.UpdateByIDAndOwner(ctx, id, ownerID, content)
	return t, storeErr(err, "tweet")
}

func (s *TweetService) Delete(ctx context.Context, id, ownerID uint64) error {
	return storeErr(s.tweets.DeleteByIDAndOwner(ctx, id, ownerID), "tweet")
}

// LikeStore is the persistence needed by LikeService.
type LikeStore interface {
	Toggle(ctx context.Context, userID uint64, target model.LikeTarget, targetID uint64) (*model.Like, bool, error)
	LikedVideos(ctx context.Context, userID uint64) ([]model.LikedVideo, error)
}

// LikeService toggles likes on videos, comments and tweets.
type LikeService struct {
	likes  LikeStore
	videos VideoChecker
}

func NewLikeService(likes LikeStore, videos VideoChecker) *LikeService {
	return &LikeService{likes: likes, videos: videos}
}

// Toggle likes the target, or removes the existing like.  liked reports the
// resulting state.  Unpublished videos can only be liked by their owner.
func (s *LikeService) Toggle(ctx context.Context, userID uint64, target model.LikeTarget, targetID uint64) (*model.Like, bool, error) {
	if target == model.LikeVideo {
		if err := mustSee(ctx, s.videos, targetID, userID); err != nil {
			return nil, false, err
		}
	}
	like, liked, err := s.likes.Toggle(ctx, userID, target, targetID)
	if err != nil {
		return nil, false, storeErr(err, string(target))
	}
	return like, liked, nil
}

func (s *LikeService) LikedVideos(ctx context.Context, userID uint64) ([]model.LikedVideo, error) {
	out, err := s.likes.LikedVideos(ctx, userID)
	return out, storeErr(err, "video")
}

// SubscriptionStore is the persistence needed by SubscriptionService.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID uint64) (*model.Subscription, bool, error)
	Subscribers(ctx context.Context, channelID uint64) ([]model.Subscription, error)
	Channels(ctx context.Context, subscriberID uint64) ([]model.Subscription, error)
}

// SubscriptionService manages channel subscriptions.
type SubscriptionService struct {
	subs  SubscriptionStore
	users UserChecker
}

func NewSubscriptionService(subs SubscriptionStore, users UserChecker) *SubscriptionService {
	return &SubscriptionService{subs: subs, users: users}
}

// Toggle subscribes subscriberID to channelID, or unsubscribes when already
// subscribed.  Users cannot subscribe to themselves.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID, channelID uint64) (*model.Subscription, bool, error) {
	if subscriberID == channelID {
		return nil, false, apierror.Validation("you cannot subscribe to your own channel")
	}
	sub, subscribed, err := s.subs.Toggle(ctx, subscriberID, channelID)
	if err != nil {
		return nil, false, storeErr(err, "channel")
	}
	return sub, subscribed, nil
}

func (s *SubscriptionService) Subscribers(ctx context.Context, channelID uint64) ([]model.Subscription, error) {
	if err := mustExist(ctx, s.users, channelID, "channel"); err != nil {
		return nil, err
	}
	out, err := s.subs.Subscribers(ctx, channelID)
	return out, storeErr(err, "subscription")
}

func (s *SubscriptionService) Channels(ctx context.Context, subscriberID uint64) ([]model.Subscription, error) {
	if err := mustExist(ctx, s.users, subscriberID, "user"); err != nil {
		return nil, err
	}
	out, err := s.subs.Channels(ctx, subscriberID)
	return out, storeErr(err, "subscription")
}

// PlaylistStore is the persistence needed by PlaylistService.
type PlaylistStore interface {
	Create(ctx context.Context, p *model.Playlist) error
	GetByID(ctx context.Context, id uint64) (*model.Playlist, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Playlist, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, name, description string) (*model.Playlist, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
	AddVideo(ctx context.Context, playlistID, ownerID, videoID uint64) (*model.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, ownerID, videoID uint64) (*model.Playlist, error)
}

// PlaylistService manages user playlists.
type PlaylistService struct {
	playlists PlaylistStore
	users     UserChecker
}

func NewPlaylistService(playlists PlaylistStore, users UserChecker) *PlaylistService {
	return &PlaylistService{playlists: playlists, users: users}
}

func (s *PlaylistService) Create(ctx context.Context, ownerID uint64, name, description string) (*model.Playlist, error) {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" {
		return nil, apierror.Validation("name is required")
	}
	p := &model.Playlist{OwnerID: ownerID, Name: name, Description: description, Videos: []model.Video{}}
	if err := s.playlists.Create(ctx, p); err != nil {
		return nil, storeErr(err, "user")
	}
	return p, nil
}

func (s *PlaylistService) Get(ctx context.Context, id uint64) (*model.Playlist, error) {
	p, err := s.playlists.GetByID(ctx, id)
	return p, storeErr(err, "playlist")
}

func (s *PlaylistService) ListByUser(ctx context.Context, userID uint64) ([]model.Playlist, error) {
	if err := mustExist(ctx, s.users, userID, "user"); err != nil {
		return nil, err
	}
	out, err := s.playlists.ListByOwner(ctx, userID)
	return out, storeErr(err, "playlist")
}

// Update renames the playlist.  Empty fields keep their current value.
func (s *PlaylistService) Update(ctx context.Context, id, ownerID uint64, name, description string) (*model.Playlist, error) {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" && description == "" {
		return nil, apierror.Validation("name or description is required")
	}
	if name == "" || description == "" {
		cur, err := s.playlists.GetByID(ctx, id)
		if err != nil {
			return nil, storeErr(err, "playlist")
		}
		if name == "" {
			name = cur.Name
		}
		if description == "" {
			description = cur.Description
		}
	}
	p, err := s.playlists.UpdateByIDAndOwner(ctx, id, ownerID, name, description)
	return p, storeErr(err, "playlist")
}

func (s *PlaylistService) Delete(ctx context.Context, id, ownerID uint64) error {
	return storeErr(s.playlists.DeleteByIDAndOwner(ctx, id, ownerID), "playlist")
}

// AddVideo appends a video.  Adding a video twice is a Conflict.
func (s *PlaylistService) AddVideo(ctx context.Context, playlistID, ownerID, videoID uint64) (*model.Playlist, error) {
	p, err := s.playlists.AddVideo(ctx, playlistID, ownerID, videoID)
	if errors.Is(err, repository.ErrConflict) {
		return nil, apierror.Wrap(apierror.KindConflict, "video is already in the playlist", err)
	}
	return p, storeErr(err, "video")
}

// RemoveVideo drops a video.  Removing a video that is not in the playlist
// is NotFound.
func (s *PlaylistService) RemoveVideo(ctx context.Context, playlistID, ownerID, videoID uint64) (*model.Playlist, error) {
	p, err := s.playlists.RemoveVideo(ctx, playlistID, ownerID, videoID)
	return p, storeErr(err, "video in playlist")
}

func requireContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apierror.Validation("content is required")
	}
	return content, nil
}

type existsChecker interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// mustSee reports a hidden video as missing.
func mustSee(ctx context.Context, videos VideoChecker, id, viewerID uint64) error {
	ok, err := videos.VisibleTo(ctx, id, viewerID)
	if err != nil {
		return storeErr(err, "video")
	}
	if !ok {
		return apierror.NotFound("video")
	}
	return nil
}

func mustExist(ctx context.Context, c existsChecker, id uint64, resource string) error {
	ok, err := c.Exists(ctx, id)
	if err != nil {
		return storeErr(err, resource)
	}
	if !ok {
		return apierror.NotFound(resource)
	}
	return nil
}
