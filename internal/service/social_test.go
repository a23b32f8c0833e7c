package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/repository"
)

// stubComments records calls and returns err from every method.
type stubComments struct {
	err     error
	created *model.Comment
	offset  int
}

func (s *stubComments) ListByVideo(_ context.Context, _ uint64, _, offset int) ([]model.Comment, error) {
	s.offset = offset
	return []model.Comment{}, s.err
}

func (s *stubComments) Create(_ context.Context, c *model.Comment) error {
	if s.err != nil {
		return s.err
	}
	c.ID = 1
	s.created = c
	return nil
}

func (s *stubComments) UpdateByIDAndOwner(_ context.Context, id, _ uint64, content string) (*model.Comment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Comment{ID: id, Content: content}, nil
}

func (s *stubComments) DeleteByIDAndOwner(context.Context, uint64, uint64) error { return s.err }

// visibleVideos maps a video id to its owner; published ids are listed
// in public.
type visibleVideos struct {
	owners map[uint64]uint64
	public map[uint64]bool
}

func (v visibleVideos) VisibleTo(_ context.Context, id, viewerID uint64) (bool, error) {
	owner, ok := v.owners[id]
	if !ok {
		return false, nil
	}
	return v.public[id] || owner == viewerID, nil
}

// video 5 is published by user 2; video 7 is a draft of user 2
var catalogue = visibleVideos{
	owners: map[uint64]uint64{5: 2, 7: 2},
	public: map[uint64]bool{5: true},
}

func TestCommentService(t *testing.T) {
	ctx := context.Background()
	store := &stubComments{}
	svc := NewCommentService(store, catalogue)

	c, err := svc.Add(ctx, 5, 1, "  nice video ")
	require.NoError(t, err)
	assert.Equal(t, "nice video", c.Content)

	_, err = svc.Add(ctx, 5, 1, "   ")
	assert.ErrorIs(t, err, apierror.ErrValidation)

	out, err := svc.List(ctx, 5, 1, 3, 10)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Equal(t, 20, store.offset)

	_, err = svc.List(ctx, 6, 1, 1, 10)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	store.err = fmt.Errorf("update: %w", repository.ErrForbidden)
	_, err = svc.Update(ctx, 1, 2, "edited")
	assert.ErrorIs(t, err, apierror.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, 1, 2), apierror.ErrForbidden)

	store.err = repository.ErrNotFound
	assert.ErrorIs(t, svc.Delete(ctx, 1, 2), apierror.ErrNotFound)

	store.err = errors.New("connection reset")
	_, err = svc.Add(ctx, 5, 1, "x")
	assert.Equal(t, apierror.KindUpstream, apierror.As(err).Kind)
}

func TestCommentsOnDraftVideo(t *testing.T) {
	ctx := context.Background()
	store := &stubComments{}
	svc := NewCommentService(store, catalogue)

	_, err := svc.Add(ctx, 7, 1, "first")
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Nil(t, store.created)
	_, err = svc.List(ctx, 7, 1, 1, 10)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	_, err = svc.Add(ctx, 7, 2, "note to self")
	require.NoError(t, err)
	_, err = svc.List(ctx, 7, 2, 1, 10)
	require.NoError(t, err)
}

func TestCommentPageOutOfRange(t *testing.T) {
	store := &stubComments{offset: -1}
	svc := NewCommentService(store, catalogue)

	_, err := svc.List(context.Background(), 5, 1, math.MaxInt/100+2, 100)
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.Equal(t, -1, store.offset)
}

type stubSubs struct {
	err        error
	subscribed bool
}

func (s *stubSubs) Toggle(_ context.Context, subscriberID, channelID uint64) (*model.Subscription, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	s.subscribed = !s.subscribed
	if !s.subscribed {
		return nil, false, nil
	}
	return &model.Subscription{SubscriberID: subscriberID, ChannelID: channelID}, true, nil
}

func (s *stubSubs) Subscribers(context.Context, uint64) ([]model.Subscription, error) {
	return []model.Subscription{}, s.err
}

func (s *stubSubs) Channels(context.Context, uint64) ([]model.Subscription, error) {
	return []model.Subscription{}, s.err
}

func TestSubscriptionToggle(t *testing.T) {
	ctx := context.Background()
	store := &stubSubs{}
	svc := NewSubscriptionService(store, knownUsers{1: true, 2: true})

	_, _, err := svc.Toggle(ctx, 1, 1)
	assert.ErrorIs(t, err, apierror.ErrValidation)

	sub, on, err := svc.Toggle(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, uint64(2), sub.ChannelID)

	_, on, err = svc.Toggle(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, on)

	store.err = repository.ErrNotFound
	_, _, err = svc.Toggle(ctx, 1, 99)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Equal(t, "channel not found", apierror.As(err).Message)
}

func TestSubscriptionListsRequireUser(t *testing.T) {
	svc := NewSubscriptionService(&stubSubs{}, knownUsers{1: true})

	out, err := svc.Subscribers(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = svc.Channels(context.Background(), 9)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

type stubPlaylists struct {
	cur     model.Playlist
	err     error
	updated [2]string
}

func (s *stubPlaylists) Create(_ context.Context, p *model.Playlist) error {
	p.ID = 1
	return s.err
}

func (s *stubPlaylists) GetByID(context.Context, uint64) (*model.Playlist, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := s.cur
	return &cp, nil
}

func (s *stubPlaylists) ListByOwner(context.Context, uint64) ([]model.Playlist, error) {
	return []model.Playlist{}, s.err
}

func (s *stubPlaylists) UpdateByIDAndOwner(_ context.Context, _, _ uint64, name, desc string) (*model.Playlist, error) {
	s.updated = [2]string{name, desc}
	return &model.Playlist{Name: name, Description: desc}, nil
}

func (s *stubPlaylists) DeleteByIDAndOwner(context.Context, uint64, uint64) error { return s.err }

func (s *stubPlaylists) AddVideo(context.Context, uint64, uint64, uint64) (*model.Playlist, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := s.cur
	return &cp, nil
}

func (s *stubPlaylists) RemoveVideo(context.Context, uint64, uint64, uint64) (*model.Playlist, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := s.cur
	return &cp, nil
}

func TestPlaylistCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := &stubPlaylists{cur: model.Playlist{Name: "Old", Description: "old desc"}}
	svc := NewPlaylistService(store, knownUsers{1: true})

	p, err := svc.Create(ctx, 1, " Mix ", "")
	require.NoError(t, err)
	assert.Equal(t, "Mix", p.Name)
	assert.NotNil(t, p.Videos)

	_, err = svc.Create(ctx, 1, "", "desc")
	assert.ErrorIs(t, err, apierror.ErrValidation)

	_, err = svc.Update(ctx, 1, 1, "New", "")
	require.NoError(t, err)
	assert.Equal(t, [2]string{"New", "old desc"}, store.updated)

	_, err = svc.Update(ctx, 1, 1, "", " ")
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestPlaylistVideoMembership(t *testing.T) {
	ctx := context.Background()
	store := &stubPlaylists{}
	svc := NewPlaylistService(store, knownUsers{})

	store.err = repository.ErrConflict
	_, err := svc.AddVideo(ctx, 1, 1, 5)
	assert.ErrorIs(t, err, apierror.ErrConflict)
	assert.Equal(t, "video is already in the playlist", apierror.As(err).Message)

	store.err = repository.ErrNotFound
	_, err = svc.AddVideo(ctx, 1, 1, 5)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	_, err = svc.RemoveVideo(ctx, 1, 1, 5)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	store.err = repository.ErrForbidden
	_, err = svc.RemoveVideo(ctx, 1, 2, 5)
	assert.ErrorIs(t, err, apierror.ErrForbidden)

	_, err = svc.ListByUser(ctx, 3)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

type stubLikes struct{ err error }

func (s stubLikes) Toggle(_ context.Context, userID uint64, _ model.LikeTarget, targetID uint64) (*model.Like, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return &model.Like{LikedBy: userID, VideoID: &targetID}, true, nil
}

func (s stubLikes) LikedVideos(context.Context, uint64) ([]model.LikedVideo, error) {
	return []model.LikedVideo{}, s.err
}

func TestLikeToggle(t *testing.T) {
	ctx := context.Background()
	like, liked, err := NewLikeService(stubLikes{}, catalogue).Toggle(ctx, 1, model.LikeVideo, 5)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, uint64(5), *like.VideoID)

	_, _, err = NewLikeService(stubLikes{err: repository.ErrNotFound}, catalogue).Toggle(ctx, 1, model.LikeTweet, 4)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Equal(t, "tweet not found", apierror.As(err).Message)
}

func TestLikeDraftVideo(t *testing.T) {
	ctx := context.Background()
	svc := NewLikeService(stubLikes{}, catalogue)

	_, _, err := svc.Toggle(ctx, 1, model.LikeVideo, 7)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Equal(t, "video not found", apierror.As(err).Message)

	_, liked, err := svc.Toggle(ctx, 2, model.LikeVideo, 7)
	require.NoError(t, err)
	assert.True(t, liked)
}

type stubTweets struct{ err error }

func (s stubTweets) Create(_ context.Context, t *model.Tweet) error {
	t.ID = 3
	return s.err
}

func (s stubTweets) ListByOwner(context.Context, uint64) ([]model.Tweet, error) {
	return []model.Tweet{}, s.err
}

func (s stubTweets) UpdateByIDAndOwner(_ context.Context, id, owner uint64, content string) (*model.Tweet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Tweet{ID: id, OwnerID: owner, Content: content}, nil
}

func (s stubTweets) DeleteByIDAndOwner(context.Context, uint64, uint64) error { return s.err }

func TestTweetService(t *testing.T) {
	ctx := context.Background()
	svc := NewTweetService(stubTweets{}, knownUsers{1: true})

	tw, err := svc.Create(ctx, 1, "hello")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), tw.ID)

	_, err = svc.Update(ctx, 3, 1, "")
	assert.ErrorIs(t, err, apierror.ErrValidation)

	_, err = svc.ListByUser(ctx, 2)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	svc = NewTweetService(stubTweets{err: repository.ErrForbidden}, knownUsers{1: true})
	assert.ErrorIs(t, svc.Delete(ctx, 3, 2), apierror.ErrForbidden)
}

type stubChannels struct{ err error }

func (s stubChannels) ChannelProfile(_ context.Context, username string, viewerID uint64) (*model.ChannelProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.ChannelProfile{Username: username, IsSubscribed: viewerID == 2}, nil
}

func (s stubChannels) WatchHistory(context.Context, uint64) ([]model.WatchHistoryEntry, error) {
	return []model.WatchHistoryEntry{}, s.err
}

func TestProfileService(t *testing.T) {
	ctx := context.Background()
	svc := NewProfileService(stubChannels{}, stubChannels{})

	p, err := svc.Channel(ctx, "alice", 2)
	require.NoError(t, err)
	assert.True(t, p.IsSubscribed)

	_, err = svc.Channel(ctx, " ", 2)
	assert.ErrorIs(t, err, apierror.ErrValidation)

	h, err := svc.WatchHistory(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, h)

	svc = NewProfileService(stubChannels{err: repository.ErrNotFound}, stubChannels{})
	_, err = svc.Channel(ctx, "ghost", 2)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
