package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/media"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/queue"
)

// VideoStore is the persistence needed by VideoService.
type VideoStore interface {
	List(ctx context.Context, q model.VideoListQuery) ([]model.Video, int64, error)
	Create(ctx context.Context, v *model.Video) error
	GetByID(ctx context.Context, id uint64) (*model.Video, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, title, description, thumbnail string) (*model.Video, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
	TogglePublish(ctx context.Context, id, ownerID uint64) (*model.Video, error)
	RecordView(ctx context.Context, videoID, viewerID uint64) error
}

// UserChecker answers whether a user id exists.
type UserChecker interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// PublishVideoInput describes an upload.  VideoPath and ThumbnailPath are
// local temp files owned by the service from this point on.
type PublishVideoInput struct {
	OwnerID       uint64
	Title         string
	Description   string
	Duration      float64
	VideoPath     string
	ThumbnailPath string
}

// VideoPage is one page of the video listing.
type VideoPage struct {
	Videos     []model.Video `json:"videos"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalCount int64         `json:"totalCount"`
	TotalPages int64         `json:"totalPages"`
}

// VideoService uploads, lists and edits videos.
type VideoService struct {
	videos   VideoStore
	users    UserChecker
	uploader media.Uploader
	events   queue.Publisher
	logger   *slog.Logger
}

func NewVideoService(videos VideoStore, users UserChecker, uploader media.Uploader, events queue.Publisher, logger *slog.Logger) *VideoService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &VideoService{videos: videos, users: users, uploader: uploader, events: events, logger: logger}
}

// List returns a page of videos.  Filtering by an unknown channel is
// NotFound rather than an empty page.
func (s *VideoService) List(ctx context.Context, q model.VideoListQuery) (*VideoPage, error) {
	if !model.PageInRange(q.Page, q.Limit) {
		return nil, apierror.Validation("page is out of range")
	}
	if q.OwnerID != 0 {
		ok, err := s.users.Exists(ctx, q.OwnerID)
		if err != nil {
			return nil, storeErr(err, "user")
		}
		if !ok {
			return nil, apierror.NotFound("user")
		}
	}
	videos, total, err := s.videos.List(ctx, q)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	pages := int64(0)
	if q.Limit > 0 {
		pages = (total + int64(q.Limit) - 1) / int64(q.Limit)
	}
	return &VideoPage{Videos: videos, Page: q.Page, Limit: q.Limit, TotalCount: total, TotalPages: pages}, nil
}

// Publish uploads the video file and thumbnail and stores the video.
func (s *VideoService) Publish(ctx context.Context, in PublishVideoInput) (*model.Video, error) {
	in.Title, in.Description = strings.TrimSpace(in.Title), strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		removeTemp(in.VideoPath, in.ThumbnailPath)
		return nil, apierror.Validation("title and description are required")
	}
	if in.VideoPath == "" || in.ThumbnailPath == "" {
		removeTemp(in.VideoPath, in.ThumbnailPath)
		return nil, apierror.Validation("video file and thumbnail are required")
	}
	if in.Duration < 0 {
		removeTemp(in.VideoPath, in.ThumbnailPath)
		return nil, apierror.Validation("duration must not be negative")
	}

	videoURL, err := s.uploader.Upload(ctx, in.VideoPath)
	if err != nil {
		removeTemp(in.ThumbnailPath)
		return nil, uploadErr(err, "video")
	}
	thumbURL, err := s.uploader.Upload(ctx, in.ThumbnailPath)
	if err != nil {
		discardUploads(ctx, s.uploader, s.logger, videoURL)
		return nil, uploadErr(err, "thumbnail")
	}

	v := &model.Video{
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
		Duration:    in.Duration,
		IsPublished: true,
	}
	if err := s.videos.Create(ctx, v); err != nil {
		discardUploads(ctx, s.uploader, s.logger, videoURL, thumbURL)
		return nil, storeErr(err, "video")
	}

	s.logger.Info("video published", "video_id", v.ID, "owner_id", v.OwnerID)
	if err := s.events.PublishVideoPublished(ctx, queue.VideoPublishedEvent{
		VideoID:     v.ID,
		OwnerID:     v.OwnerID,
		Title:       v.Title,
		Duration:    v.Duration,
		IsPublished: v.IsPublished,
		PublishedAt: v.CreatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		s.logger.Warn("publish video.published failed", "video_id", v.ID, "err", err)
	}
	return v, nil
}

// Watch returns the video and records the view for viewerID.  Unpublished
// videos are only visible to their owner.
func (s *VideoService) Watch(ctx context.Context, id, viewerID uint64) (*model.Video, error) {
	v, err := s.videos.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	if !v.IsPublished && v.OwnerID != viewerID {
		return nil, apierror.NotFound("video")
	}
	if err := s.videos.RecordView(ctx, id, viewerID); err != nil {
		return nil, storeErr(err, "video")
	}
	v.Views++
	return v, nil
}

// Update edits title and description and optionally replaces the thumbnail.
func (s *VideoService) Update(ctx context.Context, id, ownerID uint64, title, description, thumbnailPath string) (*model.Video, error) {
	title, description = strings.TrimSpace(title), strings.TrimSpace(description)
	if title == "" || description == "" {
		removeTemp(thumbnailPath)
		return nil, apierror.Validation("title and description are required")
	}
	// ownership is checked before anything is uploaded
	current, err := s.videos.GetByID(ctx, id)
	if err != nil {
		removeTemp(thumbnailPath)
		return nil, storeErr(err, "video")
	}
	if current.OwnerID != ownerID {
		removeTemp(thumbnailPath)
		return nil, apierror.ErrForbidden
	}
	var thumbURL string
	if thumbnailPath != "" {
		if thumbURL, err = s.uploader.Upload(ctx, thumbnailPath); err != nil {
			return nil, uploadErr(err, "thumbnail")
		}
	}
	v, err := s.videos.UpdateByIDAndOwner(ctx, id, ownerID, title, description, thumbURL)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	return v, nil
}

func (s *VideoService) Delete(ctx context.Context, id, ownerID uint64) error {
	return storeErr(s.videos.DeleteByIDAndOwner(ctx, id, ownerID), "video")
}

func (s *VideoService) TogglePublish(ctx context.Context, id, ownerID uint64) (*model.Video, error) {
	v, err := s.videos.TogglePublish(ctx, id, ownerID)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	return v, nil
}
