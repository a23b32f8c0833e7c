package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/service"
)

type fakeVideos struct {
	query     model.VideoListQuery
	published service.PublishVideoInput
	watched   uint64
}

func (f *fakeVideos) List(_ context.Context, q model.VideoListQuery) (*service.VideoPage, error) {
	f.query = q
	return &service.VideoPage{Videos: []model.Video{}, Page: q.Page, Limit: q.Limit}, nil
}

func (f *fakeVideos) Publish(_ context.Context, in service.PublishVideoInput) (*model.Video, error) {
	f.published = in
	_ = os.Remove(in.VideoPath)
	_ = os.Remove(in.ThumbnailPath)
	return &model.Video{ID: 1, OwnerID: in.OwnerID, Title: in.Title, Duration: in.Duration}, nil
}

func (f *fakeVideos) Watch(_ context.Context, id, _ uint64) (*model.Video, error) {
	f.watched = id
	if id != 1 {
		return nil, apierror.NotFound("video")
	}
	return &model.Video{ID: 1}, nil
}

func (f *fakeVideos) Update(_ context.Context, id, ownerID uint64, title, description, _ string) (*model.Video, error) {
	if ownerID != testUser.ID {
		return nil, apierror.ErrForbidden
	}
	return &model.Video{ID: id, Title: title, Description: description}, nil
}

func (f *fakeVideos) Delete(context.Context, uint64, uint64) error { return apierror.ErrForbidden }

func (f *fakeVideos) TogglePublish(_ context.Context, id, _ uint64) (*model.Video, error) {
	return &model.Video{ID: id, IsPublished: true}, nil
}

func videoEcho(v *fakeVideos, dir string) *echo.Echo {
	e := newEcho()
	h := NewVideoHandler(v, dir)
	g := e.Group("/videos", protect)
	g.GET("", h.List)
	g.POST("", h.Publish)
	g.GET("/:videoId", h.Get)
	g.PATCH("/:videoId", h.Update)
	g.DELETE("/:videoId", h.Delete)
	g.PATCH("/toggle/publish/:videoId", h.TogglePublish)
	return e
}

func TestVideoListQuery(t *testing.T) {
	v := &fakeVideos{}
	e := videoEcho(v, t.TempDir())

	rec := serve(e, authed(t, httptest.NewRequest(http.MethodGet, "/videos", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, v.query.Page)
	assert.Equal(t, defaultPageSize, v.query.Limit)
	assert.Equal(t, "createdAt", v.query.SortBy)
	assert.True(t, v.query.SortDesc)
	assert.Equal(t, testUser.ID, v.query.ViewerID)
	assert.Zero(t, v.query.OwnerID)

	rec = serve(e, authed(t, httptest.NewRequest(http.MethodGet,
		"/videos?page=3&limit=500&query=cats&sortBy=views&sortType=ASC&userId=9", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, v.query.Page)
	assert.Equal(t, maxPageSize, v.query.Limit)
	assert.Equal(t, "cats", v.query.Query)
	assert.Equal(t, "views", v.query.SortBy)
	assert.False(t, v.query.SortDesc)
	assert.Equal(t, uint64(9), v.query.OwnerID)
}

func TestVideoListRejectsBadQuery(t *testing.T) {
	e := videoEcho(&fakeVideos{}, t.TempDir())
	for _, target := range []string{
		"/videos?page=0",
		"/videos?limit=abc",
		"/videos?sortBy=password_hash",
		"/videos?sortType=sideways",
		"/videos?userId=-1",
	} {
		rec := serve(e, authed(t, httptest.NewRequest(http.MethodGet, target, nil)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestVideoListRejectsOverflowingPage(t *testing.T) {
	v := &fakeVideos{}
	e := videoEcho(v, t.TempDir())
	for _, target := range []string{
		"/videos?page=92233720368547760&limit=100",
		"/videos?page=184467440737095518&limit=50",
		"/videos?page=9223372036854775807",
	} {
		rec := serve(e, authed(t, httptest.NewRequest(http.MethodGet, target, nil)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "page is out of range")
	}
	assert.Zero(t, v.query.Page)
}

// fakeComments records the page it was asked for.
type fakeComments struct{ page, limit int }

func (f *fakeComments) List(_ context.Context, _, _ uint64, page, limit int) ([]model.Comment, error) {
	f.page, f.limit = page, limit
	return []model.Comment{}, nil
}

func (f *fakeComments) Add(_ context.Context, videoID, ownerID uint64, content string) (*model.Comment, error) {
	return &model.Comment{ID: 1, VideoID: videoID, OwnerID: ownerID, Content: content}, nil
}

func (f *fakeComments) Update(context.Context, uint64, uint64, string) (*model.Comment, error) {
	return nil, apierror.ErrForbidden
}

func (f *fakeComments) Delete(context.Context, uint64, uint64) error { return apierror.ErrForbidden }

func TestCommentListPaging(t *testing.T) {
	f := &fakeComments{}
	e := newEcho()
	e.GET("/comments/:videoId", NewCommentHandler(f).List, protect)

	rec := serve(e, authed(t, httptest.NewRequest(http.MethodGet, "/comments/5?page=2&limit=500", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, f.page)
	assert.Equal(t, maxPageSize, f.limit)

	f.page = 0
	rec = serve(e, authed(t, httptest.NewRequest(http.MethodGet, "/comments/5?page=92233720368547760&limit=100", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.page)
}

func TestVideoPathParams(t *testing.T) {
	v := &fakeVideos{}
	e := videoEcho(v, t.TempDir())

	rec := serve(e, authed(t, httptest.NewRequest(http.MethodGet, "/videos/abc", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid videoId")

	rec = serve(e, authed(t, httptest.NewRequest(http.MethodGet, "/videos/0", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, authed(t, httptest.NewRequest(http.MethodGet, "/videos/2", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, uint64(2), v.watched)

	rec = serve(e, authed(t, httptest.NewRequest(http.MethodDelete, "/videos/1", nil)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, authed(t, httptest.NewRequest(http.MethodPatch, "/videos/toggle/publish/1", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isPublished":true`)
}

func TestVideoPublish(t *testing.T) {
	v := &fakeVideos{}
	e := videoEcho(v, t.TempDir())

	req := multipartReq(t, http.MethodPost, "/videos",
		map[string]string{"title": "Cats", "description": "many cats", "duration": "12.5"},
		map[string]string{"videoFile": "mp4", "thumbnail": "png"})
	rec := serve(e, authed(t, req))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, testUser.ID, v.published.OwnerID)
	assert.InDelta(t, 12.5, v.published.Duration, 0.001)
	assert.NotEmpty(t, v.published.VideoPath)
	assert.NotEmpty(t, v.published.ThumbnailPath)

	req = multipartReq(t, http.MethodPost, "/videos",
		map[string]string{"title": "Cats", "description": "many cats", "duration": "long"},
		map[string]string{"videoFile": "mp4"})
	rec = serve(e, authed(t, req))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVideoUpdateAcceptsJSON(t *testing.T) {
	e := videoEcho(&fakeVideos{}, t.TempDir())
	rec := serve(e, authed(t, jsonReq(http.MethodPatch, "/videos/1", `{"title":"New","description":"d"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"title":"New"`)

	rec = serve(e, authed(t, jsonReq(http.MethodPatch, "/videos/1", `{"description":"d"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Errors, "title: is required")
}

type fakeLikes struct{ liked map[uint64]bool }

func (f *fakeLikes) Toggle(_ context.Context, userID uint64, target model.LikeTarget, id uint64) (*model.Like, bool, error) {
	if target != model.LikeVideo {
		return nil, false, apierror.NotFound(string(target))
	}
	f.liked[id] = !f.liked[id]
	if !f.liked[id] {
		return nil, false, nil
	}
	return &model.Like{ID: 1, LikedBy: userID, VideoID: &id}, true, nil
}

func (f *fakeLikes) LikedVideos(context.Context, uint64) ([]model.LikedVideo, error) {
	return []model.LikedVideo{}, nil
}

func TestLikeToggleStatus(t *testing.T) {
	e := newEcho()
	h := NewLikeHandler(&fakeLikes{liked: map[uint64]bool{}})
	g := e.Group("/likes", protect)
	g.POST("/toggle/v/:videoId", h.ToggleVideo)
	g.POST("/toggle/c/:commentId", h.ToggleComment)

	rec := serve(e, authed(t, httptest.NewRequest(http.MethodPost, "/likes/toggle/v/5", nil)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"videoId":5`)

	rec = serve(e, authed(t, httptest.NewRequest(http.MethodPost, "/likes/toggle/v/5", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, string(mustData(t, rec)))

	rec = serve(e, authed(t, httptest.NewRequest(http.MethodPost, "/likes/toggle/c/5", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidatorDetails(t *testing.T) {
	type sample struct {
		Name  string `json:"name" validate:"required,max=3"`
		Email string `json:"email" validate:"omitempty,email"`
		Sort  string `json:"sort" validate:"omitempty,oneof=asc desc"`
	}
	v := NewValidator()
	assert.NoError(t, v.Validate(&sample{Name: "abc"}))

	err := v.Validate(&sample{Name: "abcd", Email: "x", Sort: "up"})
	ae := apierror.As(err)
	require.Equal(t, apierror.KindValidation, ae.Kind)
	assert.ElementsMatch(t, []string{
		"name: must be at most 3 characters",
		"email: must be a valid email",
		"sort: must be one of asc desc",
	}, ae.Details)
}
