// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"strconv"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/vidtube/internal/handler"
)

// Handlers bundles everything the routes dispatch to.  Protect is the auth
// middleware; RateLimit and VideoCache may be no-ops when Redis is down.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Videos        *handler.VideoHandler
	Comments      *handler.CommentHandler
	Likes         *handler.LikeHandler
	Playlists     *handler.PlaylistHandler
	Subscriptions *handler.SubscriptionHandler
	Tweets        *handler.TweetHandler

	Protect    echo.MiddlewareFunc
	RateLimit  echo.MiddlewareFunc
	VideoCache echo.MiddlewareFunc

	// MaxUploadMB limits multipart request bodies.
	MaxUploadMB int
}

// jsonBodyLimit caps every request that is not an upload.
const jsonBodyLimit = "1M"

// RegisterRoutes registers the operational endpoints that sit outside the
// versioned API: the health probe and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAPI registers every /api/v1 route.  Register, login and
// refresh-token are public; everything else requires a valid access token.
func RegisterAPI(e *echo.Echo, h Handlers) {
	api := e.Group("/api/v1", h.RateLimit)
	upload := echomw.BodyLimit(strconv.Itoa(h.MaxUploadMB) + "M")
	small := echomw.BodyLimit(jsonBodyLimit)

	registerUsers(api, h, upload, small)
	registerVideos(api.Group("/videos", h.Protect), h, upload, small)
	registerSocial(api, h, small)
}
