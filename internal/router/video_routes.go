package router

import "github.com/labstack/echo/v4"

func registerVideos(g *echo.Group, h Handlers, upload, small echo.MiddlewareFunc) {
	// the cache runs after Protect so entries can be keyed per viewer
	g.GET("", h.Videos.List, h.VideoCache)
	g.POST("", h.Videos.Publish, upload)
	g.GET("/:videoId", h.Videos.Get)
	g.PATCH("/:videoId", h.Videos.Update, upload)
	g.DELETE("/:videoId", h.Videos.Delete)
	g.PATCH("/toggle/publish/:videoId", h.Videos.TogglePublish, small)
}
