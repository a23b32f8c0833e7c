package router

import "github.com/labstack/echo/v4"

func registerSocial(api *echo.Group, h Handlers, small echo.MiddlewareFunc) {
	comments := api.Group("/comments", h.Protect, small)
	comments.GET("/:videoId", h.Comments.List)
	comments.POST("/:videoId", h.Comments.Add)
	comments.PATCH("/c/:commentId", h.Comments.Update)
	comments.DELETE("/c/:commentId", h.Comments.Delete)

	likes := api.Group("/likes", h.Protect, small)
	likes.POST("/toggle/v/:videoId", h.Likes.ToggleVideo)
	likes.POST("/toggle/c/:commentId", h.Likes.ToggleComment)
	likes.POST("/toggle/t/:tweetId", h.Likes.ToggleTweet)
	likes.GET("/videos", h.Likes.LikedVideos)

	playlists := api.Group("/playlist", h.Protect, small)
	playlists.POST("", h.Playlists.Create)
	playlists.GET("/user/:userId", h.Playlists.ListByUser)
	playlists.GET("/:playlistId", h.Playlists.Get)
	playlists.PATCH("/:playlistId", h.Playlists.Update)
	playlists.DELETE("/:playlistId", h.Playlists.Delete)
	playlists.PATCH("/add/:videoId/:playlistId", h.Playlists.AddVideo)
	playlists.PATCH("/remove/:videoId/:playlistId", h.Playlists.RemoveVideo)

	subs := api.Group("/subscriptions", h.Protect, small)
	subs.POST("/c/:channelId", h.Subscriptions.Toggle)
	subs.GET("/c/:channelId", h.Subscriptions.Subscribers)
	subs.GET("/u/:subscriberId", h.Subscriptions.Channels)

	tweets := api.Group("/tweets", h.Protect, small)
	tweets.POST("", h.Tweets.Create)
	tweets.GET("/user/:userId", h.Tweets.ListByUser)
	tweets.PATCH("/:tweetId", h.Tweets.Update)
	tweets.DELETE("/:tweetId", h.Tweets.Delete)
}
