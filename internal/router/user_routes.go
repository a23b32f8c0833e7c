package router

import "github.com/labstack/echo/v4"

func registerUsers(api *echo.Group, h Handlers, upload, small echo.MiddlewareFunc) {
	g := api.Group("/users")

	// session lifecycle; no token required
	g.POST("/register", h.Auth.Register, upload)
	g.POST("/login", h.Auth.Login, small)
	g.POST("/refresh-token", h.Auth.RefreshToken, small)

	p := g.Group("", h.Protect)
	p.POST("/logout", h.Auth.Logout, small)
	p.POST("/change-password", h.Auth.ChangePassword, small)
	p.GET("/current-user", h.Users.CurrentUser)
	p.PATCH("/update-account", h.Users.UpdateAccount, small)
	p.PATCH("/avatar", h.Users.UpdateAvatar, upload)
	p.PATCH("/cover-image", h.Users.UpdateCoverImage, upload)
	p.GET("/c/:username", h.Users.Channel)
	p.GET("/history", h.Users.WatchHistory)
}
