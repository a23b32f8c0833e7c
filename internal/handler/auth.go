package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/auth"
	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/response"
	"github.com/iliyamo/vidtube/internal/service"
)

// RefreshCookie carries the refresh token.  The access token cookie name is
// owned by the auth middleware that reads it.
const RefreshCookie = "refreshToken"

// Sessions is the session lifecycle behind the auth and account endpoints.
type Sessions interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, in service.LoginInput) (*service.Session, error)
	Logout(ctx context.Context, userID uint64) error
	Refresh(ctx context.Context, raw string) (*auth.TokenPair, error)
	ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error
	UpdateAccount(ctx context.Context, userID uint64, fullName, email string) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID uint64, localPath string) (*model.User, error)
	UpdateCoverImage(ctx context.Context, userID uint64, localPath string) (*model.User, error)
}

// AuthHandler serves registration, login, logout, token refresh and
// password change.
type AuthHandler struct {
	sessions     Sessions
	tempDir      string
	cookieSecure bool
}

func NewAuthHandler(sessions Sessions, tempDir string, cookieSecure bool) *AuthHandler {
	if sessions == nil {
		panic("nil session manager passed to NewAuthHandler")
	}
	return &AuthHandler{sessions: sessions, tempDir: tempDir, cookieSecure: cookieSecure}
}

// ----- DTOs -----

type registerReq struct {
	FullName string `json:"fullName" form:"fullName" validate:"required,max=255"`
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Username string `json:"username" form:"username" validate:"required,max=64"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordReq struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

type loginResp struct {
	User         model.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// Register: multipart form with an avatar and an optional cover image.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	paths, err := saveUploads(c, h.tempDir, "avatar", "coverImage")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, uploadTimeout)
	defer cancel()

	u, err := h.sessions.Register(ctx, service.RegisterInput{
		FullName:       req.FullName,
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		AvatarPath:     paths[0],
		CoverImagePath: paths[1],
	})
	if err != nil {
		return err
	}
	return response.Created(c, u, "User registered successfully")
}

// Login: username or email plus password.  Unknown user and wrong password
// produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	s, err := h.sessions.Login(ctx, service.LoginInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) || errors.Is(err, apierror.ErrInvalidCredential) {
			return apierror.ErrInvalidCredential
		}
		return err
	}
	h.setSessionCookies(c, s.Tokens)
	return response.OK(c, loginResp{
		User:         s.User,
		AccessToken:  s.Tokens.AccessToken,
		RefreshToken: s.Tokens.RefreshToken,
	}, "User logged in successfully")
}

// Logout: clears the stored refresh token and both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	if err := h.sessions.Logout(ctx, middleware.UserID(c)); err != nil {
		return err
	}
	h.clearSessionCookies(c)
	return response.OK(c, struct{}{}, "User logged out")
}

// RefreshToken: refresh token from the cookie, else from the JSON body.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		var req refreshReq
		// an empty or non-JSON body simply means no token
		_ = c.Bind(&req)
		raw = req.RefreshToken
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	pair, err := h.sessions.Refresh(ctx, raw)
	if err != nil {
		return err
	}
	h.setSessionCookies(c, *pair)
	return response.OK(c, echo.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed")
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	if err := h.sessions.ChangePassword(ctx, middleware.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return response.OK(c, struct{}{}, "Password changed successfully")
}

func (h *AuthHandler) setSessionCookies(c echo.Context, p auth.TokenPair) {
	c.SetCookie(h.cookie(middleware.AccessCookie, p.AccessToken, p.AccessExpiresAt))
	c.SetCookie(h.cookie(RefreshCookie, p.RefreshToken, p.RefreshExpiresAt))
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessCookie, RefreshCookie} {
		ck := h.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (h *AuthHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
