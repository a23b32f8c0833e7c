package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/auth"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/repository"
)

// Context keys set by VerifyJWT.
const (
	ctxUser   = "user"
	ctxUserID = "user_id"
)

// AccessCookie is the cookie carrying the access token.  It takes precedence
// over the Authorization header.
const AccessCookie = "accessToken"

// AccessVerifier validates access tokens.
type AccessVerifier interface {
	VerifyAccess(raw string) (*auth.AccessClaims, error)
}

// UserFinder loads the user referenced by a token subject.
type UserFinder interface {
	FindByID(ctx context.Context, id uint64) (*model.User, error)
}

// VerifyJWT returns the authentication middleware guarding every protected
// route.  The token is read from the accessToken cookie, falling back to an
// "Authorization: Bearer" header.  On success the sanitized user is stored
// under "user" and its id, as a string, under "user_id"; CurrentUser and
// UserID read them back.  Nothing is attached when any step fails.
func VerifyJWT(tokens AccessVerifier, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := accessToken(c)
			if raw == "" {
				return apierror.ErrUnauthorized
			}
			claims, err := tokens.VerifyAccess(raw)
			if err != nil {
				return apierror.ErrTokenInvalid
			}
			id, err := auth.SubjectID(claims)
			if err != nil {
				return err
			}

			u, err := users.FindByID(c.Request().Context(), id)
			if err != nil {
				// A valid token whose user has since been removed.
				if errors.Is(err, repository.ErrNotFound) {
					return apierror.ErrUnauthorized
				}
				return apierror.Wrap(apierror.KindUpstream, "load current user", err)
			}

			clean := u.Sanitized()
			c.Set(ctxUser, &clean)
			c.Set(ctxUserID, strconv.FormatUint(clean.ID, 10))
			return next(c)
		}
	}
}

func accessToken(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// CurrentUser returns the user attached by VerifyJWT, or nil on routes it
// does not guard.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(ctxUser).(*model.User)
	return u
}

// UserID returns the id of the authenticated user, or 0.
func UserID(c echo.Context) uint64 {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}
