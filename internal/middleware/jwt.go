package middleware // reusable echo middleware: auth, rate limiting, caching, request logging

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

// AccessCookie is the cookie that carries the access token for browser
// clients.
const AccessCookie = "accessToken"

// Context keys set by the auth middleware.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
)

// JWTAuth requires a valid access token, taken from the Authorization
// bearer header or the access cookie, and stores the caller's id under
// "user_id". Handlers read it with c.Get("user_id").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := accessToken(c)
			if raw == "" {
				return apperr.Unauthorized("unauthorized request")
			}
			id, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return apperr.Unauthorized("invalid access token")
			}
			setIdentity(c, id)
			return next(c)
		}
	}
}

// OptionalJWT identifies the caller when a valid token is present and
// otherwise lets the request through anonymously. An invalid token is
// treated like no token.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := accessToken(c); raw != "" {
				if id, err := utils.ParseAccessToken(secret, raw); err == nil {
					setIdentity(c, id)
				}
			}
			return next(c)
		}
	}
}

func accessToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func setIdentity(c echo.Context, id utils.Identity) {
	c.Set(CtxUserID, id.UserID)
	c.Set(CtxUsername, id.Username)
}
