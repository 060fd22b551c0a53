package middleware

import "github.com/labstack/echo/v4"

// currentUserID returns the authenticated user id, or "anon" when the
// request carries no identity. Cache keys are partitioned by it.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
