package router // package router wires handlers and middleware onto echo

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-backend/internal/config"
	"github.com/iliyamo/vidtube-backend/internal/handler"
	"github.com/iliyamo/vidtube-backend/internal/middleware"
)

// Deps is everything the HTTP surface needs. Redis may be nil, in which
// case rate limiting and response caching are off.
type Deps struct {
	Cfg       config.Config
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       *zap.Logger

	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Likes    *handler.LikeHandler
	Subs     *handler.SubscriptionHandler
	Channels *handler.ChannelHandler
}

// New builds the echo instance with the error handler, validator, global
// middleware and every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(d.Cfg.IsProduction(), d.Log)
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d.Health)
	RegisterAuth(e, d.Auth, d.Cfg.AccessSecret, middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	RegisterEngagement(e, d.Likes, d.Subs, d.Cfg.AccessSecret)
	RegisterChannels(e, d.Channels, d.Cfg.AccessSecret, middleware.NewRedisCache(d.Cache, d.Redis, d.Log))
	return e
}

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers the session endpoints. Credential exchanges are
// rate limited; logout, password change and /me need an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)

	requireAuth := middleware.JWTAuth(jwtSecret)
	g.POST("/logout", a.Logout, requireAuth)
	g.POST("/change-password", a.ChangePassword, requireAuth)

	e.GET("/v1/me", a.Me, requireAuth)
}

// RegisterEngagement registers likes and subscriptions. All of them act on
// behalf of the authenticated caller.
func RegisterEngagement(e *echo.Echo, l *handler.LikeHandler, s *handler.SubscriptionHandler, jwtSecret string) {
	likes := e.Group("/v1/likes", middleware.JWTAuth(jwtSecret))
	likes.POST("/toggle/v/:videoId", l.ToggleVideo)
	likes.POST("/toggle/c/:commentId", l.ToggleComment)
	likes.POST("/toggle/t/:tweetId", l.ToggleTweet)
	likes.GET("/videos", l.LikedVideos)

	subs := e.Group("/v1/subscriptions", middleware.JWTAuth(jwtSecret))
	subs.POST("/c/:channelId", s.Toggle)
	subs.GET("/c/:channelId", s.ChannelSubscribers)
	subs.GET("/u/:subscriberId", s.SubscribedChannels)
}

// RegisterChannels registers the dashboard, cached per user, and the
// public channel page.
func RegisterChannels(e *echo.Echo, ch *handler.ChannelHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/v1/dashboard/stats", ch.DashboardStats, middleware.JWTAuth(jwtSecret), cache)
	e.GET("/v1/channels/:username", ch.Profile, middleware.OptionalJWT(jwtSecret))
}
