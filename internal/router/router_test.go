package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/vidtube-backend/internal/config"
	"github.com/iliyamo/vidtube-backend/internal/database"
	"github.com/iliyamo/vidtube-backend/internal/handler"
	"github.com/iliyamo/vidtube-backend/internal/repository"
	"github.com/iliyamo/vidtube-backend/internal/service"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

type envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Kind       string          `json:"kind"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type testServer struct {
	t *testing.T
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := database.OpenTestDB(t)
	log := zap.NewNop()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Config{
		Env:            "test",
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
	}
	hasher, err := utils.NewPasswordHasher(utils.SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	users := repository.NewUserRepo(db)
	reactions := repository.NewReactionRepo(db)
	subs := repository.NewSubscriptionRepo(db)
	videos := repository.NewVideoRepo(db)

	sessions := service.NewSessionService(users, hasher, service.SessionConfig{
		AccessSecret:   cfg.AccessSecret,
		RefreshSecret:  cfg.RefreshSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
	}, log)
	events := service.NopPublisher{}

	e := New(Deps{
		Cfg: cfg,
		RateLimit: config.RateLimitConfig{
			Enabled: true, Capacity: 100, RefillTokens: 1,
			RefillInterval: time.Second, TTL: time.Minute, KeyStrategy: "ip_route", Prefix: "rl",
		},
		Cache: config.CacheConfig{
			Enabled: true, Methods: map[string]bool{http.MethodGet: true},
			TTL: time.Minute, KeyStrategy: "user_route_query", Prefix: "cache",
		},
		Redis:    rdb,
		Log:      log,
		Health:   &handler.HealthHandler{DB: db},
		Auth:     handler.NewAuthHandler(sessions, false),
		Likes:    handler.NewLikeHandler(service.NewLedger(reactions, events, log)),
		Subs:     handler.NewSubscriptionHandler(service.NewSubscriptions(subs, users, events, log)),
		Channels: handler.NewChannelHandler(service.NewStats(videos, reactions, subs, users)),
	})
	return &testServer{t: t, e: e}
}

func (s *testServer) do(method, path, body, token string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

type loginData struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	AccessToken struct {
		Token string `json:"token"`
	} `json:"accessToken"`
	RefreshToken struct {
		Token string `json:"token"`
	} `json:"refreshToken"`
}

func (s *testServer) registerAndLogin(username string) loginData {
	s.t.Helper()
	rec, _ := s.do(http.MethodPost, "/v1/auth/register",
		`{"fullName":"`+username+`","email":"`+username+`@example.com","username":"`+username+`","password":"password123"}`, "")
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := s.do(http.MethodPost, "/v1/auth/login", `{"username":"`+username+`","password":"password123"}`, "")
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var out loginData
	require.NoError(s.t, json.Unmarshal(env.Data, &out))
	return out
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestLoginSetsHTTPOnlyCookies(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin("alice")

	rec, _ := s.do(http.MethodPost, "/v1/auth/login", `{"email":"alice@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, name := range []string{"accessToken", handler.RefreshCookie} {
		ck := cookieNamed(rec, name)
		require.NotNil(t, ck, name)
		require.True(t, ck.HttpOnly)
		require.NotEmpty(t, ck.Value)
	}

	rec, env := s.do(http.MethodPost, "/v1/auth/login", `{"username":"alice","password":"wrong-password"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", env.Kind)

	rec, env = s.do(http.MethodPost, "/v1/auth/login", `{"username":"ghost","password":"password123"}`, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NotFound", env.Kind)
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	login := s.registerAndLogin("alice")

	// body transport
	rec, env := s.do(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+login.RefreshToken.Token+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rotated loginData
	require.NoError(t, json.Unmarshal(env.Data, &rotated))

	// the pre-rotation token is dead
	rec, env = s.do(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+login.RefreshToken.Token+`"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", env.Kind)

	// cookie transport with the new token
	rec, _ = s.do(http.MethodPost, "/v1/auth/refresh", "", "",
		&http.Cookie{Name: handler.RefreshCookie, Value: rotated.RefreshToken.Token})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodPost, "/v1/auth/refresh", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutThenRefreshFails(t *testing.T) {
	s := newTestServer(t)
	login := s.registerAndLogin("alice")

	rec, _ := s.do(http.MethodPost, "/v1/auth/logout", "", login.AccessToken.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	ck := cookieNamed(rec, handler.RefreshCookie)
	require.NotNil(t, ck)
	require.Empty(t, ck.Value)

	rec, _ = s.do(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+login.RefreshToken.Token+`"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// the access token itself is stateless and still works until it expires
	rec, _ = s.do(http.MethodGet, "/v1/me", "", login.AccessToken.Token)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(http.MethodGet, "/v1/me", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, env.Success)

	login := s.registerAndLogin("alice")
	rec, env = s.do(http.MethodGet, "/v1/me", "", login.AccessToken.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), `"username":"alice"`)
	require.NotContains(t, string(env.Data), "password")
}

func TestChangePasswordOverHTTP(t *testing.T) {
	s := newTestServer(t)
	login := s.registerAndLogin("alice")

	rec, _ := s.do(http.MethodPost, "/v1/auth/change-password",
		`{"oldPassword":"nope-nope","newPassword":"brand-new-pass"}`, login.AccessToken.Token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodPost, "/v1/auth/change-password",
		`{"oldPassword":"password123","newPassword":"brand-new-pass"}`, login.AccessToken.Token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodPost, "/v1/auth/login", `{"username":"alice","password":"brand-new-pass"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLikeToggleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	login := s.registerAndLogin("alice")
	videoID := uuid.NewString()

	rec, env := s.do(http.MethodPost, "/v1/likes/toggle/v/"+videoID, "", login.AccessToken.Token)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"reacted":true}`, string(env.Data))

	rec, env = s.do(http.MethodPost, "/v1/likes/toggle/v/"+videoID, "", login.AccessToken.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"reacted":false}`, string(env.Data))

	rec, env = s.do(http.MethodPost, "/v1/likes/toggle/t/not-a-uuid", "", login.AccessToken.Token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "InvalidArgument", env.Kind)

	rec, _ = s.do(http.MethodPost, "/v1/likes/toggle/c/"+videoID, "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(http.MethodGet, "/v1/likes/videos", "", login.AccessToken.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, string(env.Data))
}

func TestSubscriptionsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerAndLogin("alice")
	bob := s.registerAndLogin("bob")

	rec, env := s.do(http.MethodPost, "/v1/subscriptions/c/"+alice.User.ID, "", alice.AccessToken.Token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "InvalidArgument", env.Kind)

	rec, env = s.do(http.MethodPost, "/v1/subscriptions/c/"+uuid.NewString(), "", alice.AccessToken.Token)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NotFound", env.Kind)

	rec, env = s.do(http.MethodPost, "/v1/subscriptions/c/"+alice.User.ID, "", bob.AccessToken.Token)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"subscribed":true}`, string(env.Data))

	rec, env = s.do(http.MethodGet, "/v1/subscriptions/c/"+alice.User.ID, "", bob.AccessToken.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), `"username":"bob"`)

	rec, env = s.do(http.MethodGet, "/v1/subscriptions/u/"+bob.User.ID, "", bob.AccessToken.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), `"username":"alice"`)

	// anonymous viewer never sees isSubscribed=true
	rec, env = s.do(http.MethodGet, "/v1/channels/alice", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), `"isSubscribed":false`)
	require.Contains(t, string(env.Data), `"subscribersCount":1`)

	rec, env = s.do(http.MethodGet, "/v1/channels/alice", "", bob.AccessToken.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), `"isSubscribed":true`)

	rec, _ = s.do(http.MethodGet, "/v1/channels/nobody", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardStatsIsCachedPerUser(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerAndLogin("alice")
	bob := s.registerAndLogin("bob")

	rec, env := s.do(http.MethodGet, "/v1/dashboard/stats", "", alice.AccessToken.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	require.JSONEq(t, `{"totalVideos":0,"totalViews":0,"totalSubscribers":0,"totalLikes":0}`, string(env.Data))

	rec, _ = s.do(http.MethodGet, "/v1/dashboard/stats", "", alice.AccessToken.Token)
	require.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec, _ = s.do(http.MethodGet, "/v1/dashboard/stats", "", bob.AccessToken.Token)
	require.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec, _ = s.do(http.MethodGet, "/v1/dashboard/stats", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
