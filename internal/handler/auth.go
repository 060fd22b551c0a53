package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/middleware"
	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/service"
)

// RefreshCookie carries the refresh token for browser clients.
const RefreshCookie = "refreshToken"

// AuthHandler exposes the session manager over HTTP. Tokens are set as
// http-only cookies and also returned in the body for non-browser clients.
type AuthHandler struct {
	Sessions *service.SessionService
	// SecureCookies adds the Secure flag; enabled in production.
	SecureCookies bool
}

func NewAuthHandler(sessions *service.SessionService, secureCookies bool) *AuthHandler {
	return &AuthHandler{Sessions: sessions, SecureCookies: secureCookies}
}

// ----- DTOs -----

type registerReq struct {
	FullName   string `json:"fullName" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Username   string `json:"username" validate:"required,min=3,max=64"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Avatar     string `json:"avatar" validate:"omitempty,url"`
	CoverImage string `json:"coverImage" validate:"omitempty,url"`
}

type loginReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
	// accepted for clients that send camelCase
	RefreshTokenCamel string `json:"refreshToken"`
}

type changePasswordReq struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User         *model.PublicUser `json:"user,omitempty"`
	AccessToken  tokenPart         `json:"accessToken"`
	RefreshToken tokenPart         `json:"refreshToken"`
}

// Register creates an account. It does not log the user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Sessions.Register(ctx, service.RegisterInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, u, "User registered successfully")
}

// Login accepts either email or username with the password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	identifier := strings.TrimSpace(req.Email)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Sessions.Authenticate(ctx, identifier, req.Password)
	if err != nil {
		return err
	}
	h.setTokenCookies(c, res.Tokens)
	return respond(c, http.StatusOK, authResp{
		User:         &res.User,
		AccessToken:  tokenPart{Token: res.Tokens.Access.Token, Expires: res.Tokens.Access.Exp},
		RefreshToken: tokenPart{Token: res.Tokens.Refresh.Raw, Expires: res.Tokens.Refresh.Exp},
	}, "User logged in successfully")
}

// Refresh rotates the refresh token taken from the cookie or, failing
// that, the request body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		raw = strings.TrimSpace(ck.Value)
	}
	if raw == "" {
		var req refreshReq
		// an unreadable body just means no token
		_ = c.Bind(&req)
		raw = strings.TrimSpace(req.RefreshToken)
		if raw == "" {
			raw = strings.TrimSpace(req.RefreshTokenCamel)
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	pair, err := h.Sessions.Refresh(ctx, raw)
	if err != nil {
		return err
	}
	h.setTokenCookies(c, pair)
	return respond(c, http.StatusOK, authResp{
		AccessToken:  tokenPart{Token: pair.Access.Token, Expires: pair.Access.Exp},
		RefreshToken: tokenPart{Token: pair.Refresh.Raw, Expires: pair.Refresh.Exp},
	}, "Access token refreshed")
}

// Logout revokes the caller's refresh token and clears both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sessions.Logout(ctx, uid); err != nil {
		return err
	}
	h.clearTokenCookies(c)
	return respond(c, http.StatusOK, nil, "User logged out")
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req changePasswordReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sessions.ChangePassword(ctx, uid, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "Password changed successfully")
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Sessions.CurrentUser(ctx, uid)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, u, "User fetched successfully")
}

func (h *AuthHandler) setTokenCookies(c echo.Context, pair service.TokenPair) {
	c.SetCookie(h.cookie(middleware.AccessCookie, pair.Access.Token, pair.Access.Exp))
	c.SetCookie(h.cookie(RefreshCookie, pair.Refresh.Raw, pair.Refresh.Exp))
}

func (h *AuthHandler) clearTokenCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessCookie, RefreshCookie} {
		ck := h.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (h *AuthHandler) cookie(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
