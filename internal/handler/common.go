package handler // handler adapts HTTP requests to the service layer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/middleware"
)

// requestTimeout bounds the storage work done for a single request.
const requestTimeout = 5 * time.Second

// envelope is the success body of every JSON endpoint.
type envelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// errorBody is the failure body. Detail carries the wrapped cause and is
// left out in production.
type errorBody struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
}

func respond(c echo.Context, status int, data any, msg string) error {
	if data == nil {
		data = echo.Map{}
	}
	return c.JSON(status, envelope{Success: true, StatusCode: status, Message: msg, Data: data})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID returns the id stored by the auth middleware.
func getUserID(c echo.Context) (string, error) {
	if s, ok := c.Get(middleware.CtxUserID).(string); ok && s != "" {
		return s, nil
	}
	return "", apperr.Unauthorized("unauthorized request")
}

// viewerID is getUserID for routes where authentication is optional.
func viewerID(c echo.Context) string {
	s, _ := c.Get(middleware.CtxUserID).(string)
	return s
}

// bindAndValidate decodes the request body into dst and runs its validate
// tags.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.InvalidArgument("invalid request body")
	}
	return c.Validate(dst)
}

// Validator plugs go-playground/validator into echo.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.InvalidArgument(fieldMessage(verrs[0]))
	}
	return apperr.InvalidArgument("invalid request")
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email", name)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", name)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

var kindStatus = []struct {
	kind   error
	name   string
	status int
}{
	{apperr.ErrInvalidArgument, "InvalidArgument", http.StatusBadRequest},
	{apperr.ErrUnauthorized, "Unauthorized", http.StatusUnauthorized},
	{apperr.ErrForbidden, "Forbidden", http.StatusForbidden},
	{apperr.ErrNotFound, "NotFound", http.StatusNotFound},
	{apperr.ErrConflict, "Conflict", http.StatusConflict},
	{apperr.ErrUpstream, "Upstream", http.StatusBadGateway},
	{apperr.ErrInternal, "Internal", http.StatusInternalServerError},
}

// NewHTTPErrorHandler renders every error as an errorBody. Service errors
// are mapped by kind; echo's own errors (404 route, 405, 429 from the
// rate limiter, bad binds) keep their status.
func NewHTTPErrorHandler(production bool, log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		body := errorBody{StatusCode: http.StatusInternalServerError, Kind: "Internal", Message: "internal server error"}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			body.StatusCode = he.Code
			body.Kind = kindForStatus(he.Code)
			body.Message = fmt.Sprint(he.Message)
		} else {
			kind := apperr.KindOf(err)
			for _, ks := range kindStatus {
				if kind == ks.kind {
					body.StatusCode, body.Kind = ks.status, ks.name
					break
				}
			}
			body.Message = apperr.MessageOf(err)
		}
		if !production {
			body.Detail = err.Error()
		}
		if body.StatusCode >= http.StatusInternalServerError {
			log.Error("request error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(body.StatusCode)
		} else {
			err = c.JSON(body.StatusCode, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func kindForStatus(status int) string {
	for _, ks := range kindStatus {
		if ks.status == status {
			return ks.name
		}
	}
	if status >= http.StatusInternalServerError {
		return "Internal"
	}
	return strings.ReplaceAll(http.StatusText(status), " ", "")
}
