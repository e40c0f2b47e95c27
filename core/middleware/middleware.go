package middleware

import (
	"errors"
	"strings"
	"time"

	"go-schedule-api/core/constants"
	"go-schedule-api/core/controller"
	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/core/logger"
	"go-schedule-api/core/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Middleware struct {
	controller.BaseController
}

func NewMiddleware() *Middleware {
	return &Middleware{BaseController: controller.NewBaseController()}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	return strings.TrimSpace(token), ok
}

// OptionalAuth stores the organizer claims when a valid bearer token is present.
// Requests without a token pass through; requests with a bad token are rejected.
func (m *Middleware) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return next(c)
			}
			claims, err := utils.ValidateAndParseToken(token)
			if err != nil {
				return m.tokenError(c, err)
			}
			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// AuthMiddleware requires a valid organizer bearer token.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok || token == "" {
				return m.ErrorResponse(c, appErrors.NewAppError(appErrors.ErrMissingAuthorizationHeader, "missing authorization header", nil))
			}
			claims, err := utils.ValidateAndParseToken(token)
			if err != nil {
				return m.tokenError(c, err)
			}
			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// OwnerToken copies the X-Owner-Token capability header into the request context.
func (m *Middleware) OwnerToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := strings.TrimSpace(c.Request().Header.Get(constants.HeaderOwnerToken)); token != "" {
				c.Set(constants.ContextOwnerToken, token)
			}
			return next(c)
		}
	}
}

func (m *Middleware) tokenError(c echo.Context, err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return m.ErrorResponse(c, appErrors.NewAppError(appErrors.ErrTokenExpired, "token expired", err))
	}
	return m.ErrorResponse(c, appErrors.NewAppError(appErrors.ErrInvalidTokenFormat, "invalid token", err))
}

// RequestLogger logs one line per request.
func (m *Middleware) RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			res := c.Response()
			logger.Info("HTTP",
				"method", req.Method,
				"path", c.Path(),
				"uri", req.RequestURI,
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
			)
			return nil
		}
	}
}

// UserID returns the organizer id from the bearer token, if any.
func UserID(c echo.Context) *uuid.UUID {
	claims, ok := c.Get(constants.ContextTokenData).(*utils.TokenClaims)
	if !ok || claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}

// Owner returns the capability token sent with the request.
func Owner(c echo.Context) string {
	token, _ := c.Get(constants.ContextOwnerToken).(string)
	return token
}
