package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"
)

// Claims are the parts of the auth provider's access token we rely on.
// The user id is the standard subject claim.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type ProfileProvider interface {
	Ensure(ctx context.Context, userID, email string) (*model.Profile, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// VerifyToken parses an HS256 token signed with secret.
func VerifyToken(secret, tokenStr string) (*Claims, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}

// Auth requires a valid bearer token and makes sure the caller has a profile.
func Auth(secret string, profiles ProfileProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := bearerToken(c)
			if tokenStr == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := VerifyToken(secret, tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if _, err := profiles.Ensure(c.Request().Context(), claims.Subject, claims.Email); err != nil {
				return err
			}

			c.Set(userIDKey, claims.Subject)
			c.Set(emailKey, claims.Email)
			return next(c)
		}
	}
}

// OptionalAuth records the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tokenStr := bearerToken(c); tokenStr != "" {
				if claims, err := VerifyToken(secret, tokenStr); err == nil {
					c.Set(userIDKey, claims.Subject)
					c.Set(emailKey, claims.Email)
				}
			}
			return next(c)
		}
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin(profiles ProfileProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, err := profiles.IsAdmin(c.Request().Context(), UserID(c))
			if err != nil {
				return err
			}
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}

	// browsers cannot set headers on websocket upgrades
	if c.IsWebSocket() {
		return c.QueryParam("token")
	}
	return ""
}
