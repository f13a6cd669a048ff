package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/littlelemon/restaurant-api/internal/models"
	"github.com/littlelemon/restaurant-api/internal/roles"
)

const accessTokenTTL = 15 * time.Minute

type Middleware struct {
	DB        *gorm.DB
	JWTSecret []byte
}

// RequireLogin authenticates the request and resolves the caller's role from
// its group memberships, once per request, into the echo context. The token
// only carries the subject; roles are always derived from current group
// facts, never stored in the token.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := ParseAccessToken(c, m.JWTSecret)
		if err != nil {
			return err
		}

		var user models.User
		if err := m.DB.Preload("Groups").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		names := make([]string, len(user.Groups))
		for i, g := range user.Groups {
			names[i] = g.Name
		}

		c.Set("userID", user.ID)
		c.Set("role", roles.Resolve(names))
		return next(c)
	}
}

// UserID returns the authenticated caller's id set by RequireLogin.
func UserID(c echo.Context) uint {
	v, _ := c.Get("userID").(uint)
	return v
}

// RoleOf returns the caller's resolved role; customers are the default.
func RoleOf(c echo.Context) roles.Role {
	if r, ok := c.Get("role").(roles.Role); ok {
		return r
	}
	return roles.Customer
}

func SignAccessToken(userID uint, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(accessTokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseAccessToken(c echo.Context, secret []byte) (uint, error) {
	cookie, err := c.Cookie("accessToken")
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
	}
	tokenString := cookie.Value
	if tokenString == "" {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	subRaw, ok := claims["sub"].(float64)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
	}

	return uint(subRaw), nil
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// AccessTokenCookie builds the cookie handed out at login.
func AccessTokenCookie(token string) *http.Cookie {
	return CreateCookie("accessToken", token, "/", time.Now().Add(accessTokenTTL))
}
