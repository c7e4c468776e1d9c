package identity

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// Identity is the authenticated caller as asserted by the external identity
// provider. The core trusts it and performs no credential verification.
type Identity struct {
	UserID uint
	Email  string
	Name   string
}

// Middleware validates the externally issued HS256 token.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningMethod: "HS256",
		ContextKey:    "user",
		SigningKey:    secret,
	})
}

// FromContext reconstructs the caller identity from the validated token.
func FromContext(c echo.Context) (Identity, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
	}

	id := Identity{UserID: uint(sub)}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}
