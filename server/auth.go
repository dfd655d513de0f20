package server

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/aquanode/aqua-engine/model"
)

const ownerContextKey = "owner"

// ownerMiddleware resolves the request owner from a Bearer token. Requests
// without a token fall back to the anonymous partition; a token that fails
// verification is rejected so a forged owner can never read another
// partition.
func (s *Server) ownerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			c.Set(ownerContextKey, model.AnonymousOwner)
			return next(c)
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		owner, err := s.verifyToken(tokenString)
		if err != nil {
			return echo.NewHTTPError(401, err.Error())
		}

		c.Set(ownerContextKey, owner)
		return next(c)
	}
}

func (s *Server) verifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.HTTP.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("token cannot be parsed")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("malformed claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("missing subject")
	}

	return model.NormalizeOwner(sub), nil
}

func requestOwner(c echo.Context) string {
	if owner, ok := c.Get(ownerContextKey).(string); ok && owner != "" {
		return owner
	}
	return model.AnonymousOwner
}
