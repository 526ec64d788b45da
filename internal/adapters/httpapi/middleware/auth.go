package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"

	userPort "inkwell/internal/ports/user"
)

const identityKey = "identity"

var errNoToken = errors.New("no bearer token")

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := identityFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		c.Set(identityKey, ident)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and
// lets everyone else through as anonymous. A bad token is treated the
// same as no token so public reads never 401.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ident, err := identityFromHeader(c.GetHeader("Authorization")); err == nil {
			c.Set(identityKey, ident)
		}
		c.Next()
	}
}

// Identity returns the resolved caller; the zero value for anonymous.
func Identity(c *gin.Context) userPort.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(userPort.Identity); ok {
			return ident
		}
	}
	return userPort.Identity{}
}

func identityFromHeader(header string) (userPort.Identity, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return userPort.Identity{}, errNoToken
	}

	claims := &userPort.Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, prefix), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return userPort.Identity{}, errNoToken
	}

	userID, err := uuid.FromString(claims.Subject)
	if err != nil {
		return userPort.Identity{}, errNoToken
	}

	return userPort.Identity{UserID: userID, Role: claims.Role}, nil
}
