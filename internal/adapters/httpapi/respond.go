package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inkwell/internal/config"
	postPort "inkwell/internal/ports/post"
	userPort "inkwell/internal/ports/user"
)

// respondError maps service errors onto the response envelope. Anything
// unrecognized is a 500 with no internals leaked to the caller.
func respondError(c *gin.Context, err error) {
	var verr *userPort.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "validation failed",
			"errors":  verr.Errors,
		})
		return
	}

	switch {
	case errors.Is(err, postPort.ErrNotFound), errors.Is(err, userPort.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, postPort.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "you do not have access to this resource"})
	case errors.Is(err, postPort.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "a post with this title already exists"})
	case errors.Is(err, userPort.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "username already taken"})
	case errors.Is(err, userPort.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
	case errors.Is(err, userPort.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
	default:
		config.Logger.Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
