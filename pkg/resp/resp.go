package resp

import (
	"errors"
	"net/http"

	"mealflow/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": data})
}
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}
func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": msg})
}
func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": msg})
}
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": msg})
}
func ServerError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
}

// Error maps the apperr taxonomy onto HTTP status codes. Upstream detail
// is logged but replaced by a generic message on the wire.
func Error(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err), apperr.IsInvalidTransition(err):
		BadRequest(c, err.Error())
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "not found")
	case errors.Is(err, apperr.ErrForbidden):
		Forbidden(c, "forbidden")
	case apperr.IsUpstream(err):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("payment provider error")
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "payment provider unavailable"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		ServerError(c, err)
	}
}
