package controllers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"microblog/api/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps the model error taxonomy onto HTTP statuses. Credential
// and unexpected store failures are logged at error level, which mails the
// admins when alerting is configured.
func (server *Server) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var fieldErrs *models.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"errors": fieldErrs.Fields,
		})
	case errors.Is(err, models.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  validationMessage(err),
		})
	case errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, models.ErrCredential):
		server.Log.Error("credential failure",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	default:
		server.Log.Error("unexpected error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequestBody(c *gin.Context) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"status": http.StatusUnprocessableEntity,
		"error":  "Cannot unmarshal body",
	})
}

// validationMessage turns "validation failed: username already taken" into
// "Username already taken".
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), models.ErrValidation.Error()+": ")
	if msg == "" {
		return msg
	}
	runes := []rune(msg)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
