package httpctx

import (
	"microblog/api/models"

	"github.com/gin-gonic/gin"
)

const (
	userKey   = "currentUser"
	userIDKey = "userID"
)

// SetCurrentUser records the authenticated user for the rest of the request.
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set(userIDKey, user.ID)
}

// CurrentUser returns the authenticated user loaded for this request, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok && user != nil
}

// CurrentUserID retrieves the authenticated user ID from Gin context if present.
func CurrentUserID(c *gin.Context) (uint, bool) {
	val, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	uid, ok := val.(uint)
	return uid, ok
}

// CurrentIdentity never returns nil: visitors without credentials get the
// anonymous identity.
func CurrentIdentity(c *gin.Context) models.Identity {
	if user, ok := CurrentUser(c); ok {
		return user
	}
	return models.AnonymousUser{}
}
