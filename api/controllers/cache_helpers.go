package controllers

import (
	"microblog/api/cache"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// invalidateFeeds drops cached feeds for viewers whose feed just changed.
func (server *Server) invalidateFeeds(c *gin.Context, userIDs ...uint) {
	if err := cache.InvalidateFeeds(c.Request.Context(), userIDs...); err != nil {
		server.Log.Warn("invalidate feed cache", zap.Uints("user_ids", userIDs), zap.Error(err))
	}
}
