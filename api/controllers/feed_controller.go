package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"microblog/api/cache"
	"microblog/api/models"
	"microblog/api/monitoring"
	"microblog/api/utils/httpctx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetFeed returns the caller's own posts merged with those of everyone they
// follow, newest first. limit only trims the response; the feed itself is
// always built in full.
func (server *Server) GetFeed(c *gin.Context) {
	viewer, _ := httpctx.CurrentUser(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	cacheKey := cache.FeedKey(viewer.ID, limit)
	if cache.Enabled() {
		if cached, err := cache.Get(ctx, cacheKey); err == nil && cached != "" {
			monitoring.FeedCache.WithLabelValues("hit").Inc()
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			return
		}
		monitoring.FeedCache.WithLabelValues("miss").Inc()
	}

	posts, err := models.FollowedPosts(server.DB, viewer)
	if err != nil {
		server.respondError(c, err)
		return
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	body, err := json.Marshal(gin.H{
		"status":   http.StatusOK,
		"response": postsToDTO(posts),
	})
	if err != nil {
		server.respondError(c, err)
		return
	}
	if cache.Enabled() {
		if err := cache.Set(ctx, cacheKey, body, server.Config.FeedCacheTTL); err != nil {
			server.Log.Warn("cache feed", zap.Uint("user_id", viewer.ID), zap.Error(err))
		}
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
