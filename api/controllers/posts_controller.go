package controllers

import (
	"net/http"
	"time"

	"microblog/api/models"
	"microblog/api/monitoring"
	"microblog/api/utils/httpctx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (server *Server) CreatePost(c *gin.Context) {
	viewer, _ := httpctx.CurrentUser(c)

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	post, err := models.CreatePost(server.DB, viewer, req.Body, time.Time{})
	if err != nil {
		server.respondError(c, err)
		return
	}
	monitoring.PostsCreated.Inc()

	followers, err := models.FollowerIDs(server.DB, viewer)
	if err != nil {
		server.Log.Warn("list followers for feed invalidation", zap.Uint("user_id", viewer.ID), zap.Error(err))
	}
	server.invalidateFeeds(c, append(followers, viewer.ID)...)

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": postToDTO(post),
	})
}

func (server *Server) GetPost(c *gin.Context) {
	id, ok := parseNumericID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	post, err := models.FindPostByID(server.DB, id)
	if err != nil {
		server.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": postToDTO(post),
	})
}

// GetUserPosts lists one author's posts, newest first.
func (server *Server) GetUserPosts(c *gin.Context) {
	author, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		server.respondError(c, err)
		return
	}

	posts, err := models.CollectPosts(models.PostsBy(server.DB, author))
	if err != nil {
		server.respondError(c, err)
		return
	}
	models.SortFeed(posts)

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": postsToDTO(posts),
	})
}
