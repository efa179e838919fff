package controllers

import (
	"net/http"

	"microblog/api/cache"

	"github.com/gin-gonic/gin"
)

// Health reports whether the database answers. The cache is reported but
// never fails the check.
func (server *Server) Health(c *gin.Context) {
	sqlDB, err := server.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": cache.Enabled()})
}
