package middlewares

import (
	"errors"
	"net/http"
	"time"

	"microblog/api/auth"
	"microblog/api/models"
	"microblog/api/utils/httpctx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LoadUser resolves the caller from a bearer token or, failing that, the
// session cookie, and refreshes their last-seen time. Requests without valid
// credentials continue as anonymous.
func LoadUser(db *gorm.DB, tokens *auth.Tokens, sessions *auth.Sessions, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := resolveUserID(c.Request, tokens, sessions)
		if !ok {
			c.Next()
			return
		}

		user, err := models.FindUserByID(db, userID)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				log.Error("load current user", zap.Uint("user_id", userID), zap.Error(err))
			}
			c.Next()
			return
		}

		if err := user.TouchLastSeen(db, time.Now()); err != nil {
			log.Warn("refresh last seen", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		httpctx.SetCurrentUser(c, user)
		c.Next()
	}
}

func resolveUserID(r *http.Request, tokens *auth.Tokens, sessions *auth.Sessions) (uint, bool) {
	if tokens != nil && auth.ExtractToken(r) != "" {
		if uid, err := tokens.ExtractTokenID(r); err == nil {
			return uid, true
		}
		return 0, false
	}
	if sessions != nil {
		return sessions.UserID(r)
	}
	return 0, false
}

// RequireAuth rejects anonymous callers. It must run after LoadUser.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := httpctx.CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// CORSMiddleware echoes the Origin header back only for allowed origins.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Vary", "Origin")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Authorization, Content-Length, X-CSRF-Token, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods",
			"POST, GET, OPTIONS, PUT, PATCH, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
