package controllers

import (
	"errors"
	"net/http"
	"time"

	"microblog/api/models"
	"microblog/api/monitoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Login authenticates by username and password. The response carries a
// bearer token, and a session cookie is set as well; remember_me keeps the
// cookie across browser restarts.
func (server *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	candidate := models.User{Username: req.Username}
	candidate.Prepare()
	if errorMessages := candidate.Validate("login", req.Password); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"errors": errorMessages,
		})
		return
	}

	user, ok, err := server.SignIn(candidate.Username, req.Password)
	if err != nil {
		monitoring.LoginFailure.WithLabelValues("error").Inc()
		server.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := server.Tokens.CreateToken(user.ID)
	if err != nil {
		server.respondError(c, err)
		return
	}
	if err := server.Sessions.Login(c.Writer, c.Request, user.ID, req.RememberMe); err != nil {
		server.Log.Warn("save session", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	monitoring.LoginSuccess.Inc()

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": LoginResponse{
			Token: token,
			User:  userToDTO(user, user),
		},
	})
}

// SignIn checks the credentials. An unknown user and a wrong password are
// both (nil, false, nil); only store and hash failures are errors.
func (server *Server) SignIn(username, password string) (*models.User, bool, error) {
	user, err := models.FindUserByUsername(server.DB, username)
	if errors.Is(err, models.ErrUserNotFound) {
		monitoring.LoginFailure.WithLabelValues("unknown_user").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	ok, err := user.CheckPassword(password)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		monitoring.LoginFailure.WithLabelValues("bad_password").Inc()
		return nil, false, nil
	}

	if err := user.TouchLastSeen(server.DB, time.Now()); err != nil {
		server.Log.Warn("refresh last seen", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return user, true, nil
}

func (server *Server) Logout(c *gin.Context) {
	if err := server.Sessions.Logout(c.Writer, c.Request); err != nil {
		server.Log.Warn("clear session", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "Logged out"})
}
