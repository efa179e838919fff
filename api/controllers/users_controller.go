package controllers

import (
	"net/http"

	"microblog/api/models"
	"microblog/api/monitoring"
	"microblog/api/utils/httpctx"

	"github.com/gin-gonic/gin"
)

// Register creates an account. Username and email must both be unused.
func (server *Server) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	user := models.User{Username: req.Username, Email: req.Email}
	user.Prepare()
	errorMessages := user.Validate("", req.Password)
	if req.Password2 != "" && req.Password2 != req.Password {
		errorMessages["Mismatch_password"] = "Passwords must match"
	}
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"errors": errorMessages,
		})
		return
	}

	if err := user.SetPassword(req.Password); err != nil {
		server.respondError(c, err)
		return
	}
	userCreated, err := user.SaveUser(server.DB)
	if err != nil {
		server.respondError(c, err)
		return
	}
	monitoring.RegisterSuccess.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": userToDTO(userCreated, userCreated),
	})
}

// GetUser shows a profile by id, public id or username.
func (server *Server) GetUser(c *gin.Context) {
	user, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		server.respondError(c, err)
		return
	}

	viewer, _ := httpctx.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userToDTO(user, viewer),
	})
}

// UpdateProfile edits the caller's username and about-me text.
func (server *Server) UpdateProfile(c *gin.Context) {
	viewer, _ := httpctx.CurrentUser(c)

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	updated, err := viewer.UpdateProfile(server.DB, req.Username, req.AboutMe)
	if err != nil {
		server.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userToDTO(updated, updated),
	})
}
