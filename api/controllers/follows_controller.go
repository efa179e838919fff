package controllers

import (
	"net/http"

	"microblog/api/models"
	"microblog/api/monitoring"
	"microblog/api/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (server *Server) FollowUser(c *gin.Context) {
	viewer, _ := httpctx.CurrentUser(c)

	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		server.respondError(c, err)
		return
	}

	created, err := models.FollowUser(server.DB, viewer, target)
	if err != nil {
		server.respondError(c, err)
		return
	}

	status := http.StatusOK
	message := "Already following user"
	if created {
		status = http.StatusCreated
		message = "User followed successfully"
		monitoring.FollowChanges.WithLabelValues("follow").Inc()
		server.invalidateFeeds(c, viewer.ID)
	}
	c.JSON(status, gin.H{"status": status, "response": message})
}

func (server *Server) UnfollowUser(c *gin.Context) {
	viewer, _ := httpctx.CurrentUser(c)

	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		server.respondError(c, err)
		return
	}

	removed, err := models.UnfollowUser(server.DB, viewer, target)
	if err != nil {
		server.respondError(c, err)
		return
	}

	message := "Not following user"
	if removed {
		message = "User unfollowed successfully"
		monitoring.FollowChanges.WithLabelValues("unfollow").Inc()
		server.invalidateFeeds(c, viewer.ID)
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": message})
}

func (server *Server) GetFollowers(c *gin.Context) {
	server.listFollowUsers(c, models.FollowersOf)
}

func (server *Server) GetFollowing(c *gin.Context) {
	server.listFollowUsers(c, models.FollowedBy)
}

func (server *Server) listFollowUsers(c *gin.Context, list func(*gorm.DB, *models.User) ([]models.User, error)) {
	user, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		server.respondError(c, err)
		return
	}

	users, err := list(server.DB, user)
	if err != nil {
		server.respondError(c, err)
		return
	}

	following, followedBy := map[uint]bool{}, map[uint]bool{}
	if viewer, ok := httpctx.CurrentUser(c); ok {
		if following, err = idSet(models.FollowedIDs(server.DB, viewer)); err != nil {
			server.respondError(c, err)
			return
		}
		if followedBy, err = idSet(models.FollowerIDs(server.DB, viewer)); err != nil {
			server.respondError(c, err)
			return
		}
	}

	response := make([]FollowUserDTO, 0, len(users))
	for i := range users {
		u := &users[i]
		response = append(response, FollowUserDTO{
			UserSummaryDTO:   userToSummaryDTO(u),
			ViewerFollowing:  following[u.ID],
			ViewerFollowedBy: followedBy[u.ID],
			Mutual:           following[u.ID] && followedBy[u.ID],
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": response})
}

func (server *Server) GetRelationship(c *gin.Context) {
	viewer, _ := httpctx.CurrentUser(c)

	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		server.respondError(c, err)
		return
	}

	rel, err := models.GetRelationship(server.DB, viewer, target)
	if err != nil {
		server.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": rel})
}

func idSet(ids []uint, err error) (map[uint]bool, error) {
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
