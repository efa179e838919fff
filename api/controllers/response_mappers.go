package controllers

import (
	"microblog/api/models"
)

// userToDTO hides the email unless the viewer is looking at themselves.
func userToDTO(user *models.User, viewer *models.User) UserDTO {
	dto := UserDTO{
		ID:             user.PublicID,
		Username:       user.Username,
		AboutMe:        user.AboutMe,
		Avatar:         user.Avatar(defaultAvatarSize),
		LastSeen:       user.LastSeen,
		FollowersCount: user.FollowersCount,
		FollowingCount: user.FollowingCount,
		CreatedAt:      user.CreatedAt,
	}
	if viewer != nil && viewer.ID == user.ID {
		dto.Email = user.Email
	}
	return dto
}

func userToSummaryDTO(user *models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:       user.PublicID,
		Username: user.Username,
		Avatar:   user.Avatar(36),
	}
}

func postToDTO(post *models.Post) PostDTO {
	return PostDTO{
		ID:        post.ID,
		Body:      post.Body,
		CreatedAt: post.CreatedAt,
		Author:    userToSummaryDTO(&post.Author),
	}
}

func postsToDTO(posts []models.Post) []PostDTO {
	out := make([]PostDTO, 0, len(posts))
	for i := range posts {
		out = append(out, postToDTO(&posts[i]))
	}
	return out
}
