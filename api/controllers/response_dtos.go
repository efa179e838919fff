package controllers

import "time"

const defaultAvatarSize = 128

type UserDTO struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	AboutMe        string    `json:"about_me"`
	Avatar         string    `json:"avatar"`
	LastSeen       time.Time `json:"last_seen"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type UserSummaryDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type FollowUserDTO struct {
	UserSummaryDTO
	ViewerFollowing  bool `json:"viewer_following"`
	ViewerFollowedBy bool `json:"viewer_followed_by"`
	Mutual           bool `json:"mutual"`
}

type PostDTO struct {
	ID        uint           `json:"id"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	Author    UserSummaryDTO `json:"author"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type ProfileRequest struct {
	Username string `json:"username"`
	AboutMe  string `json:"about_me"`
}

type PostRequest struct {
	Body string `json:"body"`
}
