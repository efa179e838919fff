package controllers

import (
	"microblog/api/middlewares"
	"microblog/api/monitoring"
)

func (s *Server) initializeRoutes() {
	s.Router.GET("/healthz", s.Health)
	s.Router.GET("/metrics", monitoring.Handler())

	v1 := s.Router.Group("/api/v1")
	{
		credentials := v1.Group("")
		credentials.Use(middlewares.LoginRateLimitMiddleware())
		credentials.POST("/register", s.Register)
		credentials.POST("/login", s.Login)
		v1.POST("/logout", s.Logout)

		// Users routes
		v1.GET("/users/:id", s.GetUser)
		v1.PUT("/profile", middlewares.RequireAuth(), s.UpdateProfile)

		// Follow routes
		v1.POST("/users/:id/follow", middlewares.RequireAuth(), s.FollowUser)
		v1.DELETE("/users/:id/follow", middlewares.RequireAuth(), s.UnfollowUser)
		v1.GET("/users/:id/followers", s.GetFollowers)
		v1.GET("/users/:id/following", s.GetFollowing)
		v1.GET("/users/:id/relationship", middlewares.RequireAuth(), s.GetRelationship)

		// Post routes
		v1.GET("/users/:id/posts", s.GetUserPosts)
		v1.POST("/posts", middlewares.RequireAuth(), s.CreatePost)
		v1.GET("/posts/:id", s.GetPost)
		v1.GET("/feed", middlewares.RequireAuth(), s.GetFeed)
	}
}
