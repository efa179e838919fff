package seed

import (
	"fmt"
	"time"

	"microblog/api/controllers"
	"microblog/api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const demoPassword = "password"

var users = []models.User{
	{Username: "john", Email: "john@example.com", AboutMe: "Posting since day one"},
	{Username: "susan", Email: "susan@example.com"},
	{Username: "mary", Email: "mary@example.com"},
	{Username: "david", Email: "david@example.com"},
}

// follows lists follower -> followed pairs as indexes into users.
var follows = [][2]int{
	{0, 1}, {0, 3},
	{1, 2},
	{2, 3},
}

var posts = []struct {
	author int
	body   string
}{
	{0, "post from john"},
	{1, "post from susan"},
	{2, "post from mary"},
	{3, "post from david"},
}

// Load fills db with four demo users, their posts and a small follow graph.
// With reset it drops the tables first. Migrations run through the same path
// as the server so constraints and counter defaults match.
func Load(db *gorm.DB, reset bool, log *zap.Logger) error {
	if reset {
		if err := db.Migrator().DropTable(&models.Post{}, &models.Follow{}, &models.User{}); err != nil {
			return fmt.Errorf("cannot drop tables: %w", err)
		}
	}
	if err := controllers.Migrate(db, log); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		created := make([]*models.User, len(users))
		for i := range users {
			user := users[i]
			if err := user.SetPassword(demoPassword); err != nil {
				return err
			}
			saved, err := user.SaveUser(tx)
			if err != nil {
				return fmt.Errorf("cannot seed user %s: %w", user.Username, err)
			}
			created[i] = saved
		}

		base := time.Now().UTC().Add(-time.Hour)
		for i, p := range posts {
			if _, err := models.CreatePost(tx, created[p.author], p.body, base.Add(time.Duration(i)*time.Minute)); err != nil {
				return fmt.Errorf("cannot seed posts: %w", err)
			}
		}

		for _, f := range follows {
			if _, err := models.FollowUser(tx, created[f[0]], created[f[1]]); err != nil {
				return fmt.Errorf("cannot seed follows: %w", err)
			}
		}
		return nil
	})
}
