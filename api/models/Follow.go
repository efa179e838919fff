package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Follow is one directed edge: FollowerID sees FollowedID's posts.
type Follow struct {
	ID         uint      `gorm:"primary_key;autoIncrement" json:"id"`
	FollowerID uint      `gorm:"not null;index;uniqueIndex:idx_follows_unique" json:"follower_id"`
	FollowedID uint      `gorm:"not null;index;uniqueIndex:idx_follows_unique" json:"followed_id"`
	Follower   User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followed   User      `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Relationship describes how a viewer and a target relate.
type Relationship struct {
	Following  bool `json:"following"`
	FollowedBy bool `json:"followed_by"`
	Mutual     bool `json:"mutual"`
}

// FollowUser adds the follower -> followed edge. It reports whether a new
// edge was written; following someone twice is not an error.
func FollowUser(db *gorm.DB, follower, followed *User) (bool, error) {
	if follower.ID == followed.ID {
		return false, ErrSelfFollow
	}

	created := false
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := requireUsers(tx, follower.ID, followed.ID); err != nil {
			return err
		}

		follow := Follow{
			FollowerID: follower.ID,
			FollowedID: followed.ID,
		}
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&follow)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true

		if err := tx.Model(&User{}).
			Where("id = ?", follower.ID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&User{}).
			Where("id = ?", followed.ID).
			UpdateColumn("followers_count", gorm.Expr("followers_count + 1")).Error
	})
	if err != nil {
		return false, err
	}
	if created {
		follower.FollowingCount++
		followed.FollowersCount++
	}
	return created, nil
}

// UnfollowUser removes the follower -> followed edge if present.
func UnfollowUser(db *gorm.DB, follower, followed *User) (bool, error) {
	if follower.ID == followed.ID {
		return false, ErrSelfFollow
	}

	removed := false
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := requireUsers(tx, follower.ID, followed.ID); err != nil {
			return err
		}

		result := tx.Where("follower_id = ? AND followed_id = ?", follower.ID, followed.ID).
			Delete(&Follow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true

		if err := tx.Model(&User{}).
			Where("id = ?", follower.ID).
			UpdateColumn("following_count", gorm.Expr("CASE WHEN following_count > 0 THEN following_count - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		return tx.Model(&User{}).
			Where("id = ?", followed.ID).
			UpdateColumn("followers_count", gorm.Expr("CASE WHEN followers_count > 0 THEN followers_count - 1 ELSE 0 END")).Error
	})
	if err != nil {
		return false, err
	}
	if removed {
		if follower.FollowingCount > 0 {
			follower.FollowingCount--
		}
		if followed.FollowersCount > 0 {
			followed.FollowersCount--
		}
	}
	return removed, nil
}

func IsFollowing(db *gorm.DB, follower, followed *User) (bool, error) {
	var count int64
	err := db.Model(&Follow{}).
		Where("follower_id = ? AND followed_id = ?", follower.ID, followed.ID).
		Count(&count).Error
	return count > 0, err
}

// FollowersOf lists users with an edge into user, ordered by id.
func FollowersOf(db *gorm.DB, user *User) ([]User, error) {
	users := []User{}
	err := db.Model(&User{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", user.ID).
		Order("users.id ASC").
		Find(&users).Error
	return users, err
}

// FollowedBy lists the users that user follows, ordered by id.
func FollowedBy(db *gorm.DB, user *User) ([]User, error) {
	users := []User{}
	err := db.Model(&User{}).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", user.ID).
		Order("users.id ASC").
		Find(&users).Error
	return users, err
}

// FollowedIDs is FollowedBy without loading the user rows.
func FollowedIDs(db *gorm.DB, user *User) ([]uint, error) {
	ids := []uint{}
	err := db.Model(&Follow{}).
		Where("follower_id = ?", user.ID).
		Order("followed_id ASC").
		Pluck("followed_id", &ids).Error
	return ids, err
}

// FollowerIDs is FollowersOf without loading the user rows.
func FollowerIDs(db *gorm.DB, user *User) ([]uint, error) {
	ids := []uint{}
	err := db.Model(&Follow{}).
		Where("followed_id = ?", user.ID).
		Order("follower_id ASC").
		Pluck("follower_id", &ids).Error
	return ids, err
}

func GetRelationship(db *gorm.DB, viewer, target *User) (Relationship, error) {
	if viewer.ID == target.ID {
		return Relationship{}, nil
	}
	following, err := IsFollowing(db, viewer, target)
	if err != nil {
		return Relationship{}, err
	}
	followedBy, err := IsFollowing(db, target, viewer)
	if err != nil {
		return Relationship{}, err
	}
	return Relationship{
		Following:  following,
		FollowedBy: followedBy,
		Mutual:     following && followedBy,
	}, nil
}

func requireUsers(tx *gorm.DB, ids ...uint) error {
	var count int64
	if err := tx.Model(&User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ids) {
		return ErrUserNotFound
	}
	return nil
}
