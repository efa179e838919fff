package models

import "gorm.io/gorm"

// AutoMigrate creates or updates the users, follows and posts tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Follow{}, &Post{})
}
