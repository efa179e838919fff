package controllers

import (
	"errors"
	"strings"

	"microblog/api/models"

	"gorm.io/gorm"
)

// resolveUserByIdentifier accepts a username, a public uuid or a numeric id,
// in that order. Usernames can never be all digits or uuid-shaped, so the
// fallbacks cannot shadow a real username.
func resolveUserByIdentifier(db *gorm.DB, identifier string) (*models.User, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, models.ErrUserNotFound
	}

	user, err := models.FindUserByUsername(db, trimmed)
	if err == nil || !errors.Is(err, models.ErrUserNotFound) {
		return user, err
	}

	if models.LooksLikeUUID(trimmed) {
		return models.FindUserByPublicID(db, strings.ToLower(trimmed))
	}
	if id, ok := parseNumericID(trimmed); ok {
		return models.FindUserByID(db, id)
	}
	return nil, models.ErrUserNotFound
}
