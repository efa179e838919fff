package models

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"microblog/api/security"

	"github.com/badoux/checkmail"
	"github.com/twinj/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MaxUsernameLength = 64
	MaxEmailLength    = 120
	MaxAboutMeLength  = 140
	MinPasswordLength = 6
	// bcrypt rejects input longer than 72 bytes.
	MaxPasswordLength = 72
)

type User struct {
	ID             uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PublicID       string    `gorm:"size:36;uniqueIndex;column:public_id" json:"public_id"`
	Username       string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email          string    `gorm:"size:120;not null;uniqueIndex" json:"email"`
	PasswordHash   string    `gorm:"size:128" json:"-"`
	AboutMe        string    `gorm:"size:140" json:"about_me"`
	LastSeen       time.Time `gorm:"index" json:"last_seen"`
	FollowersCount int64     `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount int64     `gorm:"not null;default:0" json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if strings.TrimSpace(u.PublicID) == "" {
		u.PublicID = uuid.NewV4().String()
	}
	if u.LastSeen.IsZero() {
		u.LastSeen = time.Now().UTC()
	}
	return nil
}

func (u *User) Prepare() {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	u.AboutMe = strings.TrimSpace(u.AboutMe)
}

// Validate checks the fields required by action ("login", "update" or
// registration for anything else). password is the plaintext candidate and
// is only looked at for login and registration.
func (u *User) Validate(action, password string) map[string]string {
	var errorMessages = make(map[string]string)

	switch strings.ToLower(action) {
	case "login":
		if u.Username == "" {
			errorMessages["Required_username"] = "Required Username"
		}
		if password == "" {
			errorMessages["Required_password"] = "Required Password"
		}
	case "update":
		u.validateUsername(errorMessages)
		if utf8.RuneCountInString(u.AboutMe) > MaxAboutMeLength {
			errorMessages["Invalid_about_me"] = fmt.Sprintf("About me should be at most %d characters", MaxAboutMeLength)
		}
	default:
		u.validateUsername(errorMessages)
		if password == "" {
			errorMessages["Required_password"] = "Required Password"
		} else if len(password) < MinPasswordLength {
			errorMessages["Invalid_password"] = fmt.Sprintf("Password should be at least %d characters", MinPasswordLength)
		} else if len(password) > MaxPasswordLength {
			errorMessages["Invalid_password"] = fmt.Sprintf("Password should be at most %d bytes", MaxPasswordLength)
		}
		if u.Email == "" {
			errorMessages["Required_email"] = "Required Email"
		} else if len(u.Email) > MaxEmailLength {
			errorMessages["Invalid_email"] = "Email is too long"
		} else if err := checkmail.ValidateFormat(u.Email); err != nil {
			errorMessages["Invalid_email"] = "Invalid Email"
		}
	}
	return errorMessages
}

func (u *User) validateUsername(errorMessages map[string]string) {
	if u.Username == "" {
		errorMessages["Required_username"] = "Required Username"
		return
	}
	switch {
	case utf8.RuneCountInString(u.Username) > MaxUsernameLength:
		errorMessages["Invalid_username"] = fmt.Sprintf("Username should be at most %d characters", MaxUsernameLength)
	case isAllDigits(u.Username):
		// Numeric ids share the /users/:id path segment.
		errorMessages["Invalid_username"] = "Username cannot be only digits"
	case LooksLikeUUID(u.Username):
		errorMessages["Invalid_username"] = "Username cannot look like a user id"
	}
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// LooksLikeUUID reports whether s has the 8-4-4-4-12 hex shape of a public id.
func LooksLikeUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, r := range s {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
				return false
			}
		}
	}
	return true
}

// SetPassword replaces the stored hash with a fresh salted hash of
// plaintext. The plaintext is not kept anywhere.
func (u *User) SetPassword(plaintext string) error {
	hashed, err := security.Hash(plaintext)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return ErrPasswordTooLong
	}
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", ErrCredential, err)
	}
	u.PasswordHash = string(hashed)
	return nil
}

// CheckPassword reports whether plaintext matches the stored hash. A wrong
// password or a user without a password is (false, nil); a stored hash that
// cannot be parsed is an ErrCredential.
func (u *User) CheckPassword(plaintext string) (bool, error) {
	if u.PasswordHash == "" {
		return false, nil
	}
	err := security.VerifyPassword(u.PasswordHash, plaintext)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: user %d: %v", ErrCredential, u.ID, err)
	}
}

// Avatar returns the gravatar URL for the user's email at size pixels.
func (u *User) Avatar(size int) string {
	return Avatar(u.Email, size)
}

// Avatar derives a gravatar URL from the md5 of the lower-cased email.
func Avatar(email string, size int) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon&s=%d", hex.EncodeToString(sum[:]), size)
}

func (u *User) IsAuthenticated() bool { return u != nil && u.ID != 0 }
func (u *User) IsActive() bool        { return u != nil && u.ID != 0 }
func (u *User) IsAnonymous() bool     { return false }

func (u *User) GetID() string {
	if u == nil {
		return ""
	}
	return strconv.FormatUint(uint64(u.ID), 10)
}

// SaveUser inserts a new user after checking username and email are free.
// The unique indexes catch whatever slips between the check and the insert.
func (u *User) SaveUser(db *gorm.DB) (*User, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		if taken, err := columnTaken(tx, "username", u.Username, 0); err != nil {
			return err
		} else if taken {
			return ErrUsernameTaken
		}
		if taken, err := columnTaken(tx, "email", u.Email, 0); err != nil {
			return err
		} else if taken {
			return ErrEmailTaken
		}
		if err := tx.Create(u).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateProfile changes username and about-me. The new username must not
// belong to anyone else.
func (u *User) UpdateProfile(db *gorm.DB, username, aboutMe string) (*User, error) {
	candidate := User{ID: u.ID, Username: username, AboutMe: aboutMe}
	candidate.Prepare()
	if msgs := candidate.Validate("update", ""); len(msgs) > 0 {
		return nil, newValidationErrors(ErrInvalidUser, msgs)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if taken, err := columnTaken(tx, "username", candidate.Username, u.ID); err != nil {
			return err
		} else if taken {
			return ErrUsernameTaken
		}
		result := tx.Model(&User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
			"username":   candidate.Username,
			"about_me":   candidate.AboutMe,
			"updated_at": time.Now().UTC(),
		})
		if result.Error != nil {
			if isUniqueViolation(result.Error) {
				return ErrUsernameTaken
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Where("id = ?", u.ID).Take(u).Error
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// TouchLastSeen records at as the user's last activity. Concurrent requests
// race and the last write wins.
func (u *User) TouchLastSeen(db *gorm.DB, at time.Time) error {
	at = at.UTC()
	if err := db.Model(&User{}).Where("id = ?", u.ID).UpdateColumn("last_seen", at).Error; err != nil {
		return err
	}
	u.LastSeen = at
	return nil
}

func FindUserByID(db *gorm.DB, uid uint) (*User, error) {
	var user User
	if err := db.Where("id = ?", uid).Take(&user).Error; err != nil {
		return nil, translateUserLookup(err)
	}
	return &user, nil
}

func FindUserByUsername(db *gorm.DB, username string) (*User, error) {
	var user User
	if err := db.Where("username = ?", strings.TrimSpace(username)).Take(&user).Error; err != nil {
		return nil, translateUserLookup(err)
	}
	return &user, nil
}

func FindUserByPublicID(db *gorm.DB, publicID string) (*User, error) {
	var user User
	if err := db.Where("public_id = ?", strings.TrimSpace(publicID)).Take(&user).Error; err != nil {
		return nil, translateUserLookup(err)
	}
	return &user, nil
}

func columnTaken(db *gorm.DB, column, value string, exceptID uint) (bool, error) {
	var count int64
	query := db.Model(&User{}).Where(column+" = ?", value)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
