package models

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const MaxPostLength = 140

type Post struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	Body      string    `gorm:"size:140;not null" json:"body"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Author    User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"author"`
}

func (p *Post) Prepare() {
	p.ID = 0
	p.Body = strings.TrimSpace(p.Body)
	p.Author = User{}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.CreatedAt = p.CreatedAt.UTC()
}

func (p *Post) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if p.Body == "" {
		errorMessages["Required_body"] = "Body is required"
	} else if utf8.RuneCountInString(p.Body) > MaxPostLength {
		errorMessages["Invalid_body"] = fmt.Sprintf("Body should be at most %d characters", MaxPostLength)
	}
	if p.UserID == 0 {
		errorMessages["Required_user"] = "User is required"
	}
	return errorMessages
}

// CreatePost stores a new post by author. A zero at means now; passing an
// explicit time keeps tests deterministic.
func CreatePost(db *gorm.DB, author *User, body string, at time.Time) (*Post, error) {
	post := Post{Body: body, UserID: author.ID, CreatedAt: at}
	post.Prepare()
	if msgs := post.Validate(); len(msgs) > 0 {
		return nil, newValidationErrors(ErrInvalidPost, msgs)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := requireUsers(tx, author.ID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&post).Error
	})
	if err != nil {
		return nil, err
	}
	post.Author = *author
	return &post, nil
}

// PostsBy streams every post written by author, one row at a time. The order
// is whatever the store returns. Iteration stops after the first error.
func PostsBy(db *gorm.DB, author *User) iter.Seq2[Post, error] {
	return func(yield func(Post, error) bool) {
		rows, err := db.Model(&Post{}).Where("user_id = ?", author.ID).Rows()
		if err != nil {
			yield(Post{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var post Post
			if err := db.ScanRows(rows, &post); err != nil {
				yield(Post{}, err)
				return
			}
			post.Author = *author
			if !yield(post, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Post{}, err)
		}
	}
}

// CollectPosts drains seq into a slice.
func CollectPosts(seq iter.Seq2[Post, error]) ([]Post, error) {
	posts := []Post{}
	for post, err := range seq {
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func FindPostByID(db *gorm.DB, id uint) (*Post, error) {
	var post Post
	if err := db.Preload("Author").Where("id = ?", id).Take(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: post %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &post, nil
}
