package models

import (
	"sort"

	"gorm.io/gorm"
)

// FollowedPosts returns the viewer's feed: their own posts plus posts from
// everyone they follow, newest first. Posts sharing a timestamp are ordered
// by descending id.
func FollowedPosts(db *gorm.DB, viewer *User) ([]Post, error) {
	followed, err := FollowedIDs(db, viewer)
	if err != nil {
		return nil, err
	}
	authorIDs := uniqueIDs(append(followed, viewer.ID))

	posts := []Post{}
	err = db.Preload("Author").
		Where("user_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	posts = DedupePosts(posts)
	SortFeed(posts)
	return posts, nil
}

// DedupePosts drops repeated post ids, keeping the first occurrence.
func DedupePosts(posts []Post) []Post {
	seen := make(map[uint]struct{}, len(posts))
	out := posts[:0]
	for _, post := range posts {
		if _, ok := seen[post.ID]; ok {
			continue
		}
		seen[post.ID] = struct{}{}
		out = append(out, post)
	}
	return out
}

// SortFeed orders posts newest first, breaking timestamp ties by id.
func SortFeed(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
