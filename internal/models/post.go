package models

import (
	"time"
)

// PostPreviewLength is how many characters of the text String() shows.
const PostPreviewLength = 15

// Post is a user-authored text entry, optionally grouped and illustrated.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_posts_created_at;<-:create" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"group,omitempty"`
	// Image is the storage object key; empty when the post has no picture.
	Image string `gorm:"size:255;not null;default:''" json:"-"`
	// ImageURL is resolved from Image by the service layer and never persisted.
	ImageURL string `gorm:"-" json:"image_url,omitempty"`
}

// String returns a short preview of the post text.
func (p Post) String() string {
	r := []rune(p.Text)
	if len(r) <= PostPreviewLength {
		return p.Text
	}
	return string(r[:PostPreviewLength])
}

// IsAuthoredBy reports whether userID wrote the post.
func (p Post) IsAuthoredBy(userID uint) bool {
	return userID != 0 && p.AuthorID == userID
}
