package models

// Group is a named category that posts can optionally belong to.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
}

// TableName specifies the table name for GORM
func (Group) TableName() string {
	return "post_groups"
}

func (g Group) String() string {
	return g.Title
}
