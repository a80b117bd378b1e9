package models

// BlogTag represents a tag associated with a blog post
type BlogTag struct {
	ID         uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	BlogPostID uint   `json:"-" gorm:"column:blog_post_id;not null;index:idx_blog_tags_blog_post_id;uniqueIndex:idx_blog_tags_unique"`
	Value      string `json:"value" gorm:"column:value;type:text;not null;uniqueIndex:idx_blog_tags_unique"`
}
