package models

// BlogCategory groups blog posts
type BlogCategory struct {
	ID   uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"column:name;type:text;not null;uniqueIndex:idx_blog_categories_name"`
	Slug string `json:"slug" gorm:"column:slug;type:text;not null;uniqueIndex:idx_blog_categories_slug"`
}
