package models

import "time"

// BlogPost represents a blog post with its tags and optional category
type BlogPost struct {
	ID         uint          `json:"id" gorm:"primaryKey;autoIncrement"`
	Title      string        `json:"title" gorm:"column:title;type:text;not null"`
	Slug       string        `json:"slug" gorm:"column:slug;type:text;not null;uniqueIndex:idx_blog_posts_slug"`
	Excerpt    string        `json:"excerpt" gorm:"column:excerpt;type:text;not null;default:''"`
	Content    string        `json:"content" gorm:"column:content;type:text;not null"`
	Published  bool          `json:"published" gorm:"column:published;not null;default:false"`
	Featured   bool          `json:"featured" gorm:"column:featured;not null;default:false"`
	CategoryID *uint         `json:"category_id,omitempty" gorm:"column:category_id;index:idx_blog_posts_category_id"`
	Category   *BlogCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	ViewCount  int64         `json:"view_count" gorm:"column:view_count;not null;default:0"`
	CreatedAt  time.Time     `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time     `json:"updated_at" gorm:"column:updated_at"`
	Tags       []BlogTag     `json:"tags" gorm:"foreignKey:BlogPostID;references:ID;constraint:OnDelete:CASCADE"`
}

// Blog post states as seen by the catalog status filter.
const (
	PostStatusPublished = "published"
	PostStatusDraft     = "draft"
)

// Normalize points tags at the post and resets their ids so they are re-inserted.
func (b *BlogPost) Normalize() {
	for i := range b.Tags {
		b.Tags[i].ID = 0
		b.Tags[i].BlogPostID = b.ID
	}
}

// TagValues returns the tags as plain strings.
func (b BlogPost) TagValues() []string {
	values := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		values = append(values, t.Value)
	}
	return values
}

func (b BlogPost) CatalogTitle() string { return b.Title }

func (b BlogPost) CatalogText() []string {
	return []string{b.Title, b.Excerpt}
}

func (b BlogPost) CatalogCategory() string {
	if b.Category == nil {
		return ""
	}
	return b.Category.Slug
}

func (b BlogPost) CatalogStatus() string {
	if b.Published {
		return PostStatusPublished
	}
	return PostStatusDraft
}

func (b BlogPost) CatalogDate() (time.Time, bool) {
	return b.CreatedAt, !b.CreatedAt.IsZero()
}

func (b BlogPost) CatalogCompletion() int { return 0 }

func (b BlogPost) CatalogPriority() int { return 0 }
