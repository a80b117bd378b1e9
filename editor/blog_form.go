package editor

import (
	"strings"

	"github.com/rpupo63/portfolio-backend/models"
)

// BlogPostForm is the editable state of a blog post.
type BlogPostForm struct {
	ID         uint      `json:"id,omitempty"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	SlugEdited bool      `json:"slug_edited"`
	Excerpt    string    `json:"excerpt"`
	Content    string    `json:"content"`
	Published  bool      `json:"published"`
	Featured   bool      `json:"featured"`
	CategoryID *uint     `json:"category_id"`
	Tags       List[Tag] `json:"tags"`
}

func NewBlogPostForm() BlogPostForm {
	return BlogPostForm{Tags: List[Tag]{}}
}

func FromBlogPost(b models.BlogPost) BlogPostForm {
	f := NewBlogPostForm()
	f.ID = b.ID
	f.Title = b.Title
	f.Slug = b.Slug
	f.SlugEdited = b.Slug != ""
	f.Excerpt = b.Excerpt
	f.Content = b.Content
	f.Published = b.Published
	f.Featured = b.Featured
	f.CategoryID = b.CategoryID
	for _, t := range b.Tags {
		f.Tags = append(f.Tags, Tag(t.Value))
	}
	return f
}

func (f *BlogPostForm) GenerateSlug() string {
	f.Slug = autoSlug(f.Slug, f.SlugEdited, f.Title)
	return f.Slug
}

func (f *BlogPostForm) SetSlug(slug string) {
	f.Slug = strings.TrimSpace(slug)
	f.SlugEdited = f.Slug != ""
}

func (f BlogPostForm) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.require("title", f.Title)
	fe.require("slug", f.Slug)
	if f.Slug != "" && !IsValidSlug(f.Slug) {
		fe.Add("slug", "slug may only contain lowercase letters, numbers and single hyphens")
	}
	fe.require("content", f.Content)
	if f.CategoryID != nil && *f.CategoryID == 0 {
		fe.Add("category_id", "category_id must reference a category")
	}

	f.Tags.check(fe, "tags")
	seen := make(map[string]bool)
	for _, t := range f.Tags {
		v := strings.ToLower(strings.TrimSpace(string(t)))
		if v != "" && seen[v] {
			fe.Add("tags", "tags must be unique")
		}
		seen[v] = true
	}
	return fe
}

// Payload validates the form and converts it into a blog post. Duplicate
// tags are rejected by Validate, so the tag list maps one to one.
func (f BlogPostForm) Payload() (models.BlogPost, error) {
	if err := f.Validate().Err(); err != nil {
		return models.BlogPost{}, err
	}

	b := models.BlogPost{
		ID:         f.ID,
		Title:      strings.TrimSpace(f.Title),
		Slug:       f.Slug,
		Excerpt:    strings.TrimSpace(f.Excerpt),
		Content:    f.Content,
		Published:  f.Published,
		Featured:   f.Featured,
		CategoryID: f.CategoryID,
		Tags:       make([]models.BlogTag, 0, len(f.Tags)),
	}
	for _, t := range f.Tags {
		b.Tags = append(b.Tags, models.BlogTag{Value: strings.TrimSpace(string(t))})
	}
	b.Normalize()
	return b, nil
}
