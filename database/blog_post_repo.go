package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

type BlogPostRepo struct {
	db *gorm.DB
}

func NewBlogPostRepo(db *gorm.DB) *BlogPostRepo {
	return &BlogPostRepo{db}
}

func withTagsAndCategory(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).Preload("Category")
}

// List returns blog posts, newest first
func (r *BlogPostRepo) List(ctx context.Context, filter BlogPostFilter) ([]models.BlogPost, error) {
	q := withTagsAndCategory(r.db.WithContext(ctx))
	if filter.PublishedOnly {
		q = q.Where("published = ?", true)
	}
	if filter.Featured != nil {
		q = q.Where("featured = ?", *filter.Featured)
	}
	if filter.CategorySlug != "" {
		q = q.Where("category_id IN (?)", r.db.Model(&models.BlogCategory{}).Select("id").Where("slug = ?", filter.CategorySlug))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var posts []models.BlogPost
	if err := q.Order("created_at DESC").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (r *BlogPostRepo) find(ctx context.Context, query string, args ...interface{}) (*models.BlogPost, error) {
	var post models.BlogPost
	err := withTagsAndCategory(r.db.WithContext(ctx)).Where(query, args...).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// FindByID returns a blog post by its ID
func (r *BlogPostRepo) FindByID(ctx context.Context, id uint) (*models.BlogPost, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *BlogPostRepo) FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return r.find(ctx, "slug = ?", slug)
}

// Create inserts a new blog post and its tags
func (r *BlogPostRepo) Create(ctx context.Context, post *models.BlogPost) error {
	post.ID = 0
	post.ViewCount = 0
	post.Category = nil
	post.Normalize()
	if err := r.db.WithContext(ctx).Omit("Category").Create(post).Error; err != nil {
		return translate(err)
	}
	return r.reload(ctx, post)
}

// Update overwrites the post and replaces its tags in one transaction.
func (r *BlogPostRepo) Update(ctx context.Context, post *models.BlogPost) error {
	post.Normalize()
	post.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BlogPost{}).
			Where("id = ?", post.ID).
			Select("*").
			Omit(clause.Associations, "id", "created_at", "view_count").
			Updates(post)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("blog post %d: %w", post.ID, errs.ErrNotFound)
		}
		if err := tx.Where("blog_post_id = ?", post.ID).Delete(&models.BlogTag{}).Error; err != nil {
			return err
		}
		if len(post.Tags) > 0 {
			return tx.Create(&post.Tags).Error
		}
		return nil
	})
	if err != nil {
		return translate(err)
	}
	return r.reload(ctx, post)
}

func (r *BlogPostRepo) reload(ctx context.Context, post *models.BlogPost) error {
	stored, err := r.FindByID(ctx, post.ID)
	if err != nil {
		return err
	}
	if stored != nil {
		*post = *stored
	}
	return nil
}

// Delete removes a blog post from the database by id
func (r *BlogPostRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.BlogPost{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("blog post %d: %w", id, errs.ErrNotFound)
	}
	return nil
}

// IncrementViews adds one view atomically in the database.
func (r *BlogPostRepo) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.BlogPost{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("blog post %d: %w", id, errs.ErrNotFound)
	}
	return nil
}

type BlogCategoryRepo struct {
	db *gorm.DB
}

func NewBlogCategoryRepo(db *gorm.DB) *BlogCategoryRepo {
	return &BlogCategoryRepo{db}
}

func (r *BlogCategoryRepo) List(ctx context.Context) ([]models.BlogCategory, error) {
	var categories []models.BlogCategory
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, translate(err)
	}
	return categories, nil
}

func (r *BlogCategoryRepo) Create(ctx context.Context, category *models.BlogCategory) error {
	category.ID = 0
	return translate(r.db.WithContext(ctx).Create(category).Error)
}

// Delete removes the category; its posts keep existing without one.
func (r *BlogCategoryRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.BlogCategory{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("blog category %d: %w", id, errs.ErrNotFound)
	}
	return nil
}
