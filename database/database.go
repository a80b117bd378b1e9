package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

type Database struct {
	projectRepo      ProjectStore
	blogPostRepo     BlogPostStore
	blogCategoryRepo BlogCategoryStore
	skillRepo        SkillStore
	ping             func(ctx context.Context) error
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		projectRepo:      NewProjectRepo(db),
		blogPostRepo:     NewBlogPostRepo(db),
		blogCategoryRepo: NewBlogCategoryRepo(db),
		skillRepo:        NewSkillRepo(db),
		ping: func(ctx context.Context) error {
			var result int
			return translate(db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error)
		},
	}
}

// NewMemory serves every store from m.
func NewMemory(m *MemoryStore) Database {
	return Database{
		projectRepo:      m.Projects(),
		blogPostRepo:     m.BlogPosts(),
		blogCategoryRepo: m.BlogCategories(),
		skillRepo:        m.Skills(),
		ping:             func(context.Context) error { return nil },
	}
}

// Unavailable is the Database used when the server starts without a reachable
// database. Every call fails with a connection error, so with a fallback
// attached reads are served from the dataset and writes answer 503.
func Unavailable(cause error) Database {
	u := unavailable{cause: fmt.Errorf("%w: %v", errs.ErrDatabaseConnection, cause)}
	return Database{
		projectRepo:      u,
		blogPostRepo:     unavailablePosts{u},
		blogCategoryRepo: unavailableCategories{u},
		skillRepo:        unavailableSkills{u},
		ping:             func(context.Context) error { return u.cause },
	}
}

// WithFallback wraps every store so reads survive a database outage.
func (d Database) WithFallback(fb *Fallback) Database {
	if fb == nil {
		return d
	}
	d.projectRepo = WithProjectFallback(d.projectRepo, fb)
	d.blogPostRepo = WithBlogPostFallback(d.blogPostRepo, fb)
	d.blogCategoryRepo = WithBlogCategoryFallback(d.blogCategoryRepo, fb)
	d.skillRepo = WithSkillFallback(d.skillRepo, fb)
	return d
}

// Accessor methods for each repository

func (d Database) ProjectRepo() ProjectStore {
	return d.projectRepo
}

func (d Database) BlogPostRepo() BlogPostStore {
	return d.blogPostRepo
}

func (d Database) BlogCategoryRepo() BlogCategoryStore {
	return d.blogCategoryRepo
}

func (d Database) SkillRepo() SkillStore {
	return d.skillRepo
}

// Ping checks that the primary store answers.
func (d Database) Ping(ctx context.Context) error {
	if d.ping == nil {
		return errNoDatabase
	}
	return d.ping(ctx)
}

// unavailable implements ProjectStore; the wrappers below cover the rest.
type unavailable struct {
	cause error
}

func (u unavailable) List(context.Context, models.ProjectKind, ProjectFilter) ([]models.Project, error) {
	return nil, u.cause
}

func (u unavailable) FindByID(context.Context, models.ProjectKind, uint) (*models.Project, error) {
	return nil, u.cause
}

func (u unavailable) FindBySlug(context.Context, models.ProjectKind, string) (*models.Project, error) {
	return nil, u.cause
}

func (u unavailable) Create(context.Context, *models.Project) error { return u.cause }

func (u unavailable) Update(context.Context, *models.Project) error { return u.cause }

func (u unavailable) Delete(context.Context, models.ProjectKind, uint) error { return u.cause }

type unavailablePosts struct{ unavailable }

func (u unavailablePosts) List(context.Context, BlogPostFilter) ([]models.BlogPost, error) {
	return nil, u.cause
}

func (u unavailablePosts) FindByID(context.Context, uint) (*models.BlogPost, error) {
	return nil, u.cause
}

func (u unavailablePosts) FindBySlug(context.Context, string) (*models.BlogPost, error) {
	return nil, u.cause
}

func (u unavailablePosts) Create(context.Context, *models.BlogPost) error { return u.cause }

func (u unavailablePosts) Update(context.Context, *models.BlogPost) error { return u.cause }

func (u unavailablePosts) Delete(context.Context, uint) error { return u.cause }

func (u unavailablePosts) IncrementViews(context.Context, uint) error { return u.cause }

type unavailableCategories struct{ unavailable }

func (u unavailableCategories) List(context.Context) ([]models.BlogCategory, error) {
	return nil, u.cause
}

func (u unavailableCategories) Create(context.Context, *models.BlogCategory) error { return u.cause }

func (u unavailableCategories) Delete(context.Context, uint) error { return u.cause }

type unavailableSkills struct{ unavailable }

func (u unavailableSkills) List(context.Context, SkillFilter) ([]models.Skill, error) {
	return nil, u.cause
}

func (u unavailableSkills) FindByID(context.Context, uint) (*models.Skill, error) {
	return nil, u.cause
}

func (u unavailableSkills) Create(context.Context, *models.Skill) error { return u.cause }

func (u unavailableSkills) Update(context.Context, *models.Skill) error { return u.cause }

func (u unavailableSkills) Delete(context.Context, uint) error { return u.cause }
