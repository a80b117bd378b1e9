package database

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/models"
)

// Reads that fail because the database is unreachable are answered from the
// fallback dataset. Writes always go to the primary store.

func useFallback(ctx context.Context, fb *Fallback, op string, err error) (*MemoryStore, bool) {
	if fb == nil || !IsConnectivityError(err) || ctx.Err() != nil {
		return nil, false
	}
	store, ferr := fb.Store(ctx)
	if ferr != nil {
		log.Error().Err(ferr).Str("op", op).Msg("database unreachable and fallback dataset unavailable")
		return nil, false
	}
	log.Warn().Err(err).Str("op", op).Msg("database unreachable, serving fallback dataset")
	return store, true
}

type fallbackProjects struct {
	ProjectStore
	fallback *Fallback
}

func WithProjectFallback(primary ProjectStore, fb *Fallback) ProjectStore {
	return fallbackProjects{ProjectStore: primary, fallback: fb}
}

func (s fallbackProjects) List(ctx context.Context, kind models.ProjectKind, filter ProjectFilter) ([]models.Project, error) {
	projects, err := s.ProjectStore.List(ctx, kind, filter)
	if mem, ok := useFallback(ctx, s.fallback, "projects.list", err); ok {
		return mem.Projects().List(ctx, kind, filter)
	}
	return projects, err
}

func (s fallbackProjects) FindByID(ctx context.Context, kind models.ProjectKind, id uint) (*models.Project, error) {
	project, err := s.ProjectStore.FindByID(ctx, kind, id)
	if mem, ok := useFallback(ctx, s.fallback, "projects.find", err); ok {
		return mem.Projects().FindByID(ctx, kind, id)
	}
	return project, err
}

func (s fallbackProjects) FindBySlug(ctx context.Context, kind models.ProjectKind, slug string) (*models.Project, error) {
	project, err := s.ProjectStore.FindBySlug(ctx, kind, slug)
	if mem, ok := useFallback(ctx, s.fallback, "projects.find_slug", err); ok {
		return mem.Projects().FindBySlug(ctx, kind, slug)
	}
	return project, err
}

type fallbackBlogPosts struct {
	BlogPostStore
	fallback *Fallback
}

func WithBlogPostFallback(primary BlogPostStore, fb *Fallback) BlogPostStore {
	return fallbackBlogPosts{BlogPostStore: primary, fallback: fb}
}

func (s fallbackBlogPosts) List(ctx context.Context, filter BlogPostFilter) ([]models.BlogPost, error) {
	posts, err := s.BlogPostStore.List(ctx, filter)
	if mem, ok := useFallback(ctx, s.fallback, "blog_posts.list", err); ok {
		return mem.BlogPosts().List(ctx, filter)
	}
	return posts, err
}

func (s fallbackBlogPosts) FindByID(ctx context.Context, id uint) (*models.BlogPost, error) {
	post, err := s.BlogPostStore.FindByID(ctx, id)
	if mem, ok := useFallback(ctx, s.fallback, "blog_posts.find", err); ok {
		return mem.BlogPosts().FindByID(ctx, id)
	}
	return post, err
}

func (s fallbackBlogPosts) FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	post, err := s.BlogPostStore.FindBySlug(ctx, slug)
	if mem, ok := useFallback(ctx, s.fallback, "blog_posts.find_slug", err); ok {
		return mem.BlogPosts().FindBySlug(ctx, slug)
	}
	return post, err
}

type fallbackBlogCategories struct {
	BlogCategoryStore
	fallback *Fallback
}

func WithBlogCategoryFallback(primary BlogCategoryStore, fb *Fallback) BlogCategoryStore {
	return fallbackBlogCategories{BlogCategoryStore: primary, fallback: fb}
}

func (s fallbackBlogCategories) List(ctx context.Context) ([]models.BlogCategory, error) {
	categories, err := s.BlogCategoryStore.List(ctx)
	if mem, ok := useFallback(ctx, s.fallback, "blog_categories.list", err); ok {
		return mem.BlogCategories().List(ctx)
	}
	return categories, err
}

type fallbackSkills struct {
	SkillStore
	fallback *Fallback
}

func WithSkillFallback(primary SkillStore, fb *Fallback) SkillStore {
	return fallbackSkills{SkillStore: primary, fallback: fb}
}

func (s fallbackSkills) List(ctx context.Context, filter SkillFilter) ([]models.Skill, error) {
	skills, err := s.SkillStore.List(ctx, filter)
	if mem, ok := useFallback(ctx, s.fallback, "skills.list", err); ok {
		return mem.Skills().List(ctx, filter)
	}
	return skills, err
}

func (s fallbackSkills) FindByID(ctx context.Context, id uint) (*models.Skill, error) {
	skill, err := s.SkillStore.FindByID(ctx, id)
	if mem, ok := useFallback(ctx, s.fallback, "skills.find", err); ok {
		return mem.Skills().FindByID(ctx, id)
	}
	return skill, err
}
