package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// MemoryStore keeps every entity in process memory. It backs the fallback
// dataset and the handler tests. Values are copied in and out so callers
// never share state with the store.
type MemoryStore struct {
	mu         sync.RWMutex
	projects   []models.Project
	posts      []models.BlogPost
	categories []models.BlogCategory
	skills     []models.Skill
	nextID     uint
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, now: time.Now}
}

// NewMemoryStoreFrom loads a dataset, keeping ids that are set and assigning the rest.
func NewMemoryStoreFrom(data Dataset) *MemoryStore {
	m := NewMemoryStore()
	for _, p := range data.allProjects() {
		m.bumpID(p.ID)
	}
	for _, c := range data.BlogCategories {
		m.bumpID(c.ID)
	}
	for _, b := range data.BlogPosts {
		m.bumpID(b.ID)
	}
	for _, s := range data.Skills {
		m.bumpID(s.ID)
	}

	for _, p := range data.allProjects() {
		if p.ID == 0 {
			p.ID = m.allocID()
		}
		p.Normalize()
		m.projects = append(m.projects, cloneProject(p))
	}
	for _, c := range data.BlogCategories {
		if c.ID == 0 {
			c.ID = m.allocID()
		}
		m.categories = append(m.categories, c)
	}
	for _, b := range data.BlogPosts {
		if b.ID == 0 {
			b.ID = m.allocID()
		}
		b.Normalize()
		b.Category = nil
		m.posts = append(m.posts, cloneBlogPost(b))
	}
	for _, s := range data.Skills {
		if s.ID == 0 {
			s.ID = m.allocID()
		}
		m.skills = append(m.skills, s)
	}
	return m
}

func (m *MemoryStore) bumpID(id uint) {
	if id >= m.nextID {
		m.nextID = id + 1
	}
}

func (m *MemoryStore) allocID() uint {
	id := m.nextID
	m.nextID++
	return id
}

func (m *MemoryStore) Projects() ProjectStore { return memoryProjects{m} }
func (m *MemoryStore) BlogPosts() BlogPostStore { return memoryBlogPosts{m} }
func (m *MemoryStore) BlogCategories() BlogCategoryStore { return memoryBlogCategories{m} }
func (m *MemoryStore) Skills() SkillStore { return memorySkills{m} }

func cloneProject(p models.Project) models.Project {
	p.KeyAchievements = append(p.KeyAchievements[:0:0], p.KeyAchievements...)
	p.Technologies = append(p.Technologies[:0:0], p.Technologies...)
	p.Milestones = append(p.Milestones[:0:0], p.Milestones...)
	p.Challenges = append(p.Challenges[:0:0], p.Challenges...)
	p.Resources = append(p.Resources[:0:0], p.Resources...)
	p.Images = append(p.Images[:0:0], p.Images...)
	return p
}

func cloneBlogPost(b models.BlogPost) models.BlogPost {
	b.Tags = append(b.Tags[:0:0], b.Tags...)
	if b.Category != nil {
		c := *b.Category
		b.Category = &c
	}
	return b
}

type memoryProjects struct{ m *MemoryStore }

func (s memoryProjects) List(ctx context.Context, kind models.ProjectKind, filter ProjectFilter) ([]models.Project, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	out := []models.Project{}
	for _, p := range s.m.projects {
		if p.Kind != kind {
			continue
		}
		if filter.Featured != nil && p.IsFeatured != *filter.Featured {
			continue
		}
		out = append(out, cloneProject(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].StartDate, out[j].StartDate
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.After(b.Time)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s memoryProjects) find(match func(models.Project) bool) *models.Project {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, p := range s.m.projects {
		if match(p) {
			found := cloneProject(p)
			return &found
		}
	}
	return nil
}

func (s memoryProjects) FindByID(ctx context.Context, kind models.ProjectKind, id uint) (*models.Project, error) {
	return s.find(func(p models.Project) bool { return p.ID == id && p.Kind == kind }), nil
}

func (s memoryProjects) FindBySlug(ctx context.Context, kind models.ProjectKind, slug string) (*models.Project, error) {
	return s.find(func(p models.Project) bool { return p.Slug == slug && p.Kind == kind }), nil
}

func (s memoryProjects) slugTaken(kind models.ProjectKind, slug string, except uint) bool {
	for _, p := range s.m.projects {
		if p.Kind == kind && p.Slug == slug && p.ID != except {
			return true
		}
	}
	return false
}

func (s memoryProjects) Create(ctx context.Context, project *models.Project) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if s.slugTaken(project.Kind, project.Slug, 0) {
		return fmt.Errorf("project slug %q: %w", project.Slug, errs.ErrUniqueConstraintViolation)
	}
	project.ID = s.m.allocID()
	project.CreatedAt = s.m.now()
	project.UpdatedAt = project.CreatedAt
	project.Normalize()
	s.m.projects = append(s.m.projects, cloneProject(*project))
	return nil
}

func (s memoryProjects) Update(ctx context.Context, project *models.Project) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i, existing := range s.m.projects {
		if existing.ID != project.ID || existing.Kind != project.Kind {
			continue
		}
		if s.slugTaken(project.Kind, project.Slug, project.ID) {
			return fmt.Errorf("project slug %q: %w", project.Slug, errs.ErrUniqueConstraintViolation)
		}
		project.CreatedAt = existing.CreatedAt
		project.UpdatedAt = s.m.now()
		project.Normalize()
		s.m.projects[i] = cloneProject(*project)
		return nil
	}
	return fmt.Errorf("project %d: %w", project.ID, errs.ErrNotFound)
}

func (s memoryProjects) Delete(ctx context.Context, kind models.ProjectKind, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i, p := range s.m.projects {
		if p.ID == id && p.Kind == kind {
			s.m.projects = append(s.m.projects[:i], s.m.projects[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("project %d: %w", id, errs.ErrNotFound)
}

type memoryBlogPosts struct{ m *MemoryStore }

// withCategory attaches the category the way the repo preloads it. Caller holds the lock.
func (s memoryBlogPosts) withCategory(b models.BlogPost) models.BlogPost {
	b = cloneBlogPost(b)
	b.Category = nil
	if b.CategoryID == nil {
		return b
	}
	for _, c := range s.m.categories {
		if c.ID == *b.CategoryID {
			category := c
			b.Category = &category
		}
	}
	return b
}

func (s memoryBlogPosts) List(ctx context.Context, filter BlogPostFilter) ([]models.BlogPost, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	out := []models.BlogPost{}
	for _, b := range s.m.posts {
		if filter.PublishedOnly && !b.Published {
			continue
		}
		if filter.Featured != nil && b.Featured != *filter.Featured {
			continue
		}
		post := s.withCategory(b)
		if filter.CategorySlug != "" && (post.Category == nil || post.Category.Slug != filter.CategorySlug) {
			continue
		}
		out = append(out, post)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s memoryBlogPosts) find(match func(models.BlogPost) bool) *models.BlogPost {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, b := range s.m.posts {
		if match(b) {
			post := s.withCategory(b)
			return &post
		}
	}
	return nil
}

func (s memoryBlogPosts) FindByID(ctx context.Context, id uint) (*models.BlogPost, error) {
	return s.find(func(b models.BlogPost) bool { return b.ID == id }), nil
}

func (s memoryBlogPosts) FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return s.find(func(b models.BlogPost) bool { return b.Slug == slug }), nil
}

func (s memoryBlogPosts) slugTaken(slug string, except uint) bool {
	for _, b := range s.m.posts {
		if b.Slug == slug && b.ID != except {
			return true
		}
	}
	return false
}

func (s memoryBlogPosts) Create(ctx context.Context, post *models.BlogPost) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if s.slugTaken(post.Slug, 0) {
		return fmt.Errorf("blog post slug %q: %w", post.Slug, errs.ErrUniqueConstraintViolation)
	}
	post.ID = s.m.allocID()
	post.ViewCount = 0
	post.CreatedAt = s.m.now()
	post.UpdatedAt = post.CreatedAt
	post.Normalize()
	s.m.posts = append(s.m.posts, cloneBlogPost(*post))
	*post = s.withCategory(*post)
	return nil
}

func (s memoryBlogPosts) Update(ctx context.Context, post *models.BlogPost) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i, existing := range s.m.posts {
		if existing.ID != post.ID {
			continue
		}
		if s.slugTaken(post.Slug, post.ID) {
			return fmt.Errorf("blog post slug %q: %w", post.Slug, errs.ErrUniqueConstraintViolation)
		}
		post.ViewCount = existing.ViewCount
		post.CreatedAt = existing.CreatedAt
		post.UpdatedAt = s.m.now()
		post.Normalize()
		s.m.posts[i] = cloneBlogPost(*post)
		*post = s.withCategory(*post)
		return nil
	}
	return fmt.Errorf("blog post %d: %w", post.ID, errs.ErrNotFound)
}

func (s memoryBlogPosts) Delete(ctx context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i, b := range s.m.posts {
		if b.ID == id {
			s.m.posts = append(s.m.posts[:i], s.m.posts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("blog post %d: %w", id, errs.ErrNotFound)
}

func (s memoryBlogPosts) IncrementViews(ctx context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i := range s.m.posts {
		if s.m.posts[i].ID == id {
			s.m.posts[i].ViewCount++
			return nil
		}
	}
	return fmt.Errorf("blog post %d: %w", id, errs.ErrNotFound)
}

type memoryBlogCategories struct{ m *MemoryStore }

func (s memoryBlogCategories) List(ctx context.Context) ([]models.BlogCategory, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	out := append([]models.BlogCategory{}, s.m.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s memoryBlogCategories) Create(ctx context.Context, category *models.BlogCategory) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, c := range s.m.categories {
		if c.Slug == category.Slug || c.Name == category.Name {
			return fmt.Errorf("blog category %q: %w", category.Slug, errs.ErrUniqueConstraintViolation)
		}
	}
	category.ID = s.m.allocID()
	s.m.categories = append(s.m.categories, *category)
	return nil
}

func (s memoryBlogCategories) Delete(ctx context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i, c := range s.m.categories {
		if c.ID != id {
			continue
		}
		s.m.categories = append(s.m.categories[:i], s.m.categories[i+1:]...)
		for j := range s.m.posts {
			if s.m.posts[j].CategoryID != nil && *s.m.posts[j].CategoryID == id {
				s.m.posts[j].CategoryID = nil
			}
		}
		return nil
	}
	return fmt.Errorf("blog category %d: %w", id, errs.ErrNotFound)
}

type memorySkills struct{ m *MemoryStore }

func (s memorySkills) List(ctx context.Context, filter SkillFilter) ([]models.Skill, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	out := []models.Skill{}
	for _, sk := range s.m.skills {
		if filter.Category != "" && sk.Category != filter.Category {
			continue
		}
		if filter.Featured != nil && sk.IsFeatured != *filter.Featured {
			continue
		}
		out = append(out, sk)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].Proficiency != out[j].Proficiency {
			return out[i].Proficiency > out[j].Proficiency
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s memorySkills) FindByID(ctx context.Context, id uint) (*models.Skill, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, sk := range s.m.skills {
		if sk.ID == id {
			found := sk
			return &found, nil
		}
	}
	return nil, nil
}

func (s memorySkills) nameTaken(name string, except uint) bool {
	for _, sk := range s.m.skills {
		if sk.Name == name && sk.ID != except {
			return true
		}
	}
	return false
}

func (s memorySkills) Create(ctx context.Context, skill *models.Skill) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if s.nameTaken(skill.Name, 0) {
		return fmt.Errorf("skill %q: %w", skill.Name, errs.ErrUniqueConstraintViolation)
	}
	skill.ID = s.m.allocID()
	skill.CreatedAt = s.m.now()
	skill.UpdatedAt = skill.CreatedAt
	s.m.skills = append(s.m.skills, *skill)
	return nil
}

func (s memorySkills) Update(ctx context.Context, skill *models.Skill) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i, existing := range s.m.skills {
		if existing.ID != skill.ID {
			continue
		}
		if s.nameTaken(skill.Name, skill.ID) {
			return fmt.Errorf("skill %q: %w", skill.Name, errs.ErrUniqueConstraintViolation)
		}
		skill.CreatedAt = existing.CreatedAt
		skill.UpdatedAt = s.m.now()
		s.m.skills[i] = *skill
		return nil
	}
	return fmt.Errorf("skill %d: %w", skill.ID, errs.ErrNotFound)
}

func (s memorySkills) Delete(ctx context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i, sk := range s.m.skills {
		if sk.ID == id {
			s.m.skills = append(s.m.skills[:i], s.m.skills[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("skill %d: %w", id, errs.ErrNotFound)
}
