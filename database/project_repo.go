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

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// withChildren preloads every owned collection in submission order.
func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Technologies", byPosition).
		Preload("Milestones", byPosition).
		Preload("Challenges", byPosition).
		Preload("Resources", byPosition).
		Preload("Images", byPosition)
}

// List returns the projects of one kind, newest start date first.
func (r *ProjectRepo) List(ctx context.Context, kind models.ProjectKind, filter ProjectFilter) ([]models.Project, error) {
	q := withChildren(r.db.WithContext(ctx)).Where("kind = ?", kind)
	if filter.Featured != nil {
		q = q.Where("is_featured = ?", *filter.Featured)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var projects []models.Project
	if err := q.Order("start_date DESC NULLS LAST").Order("id ASC").Find(&projects).Error; err != nil {
		return nil, translate(err)
	}
	return projects, nil
}

func (r *ProjectRepo) find(ctx context.Context, query string, args ...interface{}) (*models.Project, error) {
	var project models.Project
	err := withChildren(r.db.WithContext(ctx)).Where(query, args...).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

// FindByID returns a project by its ID
func (r *ProjectRepo) FindByID(ctx context.Context, kind models.ProjectKind, id uint) (*models.Project, error) {
	return r.find(ctx, "id = ? AND kind = ?", id, kind)
}

// FindBySlug returns a project by its public slug
func (r *ProjectRepo) FindBySlug(ctx context.Context, kind models.ProjectKind, slug string) (*models.Project, error) {
	return r.find(ctx, "slug = ? AND kind = ?", slug, kind)
}

// Create inserts the project and its children in one statement batch.
func (r *ProjectRepo) Create(ctx context.Context, project *models.Project) error {
	project.ID = 0
	project.Normalize()
	return translate(r.db.WithContext(ctx).Create(project).Error)
}

// Update overwrites the project row and replaces every child collection
// inside one transaction, then reloads the stored state into project.
func (r *ProjectRepo) Update(ctx context.Context, project *models.Project) error {
	project.Normalize()
	project.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).
			Where("id = ? AND kind = ?", project.ID, project.Kind).
			Select("*").
			Omit(clause.Associations, "id", "kind", "created_at").
			Updates(project)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("project %d: %w", project.ID, errs.ErrNotFound)
		}
		return replaceProjectChildren(tx, project)
	})
	if err != nil {
		return translate(err)
	}

	stored, err := r.FindByID(ctx, project.Kind, project.ID)
	if err != nil {
		return err
	}
	if stored != nil {
		*project = *stored
	}
	return nil
}

func replaceProjectChildren(tx *gorm.DB, project *models.Project) error {
	owned := []interface{}{
		&models.ProjectTechnology{},
		&models.ProjectMilestone{},
		&models.ProjectChallenge{},
		&models.ProjectResource{},
		&models.ProjectImage{},
	}
	for _, model := range owned {
		if err := tx.Where("project_id = ?", project.ID).Delete(model).Error; err != nil {
			return err
		}
	}

	if len(project.Technologies) > 0 {
		if err := tx.Create(&project.Technologies).Error; err != nil {
			return err
		}
	}
	if len(project.Milestones) > 0 {
		if err := tx.Create(&project.Milestones).Error; err != nil {
			return err
		}
	}
	if len(project.Challenges) > 0 {
		if err := tx.Create(&project.Challenges).Error; err != nil {
			return err
		}
	}
	if len(project.Resources) > 0 {
		if err := tx.Create(&project.Resources).Error; err != nil {
			return err
		}
	}
	if len(project.Images) > 0 {
		if err := tx.Create(&project.Images).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a project from the database by id. Children cascade.
func (r *ProjectRepo) Delete(ctx context.Context, kind models.ProjectKind, id uint) error {
	res := r.db.WithContext(ctx).Where("kind = ?", kind).Delete(&models.Project{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("project %d: %w", id, errs.ErrNotFound)
	}
	return nil
}
