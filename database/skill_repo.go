package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

type SkillRepo struct {
	db *gorm.DB
}

func NewSkillRepo(db *gorm.DB) *SkillRepo {
	return &SkillRepo{db}
}

// List returns skills grouped by category, strongest first within a category
func (r *SkillRepo) List(ctx context.Context, filter SkillFilter) ([]models.Skill, error) {
	q := r.db.WithContext(ctx)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Featured != nil {
		q = q.Where("is_featured = ?", *filter.Featured)
	}

	var skills []models.Skill
	if err := q.Order("category ASC").Order("proficiency DESC").Order("name ASC").Find(&skills).Error; err != nil {
		return nil, translate(err)
	}
	return skills, nil
}

func (r *SkillRepo) FindByID(ctx context.Context, id uint) (*models.Skill, error) {
	var skill models.Skill
	err := r.db.WithContext(ctx).First(&skill, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &skill, nil
}

func (r *SkillRepo) Create(ctx context.Context, skill *models.Skill) error {
	skill.ID = 0
	return translate(r.db.WithContext(ctx).Create(skill).Error)
}

func (r *SkillRepo) Update(ctx context.Context, skill *models.Skill) error {
	skill.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Skill{}).
		Where("id = ?", skill.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(skill)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("skill %d: %w", skill.ID, errs.ErrNotFound)
	}

	stored, err := r.FindByID(ctx, skill.ID)
	if err != nil {
		return err
	}
	if stored != nil {
		*skill = *stored
	}
	return nil
}

func (r *SkillRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Skill{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("skill %d: %w", id, errs.ErrNotFound)
	}
	return nil
}
