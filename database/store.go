package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// ProjectFilter narrows List at the store. Criteria-based filtering and
// ordering happen in the catalog package.
type ProjectFilter struct {
	Featured *bool
	Limit    int
}

type BlogPostFilter struct {
	PublishedOnly bool
	Featured      *bool
	CategorySlug  string
	Limit         int
}

type SkillFilter struct {
	Category string
	Featured *bool
}

// Find methods return nil, nil when nothing matches. Update and Delete return
// an error wrapping errs.ErrNotFound for a missing id.
type ProjectStore interface {
	List(ctx context.Context, kind models.ProjectKind, filter ProjectFilter) ([]models.Project, error)
	FindByID(ctx context.Context, kind models.ProjectKind, id uint) (*models.Project, error)
	FindBySlug(ctx context.Context, kind models.ProjectKind, slug string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	// Update replaces the scalar fields and every child collection.
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, kind models.ProjectKind, id uint) error
}

type BlogPostStore interface {
	List(ctx context.Context, filter BlogPostFilter) ([]models.BlogPost, error)
	FindByID(ctx context.Context, id uint) (*models.BlogPost, error)
	FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	Create(ctx context.Context, post *models.BlogPost) error
	// Update replaces the post and its tags. The view count is never written.
	Update(ctx context.Context, post *models.BlogPost) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
}

type BlogCategoryStore interface {
	List(ctx context.Context) ([]models.BlogCategory, error)
	Create(ctx context.Context, category *models.BlogCategory) error
	Delete(ctx context.Context, id uint) error
}

type SkillStore interface {
	List(ctx context.Context, filter SkillFilter) ([]models.Skill, error)
	FindByID(ctx context.Context, id uint) (*models.Skill, error)
	Create(ctx context.Context, skill *models.Skill) error
	Update(ctx context.Context, skill *models.Skill) error
	Delete(ctx context.Context, id uint) error
}

// translate maps driver and gorm errors onto the errs sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", errs.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", errs.ErrUniqueConstraintViolation, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", errs.ErrForeignKeyConstraint, err)
	case IsConnectivityError(err) && !errors.Is(err, errs.ErrDatabaseConnection):
		return fmt.Errorf("%w: %v", errs.ErrDatabaseConnection, err)
	}
	return err
}

// IsConnectivityError reports whether err means the database could not be
// reached, as opposed to a failed query. A canceled request is not one.
func IsConnectivityError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errs.IsDatabaseConnectionError(err) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, errNoDatabase) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"no such host",
		"failed to connect",
		"connection reset",
		"broken pipe",
		"server closed the connection",
		"i/o timeout",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
