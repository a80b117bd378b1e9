//go:build integration

package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		ctx := context.Background()
		req := testcontainers.ContainerRequest{
			Image: "postgres:15",
			Env: map[string]string{
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_USER":     "test",
				"POSTGRES_DB":       "portfolio",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		}
		pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = pg.Terminate(ctx) })

		host, err := pg.Host(ctx)
		require.NoError(t, err)
		port, err := pg.MappedPort(ctx, "5432")
		require.NoError(t, err)
		dsn = fmt.Sprintf("postgres://test:test@%s:%s/portfolio?sslmode=disable", host, port.Port())
	}

	var db *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = Open(Options{DSN: dsn, SlowThreshold: time.Second})
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestIntegration_ProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepo(setupPostgres(t))

	start := models.NewDate(2024, 2, 1)
	due := models.NewDate(2024, 3, 1)
	p := models.Project{
		Kind:            models.KindResearch,
		Title:           "Retrieval study",
		Slug:            "retrieval-study",
		Description:     "desc",
		Priority:        models.PriorityHigh,
		Status:          models.StatusInProgress,
		StartDate:       &start,
		IsOngoing:       true,
		KeyAchievements: []string{"harness"},
		Technologies:    []models.ProjectTechnology{{Value: "Python"}, {Value: "Go"}},
		Milestones:      []models.ProjectMilestone{{Description: "dataset", DueDate: &due}},
		Resources:       []models.ProjectResource{{Title: "paper", URL: "https://arxiv.org/abs/1", Type: "paper"}},
	}
	require.NoError(t, repo.Create(ctx, &p))
	require.NotZero(t, p.ID)

	found, err := repo.FindBySlug(ctx, models.KindResearch, "retrieval-study")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.ElementsMatch(t, []string{"Python", "Go"}, found.TechnologyValues())
	require.Len(t, found.Milestones, 1)
	assert.Equal(t, "2024-03-01", found.Milestones[0].DueDate.String())
	assert.Equal(t, []string{"harness"}, []string(found.KeyAchievements))

	wrongKind, err := repo.FindByID(ctx, models.KindProject, p.ID)
	require.NoError(t, err)
	assert.Nil(t, wrongKind)

	found.Technologies = []models.ProjectTechnology{{Value: "Rust"}}
	found.Milestones = nil
	require.NoError(t, repo.Update(ctx, found))
	assert.Equal(t, []string{"Rust"}, found.TechnologyValues())
	assert.Empty(t, found.Milestones)

	dup := models.Project{Kind: models.KindResearch, Title: "x", Slug: "retrieval-study", Description: "d"}
	assert.ErrorIs(t, repo.Create(ctx, &dup), errs.ErrUniqueConstraintViolation)

	require.NoError(t, repo.Delete(ctx, models.KindResearch, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, models.KindResearch, p.ID), errs.ErrNotFound)
}

func TestIntegration_BlogPostViews(t *testing.T) {
	ctx := context.Background()
	db := setupPostgres(t)
	posts := NewBlogPostRepo(db)
	categories := NewBlogCategoryRepo(db)

	cat := models.BlogCategory{Name: "Notes", Slug: "notes"}
	require.NoError(t, categories.Create(ctx, &cat))

	post := models.BlogPost{Title: "Hi", Slug: "hi", Content: "c", Published: true, CategoryID: &cat.ID,
		Tags: []models.BlogTag{{Value: "go"}}}
	require.NoError(t, posts.Create(ctx, &post))
	require.NoError(t, posts.IncrementViews(ctx, post.ID))

	post.ViewCount = 0
	post.Tags = []models.BlogTag{{Value: "sql"}}
	require.NoError(t, posts.Update(ctx, &post))
	assert.EqualValues(t, 1, post.ViewCount)
	assert.Equal(t, []string{"sql"}, post.TagValues())

	listed, err := posts.List(ctx, BlogPostFilter{PublishedOnly: true, CategorySlug: "notes"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Category)

	require.NoError(t, categories.Delete(ctx, cat.ID))
	found, err := posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, found.CategoryID)
}
