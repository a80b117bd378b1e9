package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	d := NewDate(2024, time.March, 5)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-05"`), &decoded))
	assert.True(t, d.Equal(decoded.Time))

	require.NoError(t, json.Unmarshal([]byte(`"2024-03-05T18:30:00Z"`), &decoded))
	assert.Equal(t, "2024-03-05", decoded.String())

	assert.Error(t, json.Unmarshal([]byte(`"05/03/2024"`), &decoded))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2023-07-01", d.String())

	require.NoError(t, d.Scan("2023-08-02"))
	assert.Equal(t, "2023-08-02", d.String())

	require.NoError(t, d.Scan([]byte("2023-09-03T00:00:00Z")))
	assert.Equal(t, "2023-09-03", d.String())

	assert.Error(t, d.Scan(42))
}

func TestParseOptionalDate(t *testing.T) {
	d, err := ParseOptionalDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseOptionalDate("2024-01-01")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2024-01-01", FormatOptionalDate(d))
	assert.Equal(t, "", FormatOptionalDate(nil))

	_, err = ParseOptionalDate("2024-13-01")
	assert.Error(t, err)
}

func TestProject_DaysRemaining(t *testing.T) {
	now := time.Date(2024, time.January, 1, 15, 0, 0, 0, time.UTC)
	end := NewDate(2024, time.January, 11)
	past := NewDate(2023, time.December, 1)

	tests := []struct {
		name    string
		project Project
		want    *int
	}{
		{name: "no end date", project: Project{}, want: nil},
		{name: "ongoing ignores end date", project: Project{IsOngoing: true, EndDate: &end}, want: nil},
		{name: "future end date", project: Project{EndDate: &end}, want: intPtr(10)},
		{name: "past end date clamps to zero", project: Project{EndDate: &past}, want: intPtr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.project.DaysRemaining(now))
		})
	}
}

func TestProject_Normalize(t *testing.T) {
	end := NewDate(2024, time.January, 1)
	p := Project{
		ID:         7,
		IsOngoing:  true,
		Status:     StatusCompleted,
		EndDate:    &end,
		Completion: 140,
		Technologies: []ProjectTechnology{
			{ID: 99, Value: "go"},
			{ID: 98, Value: "postgres"},
		},
		Milestones: []ProjectMilestone{{ID: 5, Description: "ship"}},
	}

	p.Normalize()

	assert.Nil(t, p.EndDate)
	assert.Equal(t, StatusInProgress, p.Status)
	assert.Equal(t, 100, p.Completion)
	assert.NotNil(t, p.KeyAchievements)
	assert.Equal(t, []string{"go", "postgres"}, p.TechnologyValues())
	for i, tech := range p.Technologies {
		assert.Zero(t, tech.ID)
		assert.Equal(t, uint(7), tech.ProjectID)
		assert.Equal(t, i, tech.Position)
	}
	assert.Equal(t, uint(7), p.Milestones[0].ProjectID)
}

func TestProjectKind_Paths(t *testing.T) {
	assert.Equal(t, "/projects", KindProject.PublicPath())
	assert.Equal(t, "/research", KindResearch.PublicPath())
	assert.Equal(t, "/admin/research", KindResearch.AdminPath())
	assert.False(t, ProjectKind("other").Valid())
}

func TestPriority_Rank(t *testing.T) {
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Equal(t, 0, Priority("urgent").Rank())
	assert.Equal(t, 3, Project{Priority: "HIGH"}.CatalogPriority())
}

func TestGroupSkills(t *testing.T) {
	skills := []Skill{
		{Name: "Go", Category: "Languages", Proficiency: 9},
		{Name: "Docker", Category: "Tooling", Proficiency: 7},
		{Name: "Rust", Category: "Languages", Proficiency: 6},
	}

	groups := GroupSkills(skills)

	require.Len(t, groups, 2)
	assert.Equal(t, "Languages", groups[0].Category)
	assert.InDelta(t, 7.5, groups[0].Average, 0.001)
	assert.Equal(t, "Go", groups[0].Skills[0].Name)
	assert.Equal(t, "Rust", groups[0].Skills[1].Name)
	assert.Equal(t, "Tooling", groups[1].Category)
}

func TestBlogPost_CatalogFields(t *testing.T) {
	post := BlogPost{Title: "Hello", Excerpt: "intro", Published: true, Category: &BlogCategory{Slug: "notes"}}

	assert.Equal(t, PostStatusPublished, post.CatalogStatus())
	assert.Equal(t, "notes", post.CatalogCategory())
	_, ok := post.CatalogDate()
	assert.False(t, ok)

	post.Published = false
	post.Category = nil
	assert.Equal(t, PostStatusDraft, post.CatalogStatus())
	assert.Equal(t, "", post.CatalogCategory())
}

func TestGetModelFields(t *testing.T) {
	fields := getModelFields(BlogPost{})

	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "view_count")
	assert.NotContains(t, fields, "tags")
	assert.NotContains(t, fields, "category")

	mismatches := findColumnMismatches([]string{"id", "title", "legacy"}, []string{"id", "title"})
	assert.Equal(t, []string{"legacy"}, mismatches)
}

func intPtr(v int) *int { return &v }
