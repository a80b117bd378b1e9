package models

import (
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ProjectKind separates portfolio projects from research projects. Both share
// one table and one shape.
type ProjectKind string

const (
	KindProject  ProjectKind = "project"
	KindResearch ProjectKind = "research"
)

// Valid reports whether k is a known kind.
func (k ProjectKind) Valid() bool {
	return k == KindProject || k == KindResearch
}

// PublicPath is the root of the public, slug-keyed routes for this kind.
func (k ProjectKind) PublicPath() string {
	if k == KindResearch {
		return "/research"
	}
	return "/projects"
}

// AdminPath is the root of the admin, id-keyed routes for this kind.
func (k ProjectKind) AdminPath() string {
	return "/admin" + k.PublicPath()
}

// Priority of a project.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities: high=3 > medium=2 > low=1. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Well-known project statuses. Status is free text; these are the values the
// editor writes itself.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in-progress"
	StatusPlanned    = "planned"
)

// Project represents a portfolio or research project with its owned child collections.
type Project struct {
	ID              uint                        `json:"id" gorm:"primaryKey;autoIncrement"`
	Kind            ProjectKind                 `json:"kind" gorm:"column:kind;type:text;not null;uniqueIndex:idx_projects_kind_slug"`
	Title           string                      `json:"title" gorm:"column:title;type:text;not null"`
	Slug            string                      `json:"slug" gorm:"column:slug;type:text;not null;uniqueIndex:idx_projects_kind_slug"`
	Description     string                      `json:"description" gorm:"column:description;type:text;not null"`
	Summary         string                      `json:"summary" gorm:"column:summary;type:text;not null;default:''"`
	Body            string                      `json:"body" gorm:"column:body;type:text;not null;default:''"`
	Completion      int                         `json:"completion" gorm:"column:completion;not null;default:0"`
	Priority        Priority                    `json:"priority" gorm:"column:priority;type:text;not null;default:'medium'"`
	Category        string                      `json:"category" gorm:"column:category;type:text;not null;default:''"`
	Status          string                      `json:"status" gorm:"column:status;type:text;not null;default:'planned'"`
	StartDate       *Date                       `json:"start_date,omitempty" gorm:"column:start_date;type:date"`
	EndDate         *Date                       `json:"end_date,omitempty" gorm:"column:end_date;type:date"`
	IsOngoing       bool                        `json:"is_ongoing" gorm:"column:is_ongoing;not null;default:false"`
	IsFeatured      bool                        `json:"is_featured" gorm:"column:is_featured;not null;default:false"`
	TeamSize        *int                        `json:"team_size,omitempty" gorm:"column:team_size"`
	ImageURL        string                      `json:"image_url" gorm:"column:image_url;type:text;not null;default:''"`
	RepositoryURL   string                      `json:"repository_url" gorm:"column:repository_url;type:text;not null;default:''"`
	DemoURL         string                      `json:"demo_url" gorm:"column:demo_url;type:text;not null;default:''"`
	VideoURL        string                      `json:"video_url" gorm:"column:video_url;type:text;not null;default:''"`
	KeyAchievements datatypes.JSONSlice[string] `json:"key_achievements" gorm:"column:key_achievements;type:jsonb;not null;default:'[]'"`
	CreatedAt       time.Time                   `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time                   `json:"updated_at" gorm:"column:updated_at"`

	Technologies []ProjectTechnology `json:"technologies" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Milestones   []ProjectMilestone  `json:"milestones" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Challenges   []ProjectChallenge  `json:"challenges" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Resources    []ProjectResource   `json:"resources" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Images       []ProjectImage      `json:"images" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

// Normalize enforces the invariants every stored project satisfies: an ongoing
// project is in progress with no end date, completion is within [0,100], and
// child rows point at the parent in submission order.
func (p *Project) Normalize() {
	if p.IsOngoing {
		p.Status = StatusInProgress
		p.EndDate = nil
	}
	if p.Completion < 0 {
		p.Completion = 0
	}
	if p.Completion > 100 {
		p.Completion = 100
	}
	if p.KeyAchievements == nil {
		p.KeyAchievements = datatypes.JSONSlice[string]{}
	}
	for i := range p.Technologies {
		p.Technologies[i].ID = 0
		p.Technologies[i].ProjectID = p.ID
		p.Technologies[i].Position = i
	}
	for i := range p.Milestones {
		p.Milestones[i].ID = 0
		p.Milestones[i].ProjectID = p.ID
		p.Milestones[i].Position = i
	}
	for i := range p.Challenges {
		p.Challenges[i].ID = 0
		p.Challenges[i].ProjectID = p.ID
		p.Challenges[i].Position = i
	}
	for i := range p.Resources {
		p.Resources[i].ID = 0
		p.Resources[i].ProjectID = p.ID
		p.Resources[i].Position = i
	}
	for i := range p.Images {
		p.Images[i].ID = 0
		p.Images[i].ProjectID = p.ID
		p.Images[i].Position = i
	}
}

// DaysRemaining is the number of whole days from now until the end date.
// It is nil for ongoing projects and projects without an end date, and never negative.
func (p Project) DaysRemaining(now time.Time) *int {
	if p.IsOngoing || p.EndDate == nil {
		return nil
	}
	today := DateOf(now)
	days := int(math.Ceil(p.EndDate.Sub(today.Time).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}

// TechnologyValues returns the technology tags as plain strings.
func (p Project) TechnologyValues() []string {
	values := make([]string, 0, len(p.Technologies))
	for _, t := range p.Technologies {
		values = append(values, t.Value)
	}
	return values
}

func (p Project) CatalogTitle() string { return p.Title }

func (p Project) CatalogText() []string {
	return []string{p.Title, p.Description, p.Summary}
}

func (p Project) CatalogCategory() string { return p.Category }

func (p Project) CatalogStatus() string { return p.Status }

func (p Project) CatalogDate() (time.Time, bool) {
	if p.StartDate == nil {
		return time.Time{}, false
	}
	return p.StartDate.Time, true
}

func (p Project) CatalogCompletion() int { return p.Completion }

func (p Project) CatalogPriority() int {
	return Priority(strings.ToLower(string(p.Priority))).Rank()
}
