package api

import (
	"time"

	"github.com/rpupo63/portfolio-backend/catalog"
	"github.com/rpupo63/portfolio-backend/chat"
	"github.com/rpupo63/portfolio-backend/models"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler  projectHandler
	researchHandler projectHandler
	blogPostHandler blogPostHandler
	skillHandler    skillHandler
	siteHandler     siteHandler
	chatHandler     chatHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string            `json:"error" example:"Internal Server Error"`
	Status  string            `json:"status" example:"error"`
	Message string            `json:"message,omitempty" example:"Something went wrong"`
	Field   string            `json:"field,omitempty" example:"title"`
	Details string            `json:"details,omitempty" example:"Additional error details"`
	Fields  map[string]string `json:"fields,omitempty"`
	Login   string            `json:"login,omitempty" example:"/login"`
	Retry   bool              `json:"retry,omitempty"`
}

// ProjectDetail is a project with the values derived at render time.
type ProjectDetail struct {
	models.Project
	BodyHTML      string `json:"body_html"`
	DaysRemaining *int   `json:"days_remaining"`
}

// ProjectListing is a catalog view of projects plus the echoed request token.
type ProjectListing struct {
	catalog.View[models.Project]
	RequestToken string `json:"request_token,omitempty"`
}

type BlogPostDetail struct {
	models.BlogPost
	ContentHTML string `json:"content_html"`
}

type BlogPostListing struct {
	catalog.View[models.BlogPost]
	RequestToken string `json:"request_token,omitempty"`
}

type SkillCollection struct {
	Skills []models.Skill `json:"skills"`
	Total  int            `json:"total"`
}

// HomeResponse is the landing page aggregate.
type HomeResponse struct {
	FeaturedProjects []models.Project  `json:"featured_projects"`
	FeaturedResearch []models.Project  `json:"featured_research"`
	LatestPosts      []models.BlogPost `json:"latest_posts"`
	FeaturedSkills   []models.Skill    `json:"featured_skills"`
}

type HealthResponse struct {
	Status        string    `json:"status"`
	Database      string    `json:"database"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

type SlugRequest struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type SlugResponse struct {
	Slug  string `json:"slug"`
	Valid bool   `json:"valid"`
}

type RevalidateRequest struct {
	Paths []string `json:"paths"`
}

type DeleteResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

type RevalidateResponse struct {
	Status string   `json:"status"`
	Paths  []string `json:"paths"`
}

type ChatRequest struct {
	Messages []chat.Message `json:"messages"`
}
