package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/editor"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

const (
	homeFeaturedLimit = 6
	homePostLimit     = 3
)

type siteHandler struct {
	responder   Responder
	logger      zerolog.Logger
	db          database.Database
	github      *services.GitHubActivity
	revalidator editor.Revalidator
	startupTime time.Time
	now         func() time.Time
}

func newSiteHandler(db database.Database, github *services.GitHubActivity, revalidator editor.Revalidator,
	alerter Alerter, startupTime time.Time) siteHandler {
	logger := log.With().Str("handlerName", "siteHandler").Logger()

	return siteHandler{
		responder:   NewResponder(logger, alerter),
		logger:      logger,
		db:          db,
		github:      github,
		revalidator: revalidator,
		startupTime: startupTime,
		now:         time.Now,
	}
}

// getHome aggregates the landing page
// @Summary Home page
// @Description Featured projects, featured research, latest published posts and featured skills
// @Tags Site
// @Produce json
// @Success 200 {object} HomeResponse
// @Failure 503 {object} ErrorResponse "Service Unavailable - Database unreachable"
// @Router /home [get]
func (h siteHandler) getHome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		featured := true
		var home HomeResponse

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			projects, err := h.db.ProjectRepo().List(ctx, models.KindProject,
				database.ProjectFilter{Featured: &featured, Limit: homeFeaturedLimit})
			home.FeaturedProjects = projects
			return wrapDatabaseError("list featured projects", "projects", err)
		})
		g.Go(func() error {
			research, err := h.db.ProjectRepo().List(ctx, models.KindResearch,
				database.ProjectFilter{Featured: &featured, Limit: homeFeaturedLimit})
			home.FeaturedResearch = research
			return wrapDatabaseError("list featured research", "research projects", err)
		})
		g.Go(func() error {
			posts, err := h.db.BlogPostRepo().List(ctx, database.BlogPostFilter{PublishedOnly: true, Limit: homePostLimit})
			home.LatestPosts = posts
			return wrapDatabaseError("list latest posts", "blog posts", err)
		})
		g.Go(func() error {
			skills, err := h.db.SkillRepo().List(ctx, database.SkillFilter{Featured: &featured})
			home.FeaturedSkills = skills
			return wrapDatabaseError("list featured skills", "skills", err)
		})
		if err := g.Wait(); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if home.FeaturedProjects == nil {
			home.FeaturedProjects = []models.Project{}
		}
		if home.FeaturedResearch == nil {
			home.FeaturedResearch = []models.Project{}
		}
		if home.LatestPosts == nil {
			home.LatestPosts = []models.BlogPost{}
		}
		if home.FeaturedSkills == nil {
			home.FeaturedSkills = []models.Skill{}
		}
		h.responder.WriteJSON(w, home)
	}
}

// healthCheck reports uptime and whether the database answers. A down
// database still answers 200 with status "degraded" while the fallback serves reads.
// @Summary Health check
// @Tags Site
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (h siteHandler) healthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		response := HealthResponse{
			Status:        "ok",
			Database:      "up",
			StartedAt:     h.startupTime,
			UptimeSeconds: int64(h.now().Sub(h.startupTime).Seconds()),
		}
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("database ping failed")
			response.Status = "degraded"
			response.Database = "down"
		}

		h.responder.WriteJSON(w, response)
	}
}

// getGitHubActivity returns the cached GitHub activity summary
// @Summary GitHub activity
// @Tags Site
// @Produce json
// @Success 200 {object} services.ActivitySummary
// @Failure 502 {object} ErrorResponse "Bad Gateway - GitHub unreachable"
// @Failure 503 {object} ErrorResponse "Service Unavailable - Not configured"
// @Router /github/activity [get]
func (h siteHandler) getGitHubActivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := h.github.Summary(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, summary)
	}
}

// revalidate marks public pages stale on demand
// @Summary Revalidate pages
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body RevalidateRequest true "Paths to revalidate"
// @Success 202 {object} RevalidateResponse
// @Failure 422 {object} ErrorResponse "Unprocessable Entity - Invalid paths"
// @Router /admin/revalidate [post]
func (h siteHandler) revalidate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RevalidateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		paths := make([]string, 0, len(req.Paths))
		for _, p := range req.Paths {
			p = strings.TrimSpace(p)
			if !strings.HasPrefix(p, "/") {
				h.responder.WriteError(w, errs.NewInvalidFieldError("paths", "every path must start with /"))
				return
			}
			paths = append(paths, p)
		}
		if len(paths) == 0 {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("paths"))
			return
		}

		if h.revalidator != nil {
			h.revalidator.Revalidate(paths...)
		}
		h.responder.WriteJSONStatus(w, http.StatusAccepted, RevalidateResponse{Status: "accepted", Paths: paths})
	}
}

func (h siteHandler) notFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteError(w, errs.NewNotFoundError("no route for "+r.URL.Path))
	}
}

func (h siteHandler) methodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteError(w, errs.NewApiErr(http.StatusMethodNotAllowed, "method not allowed"))
	}
}
