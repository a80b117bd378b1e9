package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/catalog"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/editor"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

// projectHandler serves one project kind. Portfolio projects and research
// projects share the handler and differ only in kind.
type projectHandler struct {
	responder Responder
	logger    zerolog.Logger
	kind      models.ProjectKind
	projects  database.ProjectStore
	markdown  *services.MarkdownRenderer
	submitter *editor.Submitter
	now       func() time.Time
}

func newProjectHandler(kind models.ProjectKind, projects database.ProjectStore, markdown *services.MarkdownRenderer,
	submitter *editor.Submitter, alerter Alerter, now func() time.Time) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Str("kind", string(kind)).Logger()

	return projectHandler{
		responder: NewResponder(logger, alerter),
		logger:    logger,
		kind:      kind,
		projects:  projects,
		markdown:  markdown,
		submitter: submitter,
		now:       now,
	}
}

func (h projectHandler) entity() string {
	if h.kind == models.KindResearch {
		return "research project"
	}
	return "project"
}

// listProjects returns the public catalog view of projects of this kind
// @Summary List projects
// @Description Lists projects filtered and sorted by the catalog criteria in the query string
// @Tags Projects
// @Produce json
// @Param q query string false "Search text"
// @Param category query string false "Category or All"
// @Param status query string false "Status or All"
// @Param sort query string false "newest, oldest, title, completion or priority"
// @Param featured query bool false "Only featured projects"
// @Success 200 {object} ProjectListing
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid criteria"
// @Failure 503 {object} ErrorResponse "Service Unavailable - Database unreachable"
// @Router /projects [get]
// @Router /research [get]
func (h projectHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := h.listing(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, listing)
	}
}

// adminListProjects is listProjects without caching, echoing the request token
// @Summary Admin list projects
// @Tags Admin
// @Produce json
// @Success 200 {object} ProjectListing
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /admin/projects [get]
// @Router /admin/research [get]
func (h projectHandler) adminListProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := h.listing(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		listing.RequestToken = ctxGetRequestToken(r.Context())
		h.responder.WriteJSON(w, listing)
	}
}

func (h projectHandler) listing(r *http.Request) (ProjectListing, error) {
	criteria, err := criteriaFromRequest(r)
	if err != nil {
		return ProjectListing{}, err
	}
	featured, err := boolParam(r, "featured")
	if err != nil {
		return ProjectListing{}, err
	}

	projects, err := h.projects.List(r.Context(), h.kind, database.ProjectFilter{Featured: featured})
	if err != nil {
		return ProjectListing{}, wrapDatabaseError("list projects", h.entity(), err)
	}
	return ProjectListing{View: catalog.NewView(projects, criteria)}, nil
}

// getProject retrieves a project by slug with its rendered body
// @Summary Get project
// @Description Retrieves a project by slug with the body rendered to HTML and the days remaining until its end date
// @Tags Projects
// @Produce json
// @Param slug path string true "Project slug"
// @Success 200 {object} ProjectDetail
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /projects/{slug} [get]
// @Router /research/{slug} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if !editor.IsValidSlug(slug) {
			h.responder.WriteError(w, errs.NewNotFoundError(h.entity()+" not found"))
			return
		}

		project, err := h.projects.FindBySlug(r.Context(), h.kind, slug)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find project", h.entity(), err))
			return
		}
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFoundError(h.entity()+" not found"))
			return
		}

		detail := ProjectDetail{
			Project:       *project,
			DaysRemaining: project.DaysRemaining(h.now()),
		}
		if h.markdown != nil && project.Body != "" {
			html, err := h.markdown.Render(project.Body)
			if err != nil {
				h.logger.Warn().Err(err).Uint("projectId", project.ID).Msg("failed to render project body")
			}
			detail.BodyHTML = html
		}

		h.responder.WriteJSON(w, detail)
	}
}

// newProjectForm returns the empty form template for this kind
// @Summary New project form
// @Tags Admin
// @Produce json
// @Success 200 {object} editor.ProjectForm
// @Router /admin/projects/new [get]
// @Router /admin/research/new [get]
func (h projectHandler) newProjectForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, editor.NewProjectForm(h.kind))
	}
}

// editProjectForm loads a stored project into form state
// @Summary Edit project form
// @Tags Admin
// @Produce json
// @Param projectID path int true "Project ID"
// @Success 200 {object} editor.ProjectForm
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /admin/projects/edit/{projectID} [get]
// @Router /admin/research/edit/{projectID} [get]
func (h projectHandler) editProjectForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.find(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, editor.FromProject(*project))
	}
}

func (h projectHandler) find(r *http.Request) (*models.Project, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	project, err := h.projects.FindByID(r.Context(), h.kind, id)
	if err != nil {
		return nil, wrapDatabaseError("find project", h.entity(), err)
	}
	if project == nil {
		return nil, errs.NewNotFoundError(h.entity() + " not found")
	}
	return project, nil
}

// decodeForm reads a submitted form, generating the slug when none was typed.
func (h projectHandler) decodeForm(w http.ResponseWriter, r *http.Request) (editor.ProjectForm, error) {
	form := editor.NewProjectForm(h.kind)
	if err := decodeJSON(w, r, &form); err != nil {
		return form, err
	}
	form.Kind = h.kind
	if form.Slug == "" {
		form.SlugEdited = false
		form.GenerateSlug()
	}
	return form, nil
}

// createProject creates a project from a submitted form
// @Summary Create project
// @Tags Admin
// @Accept json
// @Produce json
// @Param project body editor.ProjectForm true "Project form"
// @Success 201 {object} editor.Result[models.Project]
// @Failure 409 {object} ErrorResponse "Conflict - Slug taken or submission in progress"
// @Failure 422 {object} ErrorResponse "Unprocessable Entity - Field errors"
// @Router /admin/projects [post]
// @Router /admin/research [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := h.decodeForm(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		form.ID = 0

		project, err := form.Payload()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, editor.Submission[models.Project]{
			Key:      "create:" + string(h.kind) + ":" + project.Slug,
			Redirect: h.kind.AdminPath(),
			Save: func(ctx context.Context) (models.Project, error) {
				if err := h.projects.Create(ctx, &project); err != nil {
					return models.Project{}, wrapDatabaseError("create project", h.entity(), err)
				}
				return project, nil
			},
			Paths: func(p models.Project) []string {
				return services.ProjectPaths(h.kind, p.Slug)
			},
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("projectId", result.Entity.ID).Str("slug", result.Entity.Slug).Msg("project created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, result)
	}
}

// updateProject replaces a project and all of its child collections
// @Summary Update project
// @Tags Admin
// @Accept json
// @Produce json
// @Param projectID path int true "Project ID"
// @Param project body editor.ProjectForm true "Project form"
// @Success 200 {object} editor.Result[models.Project]
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Failure 409 {object} ErrorResponse "Conflict - Slug taken or submission in progress"
// @Failure 422 {object} ErrorResponse "Unprocessable Entity - Field errors"
// @Router /admin/projects/{projectID} [put]
// @Router /admin/research/{projectID} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, err := h.find(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		form, err := h.decodeForm(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		form.ID = existing.ID

		project, err := form.Payload()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, editor.Submission[models.Project]{
			Key:      "update:" + editor.EntityKey(string(h.kind), existing.ID),
			Redirect: h.kind.AdminPath(),
			Save: func(ctx context.Context) (models.Project, error) {
				if err := h.projects.Update(ctx, &project); err != nil {
					return models.Project{}, wrapDatabaseError("update project", h.entity(), err)
				}
				return project, nil
			},
			Paths: func(p models.Project) []string {
				return services.ProjectPaths(h.kind, existing.Slug, p.Slug)
			},
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("projectId", existing.ID).Str("slug", result.Entity.Slug).Msg("project updated")
		h.responder.WriteJSON(w, result)
	}
}

// deleteProject deletes a project and its children
// @Summary Delete project
// @Tags Admin
// @Produce json
// @Param projectID path int true "Project ID"
// @Success 200 {object} DeleteResponse
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /admin/projects/{projectID} [delete]
// @Router /admin/research/{projectID} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, err := h.find(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, editor.Submission[models.Project]{
			Key:      "delete:" + editor.EntityKey(string(h.kind), existing.ID),
			Redirect: h.kind.AdminPath(),
			Save: func(ctx context.Context) (models.Project, error) {
				if err := h.projects.Delete(ctx, h.kind, existing.ID); err != nil {
					return models.Project{}, wrapDatabaseError("delete project", h.entity(), err)
				}
				return *existing, nil
			},
			Paths: func(p models.Project) []string {
				return services.ProjectPaths(h.kind, p.Slug)
			},
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("projectId", existing.ID).Msg("project deleted")
		h.responder.WriteJSON(w, DeleteResponse{
			Status:   "success",
			Message:  h.entity() + " deleted",
			Redirect: result.Redirect,
		})
	}
}

// suggestSlug derives a slug from a title unless one was typed
// @Summary Suggest slug
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body SlugRequest true "Title and optional manual slug"
// @Success 200 {object} SlugResponse
// @Router /admin/projects/slug [post]
// @Router /admin/research/slug [post]
func (h projectHandler) suggestSlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SlugRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		form := editor.NewProjectForm(h.kind)
		form.Title = req.Title
		form.SetSlug(req.Slug)
		slug := form.GenerateSlug()

		h.responder.WriteJSON(w, SlugResponse{Slug: slug, Valid: editor.IsValidSlug(slug)})
	}
}
