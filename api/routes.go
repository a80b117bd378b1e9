package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupPublicRoutes sets up the slug-keyed read routes. Everything except blog
// post detail, health and chat goes through the page cache.
func setupPublicRoutes(r chi.Router, handlers *routeHandlers, pageCache, chatLimit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(pageCache)

		r.Get("/home", handlers.siteHandler.getHome())
		r.Get("/github/activity", handlers.siteHandler.getGitHubActivity())

		r.Get("/projects", handlers.projectHandler.listProjects())
		r.Get("/projects/{slug}", handlers.projectHandler.getProject())
		r.Get("/research", handlers.researchHandler.listProjects())
		r.Get("/research/{slug}", handlers.researchHandler.getProject())

		r.Get("/blog", handlers.blogPostHandler.listBlogPosts())
		r.Get("/blog/categories", handlers.blogPostHandler.listCategories())

		r.Get("/skills", handlers.skillHandler.listSkills())
		r.Get("/skills/groups", handlers.skillHandler.listSkillGroups())
	})

	// Viewing a post counts the view, so it is never served from cache
	r.Get("/blog/{slug}", handlers.blogPostHandler.getBlogPost())
	r.Get("/healthz", handlers.siteHandler.healthCheck())

	r.With(chatLimit).Post("/chat", handlers.chatHandler.postChat())
}

// setupAdminRoutes sets up the id-keyed editor routes behind authentication
func setupAdminRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authMiddleware.authenticate)

		r.Route("/projects", projectAdminRoutes(handlers.projectHandler))
		r.Route("/research", projectAdminRoutes(handlers.researchHandler))

		r.Route("/blog", func(r chi.Router) {
			h := handlers.blogPostHandler
			r.Get("/", h.adminListBlogPosts())
			r.Get("/new", h.newBlogPostForm())
			r.Get("/edit/{blogPostID}", h.editBlogPostForm())
			r.Post("/", h.createBlogPost())
			r.Post("/slug", h.suggestSlug())
			r.Put("/{blogPostID}", h.updateBlogPost())
			r.Delete("/{blogPostID}", h.deleteBlogPost())

			r.Get("/categories", h.listCategories())
			r.Post("/categories", h.createCategory())
			r.Delete("/categories/{categoryID}", h.deleteCategory())
		})

		r.Route("/skills", func(r chi.Router) {
			h := handlers.skillHandler
			r.Get("/", h.listSkills())
			r.Get("/new", h.newSkillForm())
			r.Get("/edit/{skillID}", h.editSkillForm())
			r.Post("/", h.createSkill())
			r.Put("/{skillID}", h.updateSkill())
			r.Delete("/{skillID}", h.deleteSkill())
		})

		r.Post("/revalidate", handlers.siteHandler.revalidate())
	})
}

func projectAdminRoutes(h projectHandler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.adminListProjects())
		r.Get("/new", h.newProjectForm())
		r.Get("/edit/{projectID}", h.editProjectForm())
		r.Post("/", h.createProject())
		r.Post("/slug", h.suggestSlug())
		r.Put("/{projectID}", h.updateProject())
		r.Delete("/{projectID}", h.deleteProject())
	}
}
