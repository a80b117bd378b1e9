package api

import (
	"context"
	"net/http"
	"strings"

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

const blogAdminPath = "/admin/blog"

type blogPostHandler struct {
	responder  Responder
	logger     zerolog.Logger
	posts      database.BlogPostStore
	categories database.BlogCategoryStore
	markdown   *services.MarkdownRenderer
	submitter  *editor.Submitter
}

func newBlogPostHandler(posts database.BlogPostStore, categories database.BlogCategoryStore,
	markdown *services.MarkdownRenderer, submitter *editor.Submitter, alerter Alerter) blogPostHandler {
	logger := log.With().Str("handlerName", "blogPostHandler").Logger()

	return blogPostHandler{
		responder:  NewResponder(logger, alerter),
		logger:     logger,
		posts:      posts,
		categories: categories,
		markdown:   markdown,
		submitter:  submitter,
	}
}

// listBlogPosts retrieves published blog posts
// @Summary List blog posts
// @Description Lists published posts filtered and sorted by the catalog criteria; category filters by category slug
// @Tags Blog
// @Produce json
// @Param q query string false "Search text"
// @Param category query string false "Category slug or All"
// @Param sort query string false "newest, oldest or title"
// @Param featured query bool false "Only featured posts"
// @Success 200 {object} BlogPostListing
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid criteria"
// @Router /blog [get]
func (h blogPostHandler) listBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := h.listing(r, true)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, listing)
	}
}

// adminListBlogPosts lists drafts and published posts
// @Summary Admin list blog posts
// @Tags Admin
// @Produce json
// @Success 200 {object} BlogPostListing
// @Router /admin/blog [get]
func (h blogPostHandler) adminListBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := h.listing(r, false)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		listing.RequestToken = ctxGetRequestToken(r.Context())
		h.responder.WriteJSON(w, listing)
	}
}

func (h blogPostHandler) listing(r *http.Request, publishedOnly bool) (BlogPostListing, error) {
	criteria, err := criteriaFromRequest(r)
	if err != nil {
		return BlogPostListing{}, err
	}
	featured, err := boolParam(r, "featured")
	if err != nil {
		return BlogPostListing{}, err
	}

	posts, err := h.posts.List(r.Context(), database.BlogPostFilter{PublishedOnly: publishedOnly, Featured: featured})
	if err != nil {
		return BlogPostListing{}, wrapDatabaseError("list blog posts", "blog posts", err)
	}
	return BlogPostListing{View: catalog.NewView(posts, criteria)}, nil
}

// getBlogPost retrieves a published blog post by slug and counts the view
// @Summary Get blog post
// @Tags Blog
// @Produce json
// @Param slug path string true "Blog post slug"
// @Success 200 {object} BlogPostDetail
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Router /blog/{slug} [get]
func (h blogPostHandler) getBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if !editor.IsValidSlug(slug) {
			h.responder.WriteError(w, errs.NewNotFoundError("blog post not found"))
			return
		}

		post, err := h.posts.FindBySlug(r.Context(), slug)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find blog post", "blog post", err))
			return
		}
		if post == nil || !post.Published {
			h.responder.WriteError(w, errs.NewNotFoundError("blog post not found"))
			return
		}

		if err := h.posts.IncrementViews(r.Context(), post.ID); errs.IsNotFound(err) {
			h.responder.WriteError(w, errs.NewNotFoundError("blog post not found"))
			return
		} else if err != nil {
			h.logger.Warn().Err(err).Uint("blogPostId", post.ID).Msg("failed to count blog post view")
		} else {
			post.ViewCount++
		}

		detail := BlogPostDetail{BlogPost: *post}
		if h.markdown != nil {
			html, err := h.markdown.Render(post.Content)
			if err != nil {
				h.logger.Warn().Err(err).Uint("blogPostId", post.ID).Msg("failed to render blog post")
			}
			detail.ContentHTML = html
		}

		h.responder.WriteJSON(w, detail)
	}
}

// listCategories retrieves all blog categories
// @Summary List blog categories
// @Tags Blog
// @Produce json
// @Success 200 {array} models.BlogCategory
// @Router /blog/categories [get]
func (h blogPostHandler) listCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := h.categories.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("list blog categories", "blog categories", err))
			return
		}
		if categories == nil {
			categories = []models.BlogCategory{}
		}
		h.responder.WriteJSON(w, categories)
	}
}

// @Summary New blog post form
// @Tags Admin
// @Produce json
// @Success 200 {object} editor.BlogPostForm
// @Router /admin/blog/new [get]
func (h blogPostHandler) newBlogPostForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, editor.NewBlogPostForm())
	}
}

// @Summary Edit blog post form
// @Tags Admin
// @Produce json
// @Param blogPostID path int true "Blog post ID"
// @Success 200 {object} editor.BlogPostForm
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Router /admin/blog/edit/{blogPostID} [get]
func (h blogPostHandler) editBlogPostForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := h.find(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, editor.FromBlogPost(*post))
	}
}

func (h blogPostHandler) find(r *http.Request) (*models.BlogPost, error) {
	id, err := idParam(r, "blogPostID")
	if err != nil {
		return nil, err
	}
	post, err := h.posts.FindByID(r.Context(), id)
	if err != nil {
		return nil, wrapDatabaseError("find blog post", "blog post", err)
	}
	if post == nil {
		return nil, errs.NewNotFoundError("blog post not found")
	}
	return post, nil
}

func (h blogPostHandler) decodeForm(w http.ResponseWriter, r *http.Request) (editor.BlogPostForm, error) {
	form := editor.NewBlogPostForm()
	if err := decodeJSON(w, r, &form); err != nil {
		return form, err
	}
	if form.Slug == "" {
		form.SlugEdited = false
		form.GenerateSlug()
	}
	return form, nil
}

// createBlogPost creates a blog post from a submitted form
// @Summary Create blog post
// @Tags Admin
// @Accept json
// @Produce json
// @Param post body editor.BlogPostForm true "Blog post form"
// @Success 201 {object} editor.Result[models.BlogPost]
// @Failure 409 {object} ErrorResponse "Conflict - Slug taken"
// @Failure 422 {object} ErrorResponse "Unprocessable Entity - Field errors"
// @Router /admin/blog [post]
func (h blogPostHandler) createBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := h.decodeForm(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		form.ID = 0

		post, err := form.Payload()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, editor.Submission[models.BlogPost]{
			Key:      "create:blog:" + post.Slug,
			Redirect: blogAdminPath,
			Save: func(ctx context.Context) (models.BlogPost, error) {
				if err := h.posts.Create(ctx, &post); err != nil {
					return models.BlogPost{}, wrapDatabaseError("create blog post", "blog post", err)
				}
				return post, nil
			},
			Paths: func(p models.BlogPost) []string {
				return services.BlogPaths(p.Slug)
			},
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("blogPostId", result.Entity.ID).Str("slug", result.Entity.Slug).Msg("blog post created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, result)
	}
}

// updateBlogPost replaces a blog post and its tags; the view count is kept
// @Summary Update blog post
// @Tags Admin
// @Accept json
// @Produce json
// @Param blogPostID path int true "Blog post ID"
// @Param post body editor.BlogPostForm true "Blog post form"
// @Success 200 {object} editor.Result[models.BlogPost]
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Failure 422 {object} ErrorResponse "Unprocessable Entity - Field errors"
// @Router /admin/blog/{blogPostID} [put]
func (h blogPostHandler) updateBlogPost() http.HandlerFunc {
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

		post, err := form.Payload()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, editor.Submission[models.BlogPost]{
			Key:      "update:" + editor.EntityKey("blog", existing.ID),
			Redirect: blogAdminPath,
			Save: func(ctx context.Context) (models.BlogPost, error) {
				if err := h.posts.Update(ctx, &post); err != nil {
					return models.BlogPost{}, wrapDatabaseError("update blog post", "blog post", err)
				}
				return post, nil
			},
			Paths: func(p models.BlogPost) []string {
				return services.BlogPaths(existing.Slug, p.Slug)
			},
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("blogPostId", result.Entity.ID).Msg("blog post updated")
		h.responder.WriteJSON(w, result)
	}
}

// deleteBlogPost deletes a blog post
// @Summary Delete blog post
// @Tags Admin
// @Produce json
// @Param blogPostID path int true "Blog post ID"
// @Success 200 {object} DeleteResponse
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Router /admin/blog/{blogPostID} [delete]
func (h blogPostHandler) deleteBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, err := h.find(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, editor.Submission[models.BlogPost]{
			Key:      "delete:" + editor.EntityKey("blog", existing.ID),
			Redirect: blogAdminPath,
			Save: func(ctx context.Context) (models.BlogPost, error) {
				if err := h.posts.Delete(ctx, existing.ID); err != nil {
					return models.BlogPost{}, wrapDatabaseError("delete blog post", "blog post", err)
				}
				return *existing, nil
			},
			Paths: func(p models.BlogPost) []string {
				return services.BlogPaths(p.Slug)
			},
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("blogPostId", existing.ID).Msg("blog post deleted")
		h.responder.WriteJSON(w, DeleteResponse{Status: "success", Message: "blog post deleted", Redirect: result.Redirect})
	}
}

// @Summary Suggest blog slug
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body SlugRequest true "Title and optional manual slug"
// @Success 200 {object} SlugResponse
// @Router /admin/blog/slug [post]
func (h blogPostHandler) suggestSlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SlugRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		form := editor.NewBlogPostForm()
		form.Title = req.Title
		form.SetSlug(req.Slug)
		slug := form.GenerateSlug()

		h.responder.WriteJSON(w, SlugResponse{Slug: slug, Valid: editor.IsValidSlug(slug)})
	}
}

// createCategory creates a blog category; the slug defaults to the slugified name
// @Summary Create blog category
// @Tags Admin
// @Accept json
// @Produce json
// @Param category body models.BlogCategory true "Category"
// @Success 201 {object} models.BlogCategory
// @Failure 409 {object} ErrorResponse "Conflict - Name or slug taken"
// @Failure 422 {object} ErrorResponse "Unprocessable Entity - Field errors"
// @Router /admin/blog/categories [post]
func (h blogPostHandler) createCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var category models.BlogCategory
		if err := decodeJSON(w, r, &category); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		category.ID = 0
		category.Name = strings.TrimSpace(category.Name)
		category.Slug = strings.TrimSpace(category.Slug)
		if category.Slug == "" {
			category.Slug = editor.Slugify(category.Name)
		}

		fe := editor.FieldErrors{}
		if category.Name == "" {
			fe.Add("name", "name is required")
		}
		if !editor.IsValidSlug(category.Slug) {
			fe.Add("slug", "slug may only contain lowercase letters, numbers and single hyphens")
		}
		if err := fe.Err(); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, editor.Submission[models.BlogCategory]{
			Key:      "create:blog-category:" + category.Slug,
			Redirect: blogAdminPath,
			Save: func(ctx context.Context) (models.BlogCategory, error) {
				if err := h.categories.Create(ctx, &category); err != nil {
					return models.BlogCategory{}, wrapDatabaseError("create blog category", "blog category", err)
				}
				return category, nil
			},
			Paths: func(models.BlogCategory) []string {
				return []string{"/blog/categories"}
			},
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("categoryId", result.Entity.ID).Str("slug", result.Entity.Slug).Msg("blog category created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, result.Entity)
	}
}

// deleteCategory deletes a blog category; its posts are kept uncategorized
// @Summary Delete blog category
// @Tags Admin
// @Produce json
// @Param categoryID path int true "Category ID"
// @Success 200 {object} DeleteResponse
// @Failure 404 {object} ErrorResponse "Not Found - Category not found"
// @Router /admin/blog/categories/{categoryID} [delete]
func (h blogPostHandler) deleteCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "categoryID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, editor.Submission[uint]{
			Key:      "delete:" + editor.EntityKey("blog-category", id),
			Redirect: blogAdminPath,
			Save: func(ctx context.Context) (uint, error) {
				if err := h.categories.Delete(ctx, id); err != nil {
					return 0, wrapDatabaseError("delete blog category", "blog category", err)
				}
				return id, nil
			},
			// Posts in the category lose it, so every blog page may change.
			Paths: func(uint) []string {
				return services.BlogPaths()
			},
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("categoryId", id).Msg("blog category deleted")
		h.responder.WriteJSON(w, DeleteResponse{Status: "success", Message: "blog category deleted", Redirect: result.Redirect})
	}
}
