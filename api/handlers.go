package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rpupo63/portfolio-backend/catalog"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/editor"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

const maxRequestBody = 1 << 20 // 1 MiB

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db database.Database, r router) *routeHandlers {
	submitter := editor.NewSubmitter(r.revalidator)
	now := time.Now

	return &routeHandlers{
		projectHandler:  newProjectHandler(models.KindProject, db.ProjectRepo(), r.markdown, submitter, r.alerter, now),
		researchHandler: newProjectHandler(models.KindResearch, db.ProjectRepo(), r.markdown, submitter, r.alerter, now),
		blogPostHandler: newBlogPostHandler(db.BlogPostRepo(), db.BlogCategoryRepo(), r.markdown, submitter, r.alerter),
		skillHandler:    newSkillHandler(db.SkillRepo(), submitter, r.alerter),
		siteHandler:     newSiteHandler(db, r.github, r.revalidator, r.alerter, r.startupTime),
		chatHandler:     newChatHandler(r.chat, r.alerter),
	}
}

// decodeJSON reads at most maxRequestBody bytes of JSON into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewMaxBodySizeExceededError(maxRequestBody)
		}
		return errs.NewBadRequestError("failed to read request body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errs.NewBadRequestError("request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errs.NewInvalidJSONError(err)
	}
	return nil
}

// idParam parses a positive numeric URL parameter.
func idParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, errs.NewMissingRequiredFieldError(name)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errs.NewInvalidFieldError(name, "must be a positive integer")
	}
	return uint(id), nil
}

func criteriaFromRequest(r *http.Request) (catalog.Criteria, error) {
	criteria, err := catalog.ParseCriteria(r.URL.Query())
	if err != nil {
		return criteria, errs.NewInvalidFieldError(catalog.ParamSort, err.Error())
	}
	return criteria, nil
}

// boolParam reads an optional boolean query parameter; absent means nil.
func boolParam(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errs.NewInvalidFieldError(name, "must be true or false")
	}
	return &v, nil
}

// adminEvent starts an info log line for an admin change, tagged with the
// authenticated user.
func adminEvent(logger zerolog.Logger, r *http.Request) *zerolog.Event {
	userID, err := ctxGetUserID(r.Context())
	if err != nil {
		userID = "unknown"
	}
	return logger.Info().Str("userId", userID)
}
