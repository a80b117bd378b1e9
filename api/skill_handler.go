package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/editor"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

const skillAdminPath = "/admin/skills"

type skillHandler struct {
	responder Responder
	logger    zerolog.Logger
	skills    database.SkillStore
	submitter *editor.Submitter
}

func newSkillHandler(skills database.SkillStore, submitter *editor.Submitter, alerter Alerter) skillHandler {
	logger := log.With().Str("handlerName", "skillHandler").Logger()

	return skillHandler{
		responder: NewResponder(logger, alerter),
		logger:    logger,
		skills:    skills,
		submitter: submitter,
	}
}

func (h skillHandler) list(r *http.Request) ([]models.Skill, error) {
	featured, err := boolParam(r, "featured")
	if err != nil {
		return nil, err
	}
	filter := database.SkillFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Featured: featured,
	}
	skills, err := h.skills.List(r.Context(), filter)
	if err != nil {
		return nil, wrapDatabaseError("list skills", "skills", err)
	}
	if skills == nil {
		skills = []models.Skill{}
	}
	return skills, nil
}

// listSkills retrieves skills, ordered by category then proficiency
// @Summary List skills
// @Tags Skills
// @Produce json
// @Param category query string false "Exact category"
// @Param featured query bool false "Only featured skills"
// @Success 200 {object} SkillCollection
// @Router /skills [get]
// @Router /admin/skills [get]
func (h skillHandler) listSkills() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skills, err := h.list(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, SkillCollection{Skills: skills, Total: len(skills)})
	}
}

// listSkillGroups retrieves skills bucketed by category for the skill galaxy
// @Summary List skill groups
// @Tags Skills
// @Produce json
// @Success 200 {array} models.SkillGroup
// @Router /skills/groups [get]
func (h skillHandler) listSkillGroups() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skills, err := h.list(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		groups := models.GroupSkills(skills)
		if groups == nil {
			groups = []models.SkillGroup{}
		}
		h.responder.WriteJSON(w, groups)
	}
}

// @Summary New skill form
// @Tags Admin
// @Produce json
// @Success 200 {object} editor.SkillForm
// @Router /admin/skills/new [get]
func (h skillHandler) newSkillForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, editor.NewSkillForm())
	}
}

// @Summary Edit skill form
// @Tags Admin
// @Produce json
// @Param skillID path int true "Skill ID"
// @Success 200 {object} editor.SkillForm
// @Failure 404 {object} ErrorResponse "Not Found - Skill not found"
// @Router /admin/skills/edit/{skillID} [get]
func (h skillHandler) editSkillForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skill, err := h.find(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, editor.FromSkill(*skill))
	}
}

func (h skillHandler) find(r *http.Request) (*models.Skill, error) {
	id, err := idParam(r, "skillID")
	if err != nil {
		return nil, err
	}
	skill, err := h.skills.FindByID(r.Context(), id)
	if err != nil {
		return nil, wrapDatabaseError("find skill", "skill", err)
	}
	if skill == nil {
		return nil, errs.NewNotFoundError("skill not found")
	}
	return skill, nil
}

// @Summary Create skill
// @Tags Admin
// @Accept json
// @Produce json
// @Param skill body editor.SkillForm true "Skill form"
// @Success 201 {object} editor.Result[models.Skill]
// @Failure 409 {object} ErrorResponse "Conflict - Name taken"
// @Failure 422 {object} ErrorResponse "Unprocessable Entity - Field errors"
// @Router /admin/skills [post]
func (h skillHandler) createSkill() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := editor.NewSkillForm()
		if err := decodeJSON(w, r, &form); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		form.ID = 0

		skill, err := form.Payload()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, h.submission("create:skill:"+strings.ToLower(skill.Name),
			func(ctx context.Context) (models.Skill, error) {
				if err := h.skills.Create(ctx, &skill); err != nil {
					return models.Skill{}, wrapDatabaseError("create skill", "skill", err)
				}
				return skill, nil
			}))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("skillId", result.Entity.ID).Str("name", result.Entity.Name).Msg("skill created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, result)
	}
}

// @Summary Update skill
// @Tags Admin
// @Accept json
// @Produce json
// @Param skillID path int true "Skill ID"
// @Param skill body editor.SkillForm true "Skill form"
// @Success 200 {object} editor.Result[models.Skill]
// @Failure 404 {object} ErrorResponse "Not Found - Skill not found"
// @Failure 422 {object} ErrorResponse "Unprocessable Entity - Field errors"
// @Router /admin/skills/{skillID} [put]
func (h skillHandler) updateSkill() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, err := h.find(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		form := editor.NewSkillForm()
		if err := decodeJSON(w, r, &form); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		form.ID = existing.ID

		skill, err := form.Payload()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, h.submission("update:"+editor.EntityKey("skill", existing.ID),
			func(ctx context.Context) (models.Skill, error) {
				if err := h.skills.Update(ctx, &skill); err != nil {
					return models.Skill{}, wrapDatabaseError("update skill", "skill", err)
				}
				return skill, nil
			}))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("skillId", result.Entity.ID).Msg("skill updated")
		h.responder.WriteJSON(w, result)
	}
}

// @Summary Delete skill
// @Tags Admin
// @Produce json
// @Param skillID path int true "Skill ID"
// @Success 200 {object} DeleteResponse
// @Failure 404 {object} ErrorResponse "Not Found - Skill not found"
// @Router /admin/skills/{skillID} [delete]
func (h skillHandler) deleteSkill() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, err := h.find(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := editor.Submit(r.Context(), h.submitter, h.submission("delete:"+editor.EntityKey("skill", existing.ID),
			func(ctx context.Context) (models.Skill, error) {
				if err := h.skills.Delete(ctx, existing.ID); err != nil {
					return models.Skill{}, wrapDatabaseError("delete skill", "skill", err)
				}
				return *existing, nil
			}))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		adminEvent(h.logger, r).Uint("skillId", existing.ID).Msg("skill deleted")
		h.responder.WriteJSON(w, DeleteResponse{Status: "success", Message: "skill deleted", Redirect: result.Redirect})
	}
}

func (h skillHandler) submission(key string, save func(context.Context) (models.Skill, error)) editor.Submission[models.Skill] {
	return editor.Submission[models.Skill]{
		Key:      key,
		Redirect: skillAdminPath,
		Save:     save,
		Paths:    func(models.Skill) []string { return services.SkillPaths() },
	}
}
