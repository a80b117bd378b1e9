// Package editor binds persisted entities to editable form state and turns
// submitted forms back into entities.
package editor

import (
	"strconv"
	"strings"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// ProjectForm is the editable state of a project or research project.
// Numbers and dates are kept as entered until Payload converts them.
type ProjectForm struct {
	ID            uint               `json:"id,omitempty"`
	Kind          models.ProjectKind `json:"kind"`
	Title         string             `json:"title"`
	Slug          string             `json:"slug"`
	SlugEdited    bool               `json:"slug_edited"`
	Description   string             `json:"description"`
	Summary       string             `json:"summary"`
	Body          string             `json:"body"`
	Completion    Numeric            `json:"completion"`
	Priority      string             `json:"priority"`
	Category      string             `json:"category"`
	Status        string             `json:"status"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	IsOngoing     bool               `json:"is_ongoing"`
	IsFeatured    bool               `json:"is_featured"`
	TeamSize      Numeric            `json:"team_size"`
	ImageURL      string             `json:"image_url"`
	RepositoryURL string             `json:"repository_url"`
	DemoURL       string             `json:"demo_url"`
	VideoURL      string             `json:"video_url"`

	KeyAchievements List[Achievement] `json:"key_achievements"`
	Technologies    List[Technology]  `json:"technologies"`
	Milestones      List[Milestone]   `json:"milestones"`
	Challenges      List[Challenge]   `json:"challenges"`
	Resources       List[Resource]    `json:"resources"`
	Images          List[Image]       `json:"images"`
}

// NewProjectForm is the empty template behind the "new" route.
func NewProjectForm(kind models.ProjectKind) ProjectForm {
	return ProjectForm{
		Kind:            kind,
		Completion:      NumericOf(0),
		Priority:        string(models.PriorityMedium),
		Status:          models.StatusPlanned,
		KeyAchievements: List[Achievement]{},
		Technologies:    List[Technology]{},
		Milestones:      List[Milestone]{},
		Challenges:      List[Challenge]{},
		Resources:       List[Resource]{},
		Images:          List[Image]{},
	}
}

// FromProject loads a persisted project into form state. The stored slug counts
// as edited so generating a slug never silently renames a published URL.
func FromProject(p models.Project) ProjectForm {
	f := NewProjectForm(p.Kind)
	f.ID = p.ID
	f.Title = p.Title
	f.Slug = p.Slug
	f.SlugEdited = p.Slug != ""
	f.Description = p.Description
	f.Summary = p.Summary
	f.Body = p.Body
	f.Completion = NumericOf(p.Completion)
	f.Priority = string(p.Priority)
	f.Category = p.Category
	f.Status = p.Status
	f.StartDate = models.FormatOptionalDate(p.StartDate)
	f.EndDate = models.FormatOptionalDate(p.EndDate)
	f.IsOngoing = p.IsOngoing
	f.IsFeatured = p.IsFeatured
	if p.TeamSize != nil {
		f.TeamSize = NumericOf(*p.TeamSize)
	}
	f.ImageURL = p.ImageURL
	f.RepositoryURL = p.RepositoryURL
	f.DemoURL = p.DemoURL
	f.VideoURL = p.VideoURL

	for _, a := range p.KeyAchievements {
		f.KeyAchievements = append(f.KeyAchievements, Achievement(a))
	}
	for _, t := range p.Technologies {
		f.Technologies = append(f.Technologies, Technology(t.Value))
	}
	for _, m := range p.Milestones {
		f.Milestones = append(f.Milestones, Milestone{
			Description: m.Description,
			DueDate:     models.FormatOptionalDate(m.DueDate),
			Completed:   m.Completed,
		})
	}
	for _, c := range p.Challenges {
		f.Challenges = append(f.Challenges, Challenge{Description: c.Description})
	}
	for _, r := range p.Resources {
		f.Resources = append(f.Resources, Resource{Title: r.Title, URL: r.URL, Type: r.Type})
	}
	for _, img := range p.Images {
		f.Images = append(f.Images, Image{URL: img.URL, Caption: img.Caption})
	}
	return f
}

// GenerateSlug derives the slug from the title unless it was edited by hand.
func (f *ProjectForm) GenerateSlug() string {
	f.Slug = autoSlug(f.Slug, f.SlugEdited, f.Title)
	return f.Slug
}

// SetSlug records a manual slug edit. Clearing the slug re-enables generation.
func (f *ProjectForm) SetSlug(slug string) {
	f.Slug = strings.TrimSpace(slug)
	f.SlugEdited = f.Slug != ""
}

// SetOngoing toggles the ongoing flag. Turning it on forces the in-progress
// status and clears the end date; turning it off marks the project completed.
func (f *ProjectForm) SetOngoing(ongoing bool) {
	f.IsOngoing = ongoing
	if ongoing {
		f.Status = models.StatusInProgress
		f.EndDate = ""
		return
	}
	f.Status = models.StatusCompleted
}

// SetEndDate is refused while the project is ongoing.
func (f *ProjectForm) SetEndDate(value string) error {
	if f.IsOngoing {
		return errs.ErrEndDateLocked
	}
	f.EndDate = strings.TrimSpace(value)
	return nil
}

func (f ProjectForm) Validate() FieldErrors {
	fe := FieldErrors{}

	if f.Kind != "" && !f.Kind.Valid() {
		fe.Add("kind", "kind must be project or research")
	}
	fe.require("title", f.Title)
	fe.require("slug", f.Slug)
	if f.Slug != "" && !IsValidSlug(f.Slug) {
		fe.Add("slug", "slug may only contain lowercase letters, numbers and single hyphens")
	}
	fe.require("description", f.Description)

	fe.checkInt("completion", f.Completion, 0, 100, false)
	fe.checkInt("team_size", f.TeamSize, 1, 10000, false)

	if p := strings.ToLower(strings.TrimSpace(f.Priority)); p != "" && !models.Priority(p).Valid() {
		fe.Add("priority", "priority must be high, medium or low")
	}

	start := fe.checkDate("start_date", f.StartDate)
	if !f.IsOngoing {
		end := fe.checkDate("end_date", f.EndDate)
		if start != nil && end != nil && end.Before(start.Time) {
			fe.Add("end_date", "end_date must not be before start_date")
		}
	}

	f.KeyAchievements.check(fe, "key_achievements")
	f.Technologies.check(fe, "technologies")
	f.Milestones.check(fe, "milestones")
	f.Challenges.check(fe, "challenges")
	f.Resources.check(fe, "resources")
	f.Images.check(fe, "images")

	return fe
}

// Payload validates the form and converts it into the entity handed to the
// store. Cleared dates become nil and every child list is submitted whole.
func (f ProjectForm) Payload() (models.Project, error) {
	if err := f.Validate().Err(); err != nil {
		return models.Project{}, err
	}

	p := models.Project{
		ID:            f.ID,
		Kind:          f.Kind,
		Title:         strings.TrimSpace(f.Title),
		Slug:          f.Slug,
		Description:   strings.TrimSpace(f.Description),
		Summary:       strings.TrimSpace(f.Summary),
		Body:          f.Body,
		Priority:      models.Priority(strings.ToLower(strings.TrimSpace(f.Priority))),
		Category:      strings.TrimSpace(f.Category),
		Status:        strings.TrimSpace(f.Status),
		IsOngoing:     f.IsOngoing,
		IsFeatured:    f.IsFeatured,
		ImageURL:      strings.TrimSpace(f.ImageURL),
		RepositoryURL: strings.TrimSpace(f.RepositoryURL),
		DemoURL:       strings.TrimSpace(f.DemoURL),
		VideoURL:      strings.TrimSpace(f.VideoURL),
	}
	if p.Kind == "" {
		p.Kind = models.KindProject
	}
	if p.Priority == "" {
		p.Priority = models.PriorityMedium
	}
	if p.Status == "" {
		p.Status = models.StatusPlanned
	}
	if !f.Completion.IsEmpty() {
		p.Completion, _ = f.Completion.Int()
	}
	if !f.TeamSize.IsEmpty() {
		size, _ := f.TeamSize.Int()
		p.TeamSize = &size
	}

	// Validate already proved these parse.
	p.StartDate, _ = models.ParseOptionalDate(f.StartDate)
	if !f.IsOngoing {
		p.EndDate, _ = models.ParseOptionalDate(f.EndDate)
	}

	p.KeyAchievements = make([]string, 0, len(f.KeyAchievements))
	for _, a := range f.KeyAchievements {
		p.KeyAchievements = append(p.KeyAchievements, strings.TrimSpace(string(a)))
	}
	p.Technologies = make([]models.ProjectTechnology, 0, len(f.Technologies))
	for _, t := range f.Technologies {
		p.Technologies = append(p.Technologies, models.ProjectTechnology{Value: strings.TrimSpace(string(t))})
	}
	p.Milestones = make([]models.ProjectMilestone, 0, len(f.Milestones))
	for _, m := range f.Milestones {
		due, _ := models.ParseOptionalDate(m.DueDate)
		p.Milestones = append(p.Milestones, models.ProjectMilestone{
			Description: strings.TrimSpace(m.Description),
			DueDate:     due,
			Completed:   m.Completed,
		})
	}
	p.Challenges = make([]models.ProjectChallenge, 0, len(f.Challenges))
	for _, c := range f.Challenges {
		p.Challenges = append(p.Challenges, models.ProjectChallenge{Description: strings.TrimSpace(c.Description)})
	}
	p.Resources = make([]models.ProjectResource, 0, len(f.Resources))
	for _, r := range f.Resources {
		p.Resources = append(p.Resources, models.ProjectResource{
			Title: strings.TrimSpace(r.Title),
			URL:   strings.TrimSpace(r.URL),
			Type:  strings.TrimSpace(r.Type),
		})
	}
	p.Images = make([]models.ProjectImage, 0, len(f.Images))
	for _, img := range f.Images {
		p.Images = append(p.Images, models.ProjectImage{
			URL:     strings.TrimSpace(img.URL),
			Caption: strings.TrimSpace(img.Caption),
		})
	}

	p.Normalize()
	return p, nil
}

// EntityKey names an entity for submission keys, e.g. "project:12".
func EntityKey(entity string, id uint) string {
	return entity + ":" + strconv.FormatUint(uint64(id), 10)
}
