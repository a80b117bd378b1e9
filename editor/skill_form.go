package editor

import (
	"regexp"
	"strings"

	"github.com/rpupo63/portfolio-backend/models"
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// SkillForm is the editable state of a skill.
type SkillForm struct {
	ID          uint    `json:"id,omitempty"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Proficiency Numeric `json:"proficiency"`
	Color       string  `json:"color"`
	Description string  `json:"description"`
	IsFeatured  bool    `json:"is_featured"`
}

func NewSkillForm() SkillForm {
	return SkillForm{Proficiency: NumericOf(5)}
}

func FromSkill(s models.Skill) SkillForm {
	return SkillForm{
		ID:          s.ID,
		Name:        s.Name,
		Category:    s.Category,
		Proficiency: NumericOf(s.Proficiency),
		Color:       derefString(s.Color),
		Description: derefString(s.Description),
		IsFeatured:  s.IsFeatured,
	}
}

func (f SkillForm) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.require("name", f.Name)
	fe.require("category", f.Category)
	fe.checkInt("proficiency", f.Proficiency, 0, 10, true)
	if c := strings.TrimSpace(f.Color); c != "" && !hexColor.MatchString(c) {
		fe.Add("color", "color must be a hex value like #3b82f6")
	}
	return fe
}

func (f SkillForm) Payload() (models.Skill, error) {
	if err := f.Validate().Err(); err != nil {
		return models.Skill{}, err
	}
	proficiency, _ := f.Proficiency.Int()
	return models.Skill{
		ID:          f.ID,
		Name:        strings.TrimSpace(f.Name),
		Category:    strings.TrimSpace(f.Category),
		Proficiency: proficiency,
		Color:       optionalString(f.Color),
		Description: optionalString(f.Description),
		IsFeatured:  f.IsFeatured,
	}, nil
}
