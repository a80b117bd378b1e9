package models

import "time"

// Skill is a named proficiency shown on the skills page and the skill galaxy
type Skill struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"column:name;type:text;not null;uniqueIndex:idx_skills_name"`
	Category    string    `json:"category" gorm:"column:category;type:text;not null"`
	Proficiency int       `json:"proficiency" gorm:"column:proficiency;not null;default:0"`
	Color       *string   `json:"color,omitempty" gorm:"column:color;type:text"`
	Description *string   `json:"description,omitempty" gorm:"column:description;type:text"`
	IsFeatured  bool      `json:"is_featured" gorm:"column:is_featured;not null;default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// SkillGroup is one category of skills, as consumed by the skill galaxy.
type SkillGroup struct {
	Category string  `json:"category"`
	Average  float64 `json:"average_proficiency"`
	Skills   []Skill `json:"skills"`
}

// GroupSkills buckets skills by category, keeping the first-seen category order
// and the input order within a category.
func GroupSkills(skills []Skill) []SkillGroup {
	index := make(map[string]int)
	var groups []SkillGroup
	for _, s := range skills {
		i, ok := index[s.Category]
		if !ok {
			i = len(groups)
			index[s.Category] = i
			groups = append(groups, SkillGroup{Category: s.Category})
		}
		groups[i].Skills = append(groups[i].Skills, s)
	}
	for i := range groups {
		total := 0
		for _, s := range groups[i].Skills {
			total += s.Proficiency
		}
		groups[i].Average = float64(total) / float64(len(groups[i].Skills))
	}
	return groups
}
