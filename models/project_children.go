package models

// ProjectTechnology is a technology tag on a project
type ProjectTechnology struct {
	ID        uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	ProjectID uint   `json:"-" gorm:"column:project_id;not null;index:idx_project_technologies_project_id"`
	Value     string `json:"value" gorm:"column:value;type:text;not null"`
	Position  int    `json:"-" gorm:"column:position;not null;default:0"`
}

// ProjectMilestone is a dated checkpoint of a project
type ProjectMilestone struct {
	ID          uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	ProjectID   uint   `json:"-" gorm:"column:project_id;not null;index:idx_project_milestones_project_id"`
	Description string `json:"description" gorm:"column:description;type:text;not null"`
	DueDate     *Date  `json:"due_date,omitempty" gorm:"column:due_date;type:date"`
	Completed   bool   `json:"completed" gorm:"column:completed;not null;default:false"`
	Position    int    `json:"-" gorm:"column:position;not null;default:0"`
}

// ProjectChallenge is a free-text obstacle met during a project
type ProjectChallenge struct {
	ID          uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	ProjectID   uint   `json:"-" gorm:"column:project_id;not null;index:idx_project_challenges_project_id"`
	Description string `json:"description" gorm:"column:description;type:text;not null"`
	Position    int    `json:"-" gorm:"column:position;not null;default:0"`
}

// ProjectResource is an external reference (paper, dataset, article) attached to a project
type ProjectResource struct {
	ID        uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	ProjectID uint   `json:"-" gorm:"column:project_id;not null;index:idx_project_resources_project_id"`
	Title     string `json:"title" gorm:"column:title;type:text;not null"`
	URL       string `json:"url" gorm:"column:url;type:text;not null"`
	Type      string `json:"type" gorm:"column:type;type:text;not null;default:''"`
	Position  int    `json:"-" gorm:"column:position;not null;default:0"`
}

// ProjectImage is a gallery image of a project
type ProjectImage struct {
	ID        uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	ProjectID uint   `json:"-" gorm:"column:project_id;not null;index:idx_project_images_project_id"`
	URL       string `json:"url" gorm:"column:url;type:text;not null"`
	Caption   string `json:"caption" gorm:"column:caption;type:text;not null;default:''"`
	Position  int    `json:"-" gorm:"column:position;not null;default:0"`
}
