package labels

import "omni3d_back/database"

// LabelTemplate is an HTML/CSS snippet for scene labels. Fields names the data
// bindings as comma-separated text and is stored verbatim.
type LabelTemplate struct {
	database.Base
	Name   string        `gorm:"size:255;not null" json:"name"`
	HTML   database.Text `gorm:"column:html;size:16777216" json:"html"`
	CSS    database.Text `gorm:"column:css;size:16777216" json:"css"`
	Fields database.List `gorm:"size:2048" json:"fields"`
}

func (LabelTemplate) TableName() string {
	return "label_template"
}

// Input is the upsert payload. A zero or absent ID creates a template.
type Input struct {
	ID     *database.LooseID `json:"id"`
	Name   *string           `json:"name"`
	HTML   *database.Text    `json:"html"`
	CSS    *database.Text    `json:"css"`
	Fields *database.List    `json:"fields"`
}
