package projects

import "omni3d_back/database"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Project is a saved scene. SceneData is stored and returned untouched.
type Project struct {
	database.Base
	Name        string        `gorm:"size:255;not null" json:"name"`
	Description string        `gorm:"size:2048" json:"description"`
	Thumbnail   *string       `gorm:"size:512" json:"thumbnail"`
	Status      string        `gorm:"size:16;not null;default:draft" json:"status"`
	Tags        database.List `gorm:"size:1024" json:"tags"`
	SceneData   database.Text `gorm:"column:scene_data;size:16777216" json:"sceneData"`
}

func (Project) TableName() string {
	return "project"
}

// Input carries project fields from the API. Nil fields are left unchanged on update.
type Input struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Thumbnail   *string        `json:"thumbnail"`
	Status      *string        `json:"status"`
	Tags        *database.List `json:"tags"`
	SceneData   *database.Text `json:"sceneData"`
}
