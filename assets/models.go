package assets

import "omni3d_back/database"

// Asset is an uploaded file plus its optional thumbnail.
type Asset struct {
	database.Base
	Name       string  `gorm:"size:255;not null" json:"name"`
	Type       Kind    `gorm:"size:16;not null" json:"type"`
	URL        string  `gorm:"column:url;size:512;not null" json:"url"`
	Thumbnail  *string `gorm:"size:512" json:"thumbnail"`
	CategoryID string  `gorm:"column:category_id;size:64;index" json:"categoryId"`
	Size       int64   `gorm:"not null;default:0" json:"size"`
}

func (Asset) TableName() string {
	return "asset"
}
