package datasources

import "omni3d_back/database"

// DataSource is a stored HTTP endpoint configuration. Nothing in the backend polls it.
type DataSource struct {
	database.Base
	Name            string        `gorm:"size:255;not null" json:"name"`
	URL             string        `gorm:"column:url;size:2048" json:"url"`
	Method          string        `gorm:"size:16;not null;default:GET" json:"method"`
	Headers         database.Text `gorm:"size:16777216" json:"headers"`
	Params          database.Text `gorm:"size:16777216" json:"params"`
	Config          database.Text `gorm:"size:16777216" json:"config"`
	RefreshInterval int           `gorm:"column:refresh_interval;not null;default:0" json:"refreshInterval"`
}

func (DataSource) TableName() string {
	return "data_source"
}

// Input carries data source fields from the API. Nil fields are left unchanged on update.
type Input struct {
	ID              *database.LooseID `json:"id"`
	Name            *string           `json:"name"`
	URL             *string           `json:"url"`
	Method          *string           `json:"method"`
	Headers         *database.Text    `json:"headers"`
	Params          *database.Text    `json:"params"`
	Config          *database.Text    `json:"config"`
	RefreshInterval *int              `json:"refreshInterval"`
}
