package labels

import (
	"fmt"

	"omni3d_back/cache"
	"omni3d_back/database"
	"omni3d_back/logging"
	"omni3d_back/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Module struct {
	service *Service
	log     *logging.Logger
}

// RegisterRoutes migrates the label template table and mounts /api/label-templates.
func RegisterRoutes(router gin.IRouter, db *gorm.DB, records *cache.RecordCache, log *logging.Logger) (*Module, error) {
	if err := database.Migrate(db, &LabelTemplate{}); err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}

	module := &Module{
		service: NewService(db, records, log),
		log:     log.With("module", "labels"),
	}

	group := router.Group("/api/label-templates")
	group.GET("", module.handleList)
	group.POST("", module.handleSave)
	group.GET("/:id", module.handleGet)
	group.DELETE("/:id", module.handleDelete)

	return module, nil
}

func (m *Module) handleList(c *gin.Context) {
	items, err := m.service.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, items)
}

func (m *Module) handleGet(c *gin.Context) {
	id, err := response.PathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	tpl, err := m.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, tpl)
}

func (m *Module) handleSave(c *gin.Context) {
	var in Input
	if err := response.BindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}

	tpl, err := m.service.Save(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, tpl)
}

func (m *Module) handleDelete(c *gin.Context) {
	id, err := response.PathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	removed, err := m.service.Delete(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if removed {
		m.log.Info("label template deleted", "id", id)
	}
	response.OK(c, true)
}
