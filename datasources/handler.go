package datasources

import (
	"fmt"

	"omni3d_back/apperr"
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

// RegisterRoutes migrates the data source table and mounts /api/data-sources.
func RegisterRoutes(router gin.IRouter, db *gorm.DB, records *cache.RecordCache, log *logging.Logger) (*Module, error) {
	if err := database.Migrate(db, &DataSource{}); err != nil {
		return nil, fmt.Errorf("datasources: %w", err)
	}

	module := &Module{
		service: NewService(db, records, log),
		log:     log.With("module", "datasources"),
	}

	group := router.Group("/api/data-sources")
	group.GET("", module.handleList)
	group.POST("", module.handleCreate)
	group.PUT("", module.handleUpdate)
	group.GET("/:id", module.handleGet)
	group.PUT("/:id", module.handleUpdate)
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

	ds, err := m.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, ds)
}

func (m *Module) handleCreate(c *gin.Context) {
	var in Input
	if err := response.BindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}

	ds, err := m.service.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, ds)
}

// handleUpdate serves PUT with the id either in the path or in the body.
func (m *Module) handleUpdate(c *gin.Context) {
	var in Input
	if err := response.BindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}

	var id uint64
	if c.Param("id") != "" {
		parsed, err := response.PathID(c)
		if err != nil {
			response.Fail(c, err)
			return
		}
		id = parsed
	} else if in.ID != nil {
		id = uint64(*in.ID)
	}
	if id == 0 {
		response.Fail(c, apperr.Validation("id is required"))
		return
	}

	ds, err := m.service.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, ds)
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
		m.log.Info("data source deleted", "id", id)
	}
	response.OK(c, true)
}
