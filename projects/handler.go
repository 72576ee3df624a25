package projects

import (
	"fmt"
	"strings"

	"omni3d_back/database"
	"omni3d_back/logging"
	"omni3d_back/response"
	"omni3d_back/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Module struct {
	service *Service
	log     *logging.Logger
}

// RegisterRoutes migrates the project table and mounts /api/projects.
func RegisterRoutes(router gin.IRouter, db *gorm.DB, store *storage.FileStore, log *logging.Logger) (*Module, error) {
	if err := database.Migrate(db, &Project{}); err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}

	module := &Module{
		service: NewService(db, store, log),
		log:     log.With("module", "projects"),
	}

	group := router.Group("/api/projects")
	group.GET("", module.handleList)
	group.GET("/:id", module.handleGet)
	group.POST("", module.handleCreate)
	group.PUT("/:id", module.handleUpdate)
	group.POST("/:id/thumbnail", module.handleThumbnail)
	group.DELETE("/:id", module.handleDelete)

	return module, nil
}

func (m *Module) handleList(c *gin.Context) {
	current, size, err := response.PageParams(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	page, err := m.service.List(c.Request.Context(), current, size, c.Query("name"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, page)
}

func (m *Module) handleGet(c *gin.Context) {
	id, err := response.PathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	project, err := m.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, project)
}

func (m *Module) handleCreate(c *gin.Context) {
	var in Input
	if err := response.BindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}

	project, err := m.service.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, project)
}

// handleUpdate accepts a JSON body, or a multipart form with a "project" JSON part
// and an optional "thumbnail" file.
func (m *Module) handleUpdate(c *gin.Context) {
	id, err := response.PathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	var in Input
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := response.BindJSON(c, &in); err != nil {
			response.Fail(c, err)
			return
		}
		project, err := m.service.Update(c.Request.Context(), id, in)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, project)
		return
	}

	if _, err := response.JSONPart(c, "project", &in); err != nil {
		response.Fail(c, err)
		return
	}
	thumbnail, err := response.OptionalFile(c, "thumbnail")
	if err != nil {
		response.Fail(c, err)
		return
	}

	project, err := m.service.UpdateWithThumbnail(c.Request.Context(), id, in, thumbnail)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, project)
}

func (m *Module) handleThumbnail(c *gin.Context) {
	id, err := response.PathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	file, err := response.RequiredFile(c, "file")
	if err != nil {
		response.Fail(c, err)
		return
	}

	url, err := m.service.ReplaceThumbnail(c.Request.Context(), id, file)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, url)
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
		m.log.Info("project deleted", "id", id)
	}
	response.OK(c, true)
}
