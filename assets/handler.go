package assets

import (
	"fmt"

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

// RegisterRoutes migrates the asset table and mounts /api/assets.
func RegisterRoutes(router gin.IRouter, db *gorm.DB, store *storage.FileStore, log *logging.Logger) (*Module, error) {
	if err := database.Migrate(db, &Asset{}); err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}

	module := &Module{
		service: NewService(db, store, log),
		log:     log.With("module", "assets"),
	}

	group := router.Group("/api/assets")
	group.GET("", module.handleList)
	group.GET("/:id", module.handleGet)
	group.POST("/upload", module.handleUpload)
	group.PUT("/:id", module.handleUpdate)
	group.DELETE("/:id", module.handleDelete)

	return module, nil
}

func (m *Module) handleList(c *gin.Context) {
	current, size, err := response.PageParams(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	page, err := m.service.List(c.Request.Context(), ListParams{
		Page:       current,
		Size:       size,
		Name:       c.Query("name"),
		CategoryID: c.Query("categoryId"),
	})
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

	asset, err := m.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, asset)
}

func (m *Module) handleUpload(c *gin.Context) {
	file, err := response.RequiredFile(c, "file")
	if err != nil {
		response.Fail(c, err)
		return
	}
	thumbnail, err := response.OptionalFile(c, "thumbnail")
	if err != nil {
		response.Fail(c, err)
		return
	}

	asset, err := m.service.Upload(c.Request.Context(), UploadInput{
		File:       file,
		Thumbnail:  thumbnail,
		Name:       c.PostForm("name"),
		CategoryID: c.PostForm("categoryId"),
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, asset)
}

func (m *Module) handleUpdate(c *gin.Context) {
	id, err := response.PathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	var patch Patch
	if _, err := response.JSONPart(c, "asset", &patch); err != nil {
		response.Fail(c, err)
		return
	}
	thumbnail, err := response.OptionalFile(c, "thumbnail")
	if err != nil {
		response.Fail(c, err)
		return
	}

	asset, err := m.service.Update(c.Request.Context(), id, patch, thumbnail)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, asset)
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
		m.log.Info("asset deleted", "id", id)
	}
	response.OK(c, true)
}
