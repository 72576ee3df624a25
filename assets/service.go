package assets

import (
	"context"
	"mime/multipart"
	"strings"

	"omni3d_back/apperr"
	"omni3d_back/database"
	"omni3d_back/logging"
	"omni3d_back/storage"

	"gorm.io/gorm"
)

const (
	entity         = "asset"
	thumbPrefix    = "thumb_"
	thumbFallback  = ".png"
	allCategories  = "all"
	orderByCreated = "create_time"
)

type Service struct {
	repo  *database.Repository[Asset, *Asset]
	store *storage.FileStore
	log   *logging.Logger
}

func NewService(db *gorm.DB, store *storage.FileStore, log *logging.Logger) *Service {
	return &Service{
		repo:  database.NewRepository[Asset](db, entity),
		store: store,
		log:   log.With("service", "AssetService"),
	}
}

// ListParams filters the asset list. CategoryID "" or "all" matches every category.
type ListParams struct {
	Page       int
	Size       int
	Name       string
	CategoryID string
}

func (s *Service) List(ctx context.Context, params ListParams) (*database.Page[Asset], error) {
	filters := []database.Filter{database.Contains("name", strings.TrimSpace(params.Name))}
	if category := strings.TrimSpace(params.CategoryID); category != "" && category != allCategories {
		filters = append(filters, database.Eq("category_id", category))
	}
	return s.repo.List(ctx, database.Query{
		Filters: filters,
		OrderBy: orderByCreated,
		Page:    params.Page,
		Size:    params.Size,
	})
}

func (s *Service) Get(ctx context.Context, id uint64) (*Asset, error) {
	return s.repo.Get(ctx, id)
}

// UploadInput is one asset upload. Thumbnail is optional.
type UploadInput struct {
	File       *multipart.FileHeader
	Thumbnail  *multipart.FileHeader
	Name       string
	CategoryID string
}

// Upload stores the main file and optional thumbnail, then records the asset.
// Files already written are removed again if a later step fails.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Asset, error) {
	if in.File == nil || in.File.Size <= 0 {
		return nil, apperr.Validation("file must not be empty")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	category := strings.TrimSpace(in.CategoryID)
	if category == "" {
		return nil, apperr.Validation("categoryId is required")
	}

	url, size, err := s.store.SaveFile(in.File, storage.SaveOptions{})
	if err != nil {
		return nil, err
	}
	written := []string{url}

	asset := &Asset{
		Name:       name,
		Type:       KindOf(in.File.Filename),
		URL:        url,
		CategoryID: category,
		Size:       size,
	}

	if in.Thumbnail != nil && in.Thumbnail.Size > 0 {
		thumb, _, err := s.store.SaveFile(in.Thumbnail, storage.SaveOptions{Prefix: thumbPrefix, DefaultExt: thumbFallback})
		if err != nil {
			s.discard(written...)
			return nil, err
		}
		written = append(written, thumb)
		asset.Thumbnail = &thumb
	}

	if _, err := s.repo.Create(ctx, asset); err != nil {
		s.discard(written...)
		return nil, err
	}

	s.log.Info("asset uploaded", "id", asset.ID, "type", asset.Type, "size", asset.Size)
	return asset, nil
}

// Patch holds the editable asset fields; nil fields are left unchanged. The
// file URL, kind and size are fixed at upload time.
type Patch struct {
	Name       *string `json:"name"`
	CategoryID *string `json:"categoryId"`
	Thumbnail  *string `json:"thumbnail"`
}

// Update applies patch to a live asset. A non-empty thumbnail file replaces the
// current thumbnail, whose file is then removed if the store manages it.
func (s *Service) Update(ctx context.Context, id uint64, patch Patch, thumbnail *multipart.FileHeader) (*Asset, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := database.Changes{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		changes["name"] = name
	}
	if patch.CategoryID != nil {
		changes["category_id"] = strings.TrimSpace(*patch.CategoryID)
	}
	if patch.Thumbnail != nil {
		changes["thumbnail"] = nullable(*patch.Thumbnail)
	}

	var uploaded string
	if thumbnail != nil && thumbnail.Size > 0 {
		uploaded, _, err = s.store.SaveFile(thumbnail, storage.SaveOptions{Prefix: thumbPrefix, DefaultExt: thumbFallback})
		if err != nil {
			return nil, err
		}
		changes["thumbnail"] = uploaded
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		if uploaded != "" {
			s.discard(uploaded)
		}
		return nil, err
	}

	if next, ok := changes["thumbnail"]; ok && current.Thumbnail != nil && next != *current.Thumbnail {
		s.discard(*current.Thumbnail)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func (s *Service) discard(urls ...string) {
	for _, url := range urls {
		if err := s.store.Delete(url); err != nil {
			s.log.Warn("failed to remove file", "url", url, "error", err)
		}
	}
}

func nullable(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}
