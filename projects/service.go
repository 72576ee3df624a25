package projects

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"omni3d_back/apperr"
	"omni3d_back/database"
	"omni3d_back/logging"
	"omni3d_back/storage"

	"gorm.io/gorm"
)

const (
	entity         = "project"
	thumbFallback  = ".png"
	orderByUpdated = "update_time"
)

type Service struct {
	repo  *database.Repository[Project, *Project]
	store *storage.FileStore
	log   *logging.Logger
}

func NewService(db *gorm.DB, store *storage.FileStore, log *logging.Logger) *Service {
	return &Service{
		repo:  database.NewRepository[Project](db, entity),
		store: store,
		log:   log.With("service", "ProjectService"),
	}
}

// List returns projects whose name contains name, most recently updated first.
func (s *Service) List(ctx context.Context, page, size int, name string) (*database.Page[Project], error) {
	return s.repo.List(ctx, database.Query{
		Filters: []database.Filter{database.Contains("name", strings.TrimSpace(name))},
		OrderBy: orderByUpdated,
		Page:    page,
		Size:    size,
	})
}

func (s *Service) Get(ctx context.Context, id uint64) (*Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*Project, error) {
	project := &Project{Status: StatusDraft}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	project.Name = strings.TrimSpace(*in.Name)
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.Thumbnail != nil && strings.TrimSpace(*in.Thumbnail) != "" {
		thumb := strings.TrimSpace(*in.Thumbnail)
		project.Thumbnail = &thumb
	}
	if in.Status != nil && strings.TrimSpace(*in.Status) != "" {
		status, err := normalizeStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		project.Status = status
	}
	if in.Tags != nil {
		project.Tags = *in.Tags
	}
	if in.SceneData != nil {
		project.SceneData = *in.SceneData
	}

	if _, err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	s.log.Info("project created", "id", project.ID)
	return project, nil
}

// Update writes the fields present in in and returns the stored project.
func (s *Service) Update(ctx context.Context, id uint64, in Input) (*Project, error) {
	changes, err := in.changes()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// UpdateWithThumbnail applies in and then, when file is non-empty, replaces the
// thumbnail with it.
func (s *Service) UpdateWithThumbnail(ctx context.Context, id uint64, in Input, file *multipart.FileHeader) (*Project, error) {
	if file != nil && file.Size > 0 {
		in.Thumbnail = nil
	}
	project, err := s.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if file == nil || file.Size <= 0 {
		return project, nil
	}
	if _, err := s.ReplaceThumbnail(ctx, id, file); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// ReplaceThumbnail stores file as the project's thumbnail and returns its URL.
// The row is read and written under a lock so concurrent replacements each
// remove exactly the file they superseded. The superseded file is removed after
// commit; a failed removal is logged and otherwise ignored.
func (s *Service) ReplaceThumbnail(ctx context.Context, id uint64, file *multipart.FileHeader) (string, error) {
	if file == nil || file.Size <= 0 {
		return "", apperr.Validation("thumbnail file must not be empty")
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return "", err
	}

	url, _, err := s.store.SaveFile(file, storage.SaveOptions{
		Prefix:     fmt.Sprintf("project_%d_", id),
		DefaultExt: thumbFallback,
		ShortName:  true,
	})
	if err != nil {
		return "", err
	}

	var previous *string
	err = s.repo.Transaction(ctx, func(tx *database.Repository[Project, *Project]) error {
		project, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous = project.Thumbnail
		return tx.Update(ctx, id, database.Changes{"thumbnail": url})
	})
	if err != nil {
		if rmErr := s.store.Delete(url); rmErr != nil {
			s.log.Warn("failed to remove unused thumbnail", "project_id", id, "url", url, "error", rmErr)
		}
		return "", err
	}

	if previous != nil && *previous != url && storage.Managed(*previous) {
		if err := s.store.Delete(*previous); err != nil {
			s.log.Warn("failed to remove previous thumbnail", "project_id", id, "url", *previous, "error", err)
		}
	}

	s.log.Info("project thumbnail replaced", "project_id", id, "url", url)
	return url, nil
}

func (in Input) changes() (database.Changes, error) {
	changes := database.Changes{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		changes["name"] = name
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.Thumbnail != nil {
		if thumb := strings.TrimSpace(*in.Thumbnail); thumb != "" {
			changes["thumbnail"] = thumb
		} else {
			changes["thumbnail"] = nil
		}
	}
	if in.Status != nil && strings.TrimSpace(*in.Status) != "" {
		status, err := normalizeStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		changes["status"] = status
	}
	if in.Tags != nil {
		changes["tags"] = string(*in.Tags)
	}
	if in.SceneData != nil {
		changes["scene_data"] = string(*in.SceneData)
	}
	return changes, nil
}

func normalizeStatus(raw string) (string, error) {
	switch status := strings.ToLower(strings.TrimSpace(raw)); status {
	case StatusDraft, StatusPublished:
		return status, nil
	default:
		return "", apperr.Validation("status must be %q or %q", StatusDraft, StatusPublished)
	}
}
