package labels

import (
	"context"
	"errors"
	"strings"

	"omni3d_back/apperr"
	"omni3d_back/cache"
	"omni3d_back/database"
	"omni3d_back/logging"

	"gorm.io/gorm"
)

const entity = "label_template"

type Service struct {
	repo    *database.Repository[LabelTemplate, *LabelTemplate]
	records *cache.RecordCache
	log     *logging.Logger
}

func NewService(db *gorm.DB, records *cache.RecordCache, log *logging.Logger) *Service {
	return &Service{
		repo:    database.NewRepository[LabelTemplate](db, entity),
		records: records,
		log:     log.With("service", "LabelTemplateService"),
	}
}

// List returns every live template in id order.
func (s *Service) List(ctx context.Context) ([]LabelTemplate, error) {
	return s.repo.All(ctx, "")
}

func (s *Service) Get(ctx context.Context, id uint64) (*LabelTemplate, error) {
	var cached LabelTemplate
	if s.records.Get(ctx, entity, id, &cached) {
		return &cached, nil
	}
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.records.Set(ctx, entity, id, tpl)
	return tpl, nil
}

// Save updates the live template named by in.ID, or creates one when the id is
// zero, absent or unknown.
func (s *Service) Save(ctx context.Context, in Input) (*LabelTemplate, error) {
	if in.ID != nil && *in.ID != 0 {
		id := uint64(*in.ID)
		tpl, err := s.update(ctx, id, in)
		if err == nil {
			return tpl, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}
	return s.create(ctx, in)
}

func (s *Service) create(ctx context.Context, in Input) (*LabelTemplate, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	tpl := &LabelTemplate{Name: strings.TrimSpace(*in.Name)}
	if in.HTML != nil {
		tpl.HTML = *in.HTML
	}
	if in.CSS != nil {
		tpl.CSS = *in.CSS
	}
	if in.Fields != nil {
		tpl.Fields = *in.Fields
	}

	if _, err := s.repo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	s.log.Info("label template created", "id", tpl.ID)
	return tpl, nil
}

func (s *Service) update(ctx context.Context, id uint64, in Input) (*LabelTemplate, error) {
	changes := database.Changes{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		changes["name"] = name
	}
	if in.HTML != nil {
		changes["html"] = string(*in.HTML)
	}
	if in.CSS != nil {
		changes["css"] = string(*in.CSS)
	}
	if in.Fields != nil {
		changes["fields"] = string(*in.Fields)
	}

	err := s.repo.Update(ctx, id, changes)
	s.records.Invalidate(ctx, entity, id)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint64) (bool, error) {
	removed, err := s.repo.Delete(ctx, id)
	s.records.Invalidate(ctx, entity, id)
	return removed, err
}
