package datasources

import (
	"context"
	"net/http"
	"strings"

	"omni3d_back/apperr"
	"omni3d_back/cache"
	"omni3d_back/database"
	"omni3d_back/logging"

	"gorm.io/gorm"
)

const entity = "data_source"

var methods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
	http.MethodHead:   true,
}

type Service struct {
	repo    *database.Repository[DataSource, *DataSource]
	records *cache.RecordCache
	log     *logging.Logger
}

func NewService(db *gorm.DB, records *cache.RecordCache, log *logging.Logger) *Service {
	return &Service{
		repo:    database.NewRepository[DataSource](db, entity),
		records: records,
		log:     log.With("service", "DataSourceService"),
	}
}

// List returns every live data source in id order.
func (s *Service) List(ctx context.Context) ([]DataSource, error) {
	return s.repo.All(ctx, "")
}

func (s *Service) Get(ctx context.Context, id uint64) (*DataSource, error) {
	var cached DataSource
	if s.records.Get(ctx, entity, id, &cached) {
		return &cached, nil
	}
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.records.Set(ctx, entity, id, ds)
	return ds, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*DataSource, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	ds := &DataSource{Name: strings.TrimSpace(*in.Name), Method: http.MethodGet}
	if in.URL != nil {
		ds.URL = strings.TrimSpace(*in.URL)
	}
	if in.Method != nil && strings.TrimSpace(*in.Method) != "" {
		method, err := normalizeMethod(*in.Method)
		if err != nil {
			return nil, err
		}
		ds.Method = method
	}
	if in.Headers != nil {
		ds.Headers = *in.Headers
	}
	if in.Params != nil {
		ds.Params = *in.Params
	}
	if in.Config != nil {
		ds.Config = *in.Config
	}
	if in.RefreshInterval != nil {
		if *in.RefreshInterval < 0 {
			return nil, apperr.Validation("refreshInterval must not be negative")
		}
		ds.RefreshInterval = *in.RefreshInterval
	}

	if _, err := s.repo.Create(ctx, ds); err != nil {
		return nil, err
	}
	s.log.Info("data source created", "id", ds.ID)
	return ds, nil
}

// Update writes the fields present in in to the data source with the given id.
func (s *Service) Update(ctx context.Context, id uint64, in Input) (*DataSource, error) {
	changes := database.Changes{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		changes["name"] = name
	}
	if in.URL != nil {
		changes["url"] = strings.TrimSpace(*in.URL)
	}
	if in.Method != nil && strings.TrimSpace(*in.Method) != "" {
		method, err := normalizeMethod(*in.Method)
		if err != nil {
			return nil, err
		}
		changes["method"] = method
	}
	if in.Headers != nil {
		changes["headers"] = string(*in.Headers)
	}
	if in.Params != nil {
		changes["params"] = string(*in.Params)
	}
	if in.Config != nil {
		changes["config"] = string(*in.Config)
	}
	if in.RefreshInterval != nil {
		if *in.RefreshInterval < 0 {
			return nil, apperr.Validation("refreshInterval must not be negative")
		}
		changes["refresh_interval"] = *in.RefreshInterval
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

func normalizeMethod(raw string) (string, error) {
	method := strings.ToUpper(strings.TrimSpace(raw))
	if !methods[method] {
		return "", apperr.Validation("unsupported method %q", raw)
	}
	return method, nil
}
