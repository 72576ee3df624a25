package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"omni3d_back/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 200

	likeEscape = "!"
)

// Base carries the columns every table shares. Timestamps and the soft-delete flag
// are maintained by Repository, never by the caller.
type Base struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CreateTime time.Time `gorm:"column:create_time;not null" json:"createTime"`
	UpdateTime time.Time `gorm:"column:update_time;not null" json:"updateTime"`
	Deleted    int       `gorm:"column:deleted;not null;default:0;index" json:"-"`
}

func (b *Base) Meta() *Base { return b }

// Entity is implemented by pointers to structs embedding Base.
type Entity interface {
	Meta() *Base
}

// EntityPtr constrains PT to *T implementing Entity.
type EntityPtr[T any] interface {
	*T
	Entity
}

// Filter is one WHERE predicate on a named column.
type Filter struct {
	column   string
	value    any
	contains bool
}

// Eq matches rows whose column equals value.
func Eq(column string, value any) Filter {
	return Filter{column: column, value: value}
}

// Contains matches rows whose column holds text anywhere, ignoring case.
// Empty text matches everything.
func Contains(column, text string) Filter {
	return Filter{column: column, value: text, contains: true}
}

// Query describes a filtered, ordered, paginated read. Page is 1-indexed.
type Query struct {
	Filters []Filter
	OrderBy string
	Page    int
	Size    int
}

// Page is one slice of a list result.
type Page[T any] struct {
	Records []T   `json:"records"`
	Total   int64 `json:"total"`
	Size    int   `json:"size"`
	Current int   `json:"current"`
	Pages   int64 `json:"pages"`
}

// Changes maps column names to new values for a partial update.
type Changes map[string]any

// Repository implements soft-delete CRUD for one entity type.
type Repository[T any, PT EntityPtr[T]] struct {
	db     *gorm.DB
	entity string
	now    func() time.Time
}

func NewRepository[T any, PT EntityPtr[T]](db *gorm.DB, entity string) *Repository[T, PT] {
	return &Repository[T, PT]{
		db:     db,
		entity: entity,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source. Tests use it to get distinct times.
func (r *Repository[T, PT]) WithClock(now func() time.Time) *Repository[T, PT] {
	cp := *r
	cp.now = now
	return &cp
}

func (r *Repository[T, PT]) DB() *gorm.DB {
	return r.db
}

func (r *Repository[T, PT]) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T)).Where(clause.Eq{Column: clause.Column{Name: "deleted"}, Value: 0})
}

// List returns one page of live rows ordered by q.OrderBy descending, newest first.
func (r *Repository[T, PT]) List(ctx context.Context, q Query) (*Page[T], error) {
	current, size := normalizePage(q.Page, q.Size)

	var total int64
	if err := applyFilters(r.live(ctx), q.Filters).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%s: count: %w", r.entity, err)
	}

	records := make([]T, 0)
	offset := (current - 1) * size
	if int64(offset) < total {
		tx := applyFilters(r.live(ctx), q.Filters)
		if q.OrderBy != "" {
			tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy}, Desc: true})
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})
		if err := tx.Offset(offset).Limit(size).Find(&records).Error; err != nil {
			return nil, fmt.Errorf("%s: list: %w", r.entity, err)
		}
	}

	return &Page[T]{
		Records: records,
		Total:   total,
		Size:    size,
		Current: current,
		Pages:   (total + int64(size) - 1) / int64(size),
	}, nil
}

// All returns every live row ordered by orderBy descending, or by id ascending when
// orderBy is empty.
func (r *Repository[T, PT]) All(ctx context.Context, orderBy string) ([]T, error) {
	tx := r.live(ctx)
	if orderBy != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: orderBy}, Desc: true})
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})
	} else {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	out := make([]T, 0)
	if err := tx.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("%s: list all: %w", r.entity, err)
	}
	return out, nil
}

// Get loads a live row by id.
func (r *Repository[T, PT]) Get(ctx context.Context, id uint64) (*T, error) {
	return r.get(r.live(ctx), id)
}

// GetForUpdate loads a live row by id and locks it for the surrounding transaction.
// sqlite has no row locks; its single writer already serializes the transaction.
func (r *Repository[T, PT]) GetForUpdate(ctx context.Context, id uint64) (*T, error) {
	tx := r.live(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(tx, id)
}

func (r *Repository[T, PT]) get(tx *gorm.DB, id uint64) (*T, error) {
	var out T
	err := tx.Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(r.entity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: get %d: %w", r.entity, id, err)
	}
	return &out, nil
}

// Create inserts item with store-assigned id and fresh timestamps and returns the id.
func (r *Repository[T, PT]) Create(ctx context.Context, item PT) (uint64, error) {
	meta := item.Meta()
	now := r.now()
	meta.ID = 0
	meta.CreateTime = now
	meta.UpdateTime = now
	meta.Deleted = 0
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return 0, fmt.Errorf("%s: create: %w", r.entity, err)
	}
	return meta.ID, nil
}

// Update writes the given columns of a live row and refreshes update_time.
func (r *Repository[T, PT]) Update(ctx context.Context, id uint64, changes Changes) error {
	values := make(map[string]any, len(changes)+1)
	for column, value := range changes {
		switch column {
		case "id", "create_time", "deleted":
			continue
		}
		values[column] = value
	}
	values["update_time"] = r.now()

	res := r.live(ctx).Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("%s: update %d: %w", r.entity, id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// mysql reports zero affected rows when nothing changed.
	var count int64
	if err := r.live(ctx).Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).Count(&count).Error; err != nil {
		return fmt.Errorf("%s: update %d: %w", r.entity, id, err)
	}
	if count == 0 {
		return apperr.NotFound(r.entity, id)
	}
	return nil
}

// Delete soft-deletes a row. It is idempotent; the result reports whether a live row
// was hidden by this call.
func (r *Repository[T, PT]) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.live(ctx).
		Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).
		Updates(map[string]any{"deleted": 1, "update_time": r.now()})
	if res.Error != nil {
		return false, fmt.Errorf("%s: delete %d: %w", r.entity, id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Transaction runs fn with a repository bound to a single database transaction.
func (r *Repository[T, PT]) Transaction(ctx context.Context, fn func(tx *Repository[T, PT]) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository[T, PT]{db: tx, entity: r.entity, now: r.now})
	})
}

func applyFilters(tx *gorm.DB, filters []Filter) *gorm.DB {
	for _, f := range filters {
		col := clause.Column{Name: f.column}
		if !f.contains {
			tx = tx.Where(clause.Eq{Column: col, Value: f.value})
			continue
		}
		text, _ := f.value.(string)
		if text == "" {
			continue
		}
		pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
		tx = tx.Where(clause.Expr{
			SQL:  "LOWER(?) LIKE ? ESCAPE '" + likeEscape + "'",
			Vars: []any{col, pattern},
		})
	}
	return tx
}

func escapeLike(s string) string {
	return strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	).Replace(s)
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
