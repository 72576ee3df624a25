package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"omni3d_back/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type widget struct {
	Base
	Name     string `gorm:"size:255" json:"name"`
	Category string `gorm:"size:64" json:"category"`
}

func (widget) TableName() string { return "widget" }

func newRepo(t *testing.T) *Repository[widget, *widget] {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db, &widget{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	return NewRepository[widget](db, "widget").WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
}

func TestCreateAssignsFreshIDs(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	seen := map[uint64]bool{}
	for i := 0; i < 5; i++ {
		w := &widget{Name: fmt.Sprintf("w%d", i)}
		w.ID = 999 // ignored
		id, err := repo.Create(ctx, w)
		require.NoError(t, err)
		assert.NotZero(t, id)
		assert.Equal(t, id, w.ID)
		assert.False(t, seen[id], "id %d reused", id)
		seen[id] = true
		assert.Equal(t, w.CreateTime, w.UpdateTime)
	}
}

func TestGetMissing(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.Get(context.Background(), 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSoftDelete(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	w := &widget{Name: "doomed"}
	id, err := repo.Create(ctx, w)
	require.NoError(t, err)

	hidden, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, hidden)

	hidden, err = repo.Delete(ctx, id)
	require.NoError(t, err, "deleting twice is not an error")
	assert.False(t, hidden)

	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	page, err := repo.List(ctx, Query{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	all, err := repo.All(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)

	var raw widget
	require.NoError(t, repo.DB().Unscoped().Where("id = ?", id).Take(&raw).Error)
	assert.Equal(t, 1, raw.Deleted)
	assert.Equal(t, "doomed", raw.Name)

	err = repo.Update(ctx, id, Changes{"name": "revived"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateWritesOnlyGivenColumns(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	w := &widget{Name: "lamp", Category: "light"}
	id, err := repo.Create(ctx, w)
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, id, Changes{"name": "lantern", "create_time": time.Time{}, "id": 77}))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "lantern", got.Name)
	assert.Equal(t, "light", got.Category)
	assert.Equal(t, id, got.ID)
	assert.True(t, got.CreateTime.Equal(w.CreateTime))
	assert.True(t, got.UpdateTime.After(w.UpdateTime))

	err = repo.Update(ctx, 12345, Changes{"name": "ghost"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListPagination(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		_, err := repo.Create(ctx, &widget{Name: fmt.Sprintf("item-%02d", i)})
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, Query{OrderBy: "create_time", Page: 2, Size: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(20), page.Total)
	assert.Equal(t, 2, page.Current)
	assert.Equal(t, 12, page.Size)
	assert.Equal(t, int64(2), page.Pages)
	require.Len(t, page.Records, 8)
	// Newest first: page 2 holds the 13th..20th newest, i.e. item-08 down to item-01.
	assert.Equal(t, "item-08", page.Records[0].Name)
	assert.Equal(t, "item-01", page.Records[7].Name)

	page, err = repo.List(ctx, Query{OrderBy: "create_time", Page: 3, Size: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(20), page.Total)
	assert.Empty(t, page.Records)
	assert.NotNil(t, page.Records)
}

func TestListNormalizesPaging(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	_, err := repo.Create(ctx, &widget{Name: "only"})
	require.NoError(t, err)

	page, err := repo.List(ctx, Query{Page: -3, Size: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Current)
	assert.Equal(t, DefaultPageSize, page.Size)
	assert.Len(t, page.Records, 1)

	page, err = repo.List(ctx, Query{Size: 10_000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Size)
}

func TestListFilters(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for _, w := range []widget{
		{Name: "Industrial Pump", Category: "machines"},
		{Name: "pump station", Category: "buildings"},
		{Name: "Valve", Category: "machines"},
		{Name: "100% coverage_map", Category: "maps"},
		{Name: "100 coverage map", Category: "maps"},
	} {
		w := w
		_, err := repo.Create(ctx, &w)
		require.NoError(t, err)
	}

	names := func(q Query) []string {
		t.Helper()
		page, err := repo.List(ctx, q)
		require.NoError(t, err)
		out := make([]string, 0, len(page.Records))
		for _, r := range page.Records {
			out = append(out, r.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Industrial Pump", "pump station"}, names(Query{Filters: []Filter{Contains("name", "PUMP")}}))
	assert.ElementsMatch(t, []string{"Industrial Pump"}, names(Query{Filters: []Filter{Contains("name", "ump"), Eq("category", "machines")}}))
	assert.ElementsMatch(t, []string{"Industrial Pump", "Valve"}, names(Query{Filters: []Filter{Eq("category", "machines")}}))
	assert.Len(t, names(Query{Filters: []Filter{Contains("name", "")}}), 5)
	// Wildcards in the search text are literal.
	assert.Equal(t, []string{"100% coverage_map"}, names(Query{Filters: []Filter{Contains("name", "0% coverage_")}}))
	assert.Equal(t, []string{"100% coverage_map"}, names(Query{Filters: []Filter{Contains("name", "%")}}))
}

func TestAllOrdering(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, &widget{Name: n})
		require.NoError(t, err)
	}

	asc, err := repo.All(ctx, "")
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, "a", asc[0].Name)

	desc, err := repo.All(ctx, "update_time")
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, "c", desc[0].Name)
}

func TestTransactionRollsBack(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, &widget{Name: "before"})
	require.NoError(t, err)

	err = repo.Transaction(ctx, func(tx *Repository[widget, *widget]) error {
		w, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Update(ctx, w.ID, Changes{"name": "after"}); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "before", got.Name)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "50!% off!_now!!", escapeLike("50% off_now!"))
}

func TestInferDriverFromDSN(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@h/db":                    "postgres",
		"postgresql://u:p@h/db":                  "postgres",
		"mysql://u:p@tcp(h:3306)/db":             "mysql",
		"u:p@tcp(localhost:3306)/db?parseTime=1": "mysql",
		"sqlite://omni3d.db":                     "sqlite",
		"omni3d.db":                              "sqlite",
		"file:omni?mode=memory":                  "sqlite",
		"host=localhost user=u":                  "",
	}
	for dsn, want := range cases {
		assert.Equal(t, want, inferDriverFromDSN(dsn), dsn)
	}
}

func TestOpenSQLite(t *testing.T) {
	db, err := Open("", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db, &widget{}))

	_, err = Open("oracle", "whatever")
	assert.Error(t, err)
	_, err = Open("", "host=localhost")
	assert.Error(t, err)
	_, err = Open("", " ")
	assert.Error(t, err)
}
