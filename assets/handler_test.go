package assets

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"omni3d_back/logging"
	"omni3d_back/storage"
	"omni3d_back/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope[T any] struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func newRouter(t *testing.T) (*gin.Engine, *storage.FileStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	store := testutil.FileStore(t, 0)

	r := gin.New()
	_, err := RegisterRoutes(r, db, store, logging.NewNop())
	require.NoError(t, err)
	return r, store
}

func do[T any](t *testing.T, r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope[T]) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func upload(t *testing.T, r *gin.Engine, name string) Asset {
	t.Helper()
	req := testutil.MultipartRequest(t, http.MethodPost, "/api/assets/upload",
		testutil.Part{Name: "file", FileName: "model.glb", Data: []byte("glTF")},
		testutil.Part{Name: "name", Data: []byte(name)},
		testutil.Part{Name: "categoryId", Data: []byte("models")},
	)
	w, env := do[Asset](t, r, req)
	require.Equal(t, http.StatusOK, w.Code, env.Message)
	return env.Data
}

func TestHandleUpload(t *testing.T) {
	r, store := newRouter(t)

	req := testutil.MultipartRequest(t, http.MethodPost, "/api/assets/upload",
		testutil.Part{Name: "file", FileName: "Tank.FBX", Data: []byte("fbx")},
		testutil.Part{Name: "thumbnail", FileName: "tank.webp", Data: []byte("webp")},
		testutil.Part{Name: "name", Data: []byte("Tank")},
		testutil.Part{Name: "categoryId", Data: []byte("7")},
	)
	w, env := do[Asset](t, r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, KindModel, env.Data.Type)
	assert.Equal(t, "7", env.Data.CategoryID)
	require.NotNil(t, env.Data.Thumbnail)
	assert.True(t, store.Exists(env.Data.URL))
	assert.True(t, store.Exists(*env.Data.Thumbnail))
}

func TestHandleUploadValidation(t *testing.T) {
	r, _ := newRouter(t)

	req := testutil.MultipartRequest(t, http.MethodPost, "/api/assets/upload",
		testutil.Part{Name: "file", FileName: "empty.png"},
		testutil.Part{Name: "name", Data: []byte("Empty")},
		testutil.Part{Name: "categoryId", Data: []byte("1")},
	)
	w, env := do[any](t, r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)

	req = testutil.MultipartRequest(t, http.MethodPost, "/api/assets/upload",
		testutil.Part{Name: "name", Data: []byte("No file")},
	)
	w, _ = do[any](t, r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListAndGet(t *testing.T) {
	r, _ := newRouter(t)
	for i := 0; i < 3; i++ {
		upload(t, r, "Crate "+strconv.Itoa(i))
	}

	w, env := do[struct {
		Records []Asset `json:"records"`
		Total   int64   `json:"total"`
		Size    int     `json:"size"`
		Current int     `json:"current"`
	}](t, r, httptest.NewRequest(http.MethodGet, "/api/assets?current=2&size=2&name=crate&categoryId=all", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), env.Data.Total)
	assert.Equal(t, 2, env.Data.Current)
	assert.Len(t, env.Data.Records, 1)

	first := env.Data.Records[0]
	w, got := do[Asset](t, r, httptest.NewRequest(http.MethodGet, "/api/assets/"+strconv.FormatUint(first.ID, 10), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.Name, got.Data.Name)

	w, _ = do[any](t, r, httptest.NewRequest(http.MethodGet, "/api/assets?current=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do[any](t, r, httptest.NewRequest(http.MethodGet, "/api/assets/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, env404 := do[any](t, r, httptest.NewRequest(http.MethodGet, "/api/assets/999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 404, env404.Code)
}

func TestHandleUpdateWithBlobPart(t *testing.T) {
	r, store := newRouter(t)
	asset := upload(t, r, "Crate")
	target := "/api/assets/" + strconv.FormatUint(asset.ID, 10)

	req := testutil.MultipartRequest(t, http.MethodPut, target,
		testutil.Part{Name: "asset", FileName: "blob", ContentType: "application/json", Data: []byte(`{"name":"Big Crate","categoryId":"props","url":"/elsewhere"}`)},
		testutil.Part{Name: "thumbnail", FileName: "crate.png", Data: []byte("png")},
	)
	w, env := do[Asset](t, r, req)
	require.Equal(t, http.StatusOK, w.Code, env.Message)
	assert.Equal(t, "Big Crate", env.Data.Name)
	assert.Equal(t, "props", env.Data.CategoryID)
	assert.Equal(t, asset.URL, env.Data.URL)
	require.NotNil(t, env.Data.Thumbnail)
	assert.True(t, store.Exists(*env.Data.Thumbnail))

	req = testutil.MultipartRequest(t, http.MethodPut, target,
		testutil.Part{Name: "asset", Data: []byte(`{"name":"Crate v2"}`)},
	)
	w, env = do[Asset](t, r, req)
	require.Equal(t, http.StatusOK, w.Code, env.Message)
	assert.Equal(t, "Crate v2", env.Data.Name)

	req = testutil.MultipartRequest(t, http.MethodPut, target,
		testutil.Part{Name: "asset", Data: []byte(`{not json`)},
	)
	w, _ = do[any](t, r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = testutil.MultipartRequest(t, http.MethodPut, "/api/assets/999",
		testutil.Part{Name: "asset", Data: []byte(`{"name":"Ghost"}`)},
	)
	w, _ = do[any](t, r, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDelete(t *testing.T) {
	r, _ := newRouter(t)
	asset := upload(t, r, "Crate")
	target := "/api/assets/" + strconv.FormatUint(asset.ID, 10)

	for i := 0; i < 2; i++ {
		w, env := do[bool](t, r, httptest.NewRequest(http.MethodDelete, target, nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
	}

	w, _ := do[any](t, r, httptest.NewRequest(http.MethodGet, target, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
