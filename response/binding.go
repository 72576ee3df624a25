package response

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"omni3d_back/apperr"

	"github.com/gin-gonic/gin"
)

const maxJSONPartBytes = 8 << 20

// PathID parses the :id route parameter.
func PathID(c *gin.Context) (uint64, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid id %q", raw)
	}
	return id, nil
}

// PageParams reads the current and size query parameters. Absent values are
// returned as zero and normalized by the repository.
func PageParams(c *gin.Context) (int, int, error) {
	current, err := queryInt(c, "current")
	if err != nil {
		return 0, 0, err
	}
	size, err := queryInt(c, "size")
	if err != nil {
		return 0, 0, err
	}
	return current, size, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("invalid %s %q", key, raw)
	}
	return v, nil
}

// RequiredFile returns the named multipart file part.
func RequiredFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := OptionalFile(c, field)
	if err != nil {
		return nil, err
	}
	if fh == nil {
		return nil, apperr.Validation("%s is required", field)
	}
	return fh, nil
}

// OptionalFile returns the named multipart file part, or nil when it is absent.
func OptionalFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return nil, nil
	case err != nil:
		return nil, apperr.Validation("invalid multipart form: %v", err)
	}
	return fh, nil
}

// JSONPart decodes a multipart part holding JSON into dest. Browsers send such a
// part either as a plain field or as a Blob file part; both are accepted. The
// result reports whether the part was present.
func JSONPart(c *gin.Context, field string, dest any) (bool, error) {
	if value, ok := c.GetPostForm(field); ok && strings.TrimSpace(value) != "" {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			return true, apperr.Validation("invalid %s JSON: %v", field, err)
		}
		return true, nil
	}

	fh, err := OptionalFile(c, field)
	if err != nil || fh == nil {
		return false, err
	}
	f, err := fh.Open()
	if err != nil {
		return true, apperr.Validation("read %s part: %v", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxJSONPartBytes))
	if err != nil {
		return true, apperr.Validation("read %s part: %v", field, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return true, apperr.Validation("invalid %s JSON: %v", field, err)
	}
	return true, nil
}

// BindJSON decodes the request body into dest.
func BindJSON(c *gin.Context, dest any) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return apperr.Validation("invalid JSON payload: %v", err)
	}
	return nil
}
