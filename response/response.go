// Package response writes the uniform {code, success, data, message} envelope.
package response

import (
	"errors"
	"net/http"

	"omni3d_back/apperr"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every API response.
type Envelope struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK writes a success envelope.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Code: http.StatusOK, Success: true, Data: data})
}

// Fail writes a failure envelope whose status follows the error kind.
func Fail(c *gin.Context, err error) {
	status, message := Classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, Envelope{Code: status, Success: false, Message: message})
}

// Classify maps an error to an HTTP status and a client-facing message.
// Uncategorized errors never leak their text.
func Classify(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "unknown error"
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, apperr.ErrStorage):
		return http.StatusInternalServerError, "file operation failed: " + err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
