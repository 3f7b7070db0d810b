package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response. The first non-nil err is reported in the error field.
func Error(c *gin.Context, code int, message string, errs ...error) {
	resp := Response{
		Code:    code,
		Message: message,
	}
	for _, err := range errs {
		if err != nil {
			resp.Error = err.Error()
			break
		}
	}
	c.JSON(code, resp)
}

// Blocked sends a 503 carrying a payload that explains what could not be loaded
func Blocked(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusServiceUnavailable, Response{
		Code:    http.StatusServiceUnavailable,
		Message: message,
		Data:    data,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, message string, errs ...error) {
	Error(c, http.StatusBadRequest, message, errs...)
}

// NotFound sends a 404 not found response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError sends a 500 internal server error response
func InternalError(c *gin.Context, message string, errs ...error) {
	Error(c, http.StatusInternalServerError, message, errs...)
}
