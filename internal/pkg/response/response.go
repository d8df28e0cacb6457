package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidtube/internal/pkg/apierror"
)

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// Fail writes err in the error envelope. Errors that are not *apierror.Error
// become a generic 500. The underlying error is attached to the gin context so
// the error logger middleware can record it.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)

	apiErr, ok := apierror.From(err)
	if !ok {
		Error(c, http.StatusInternalServerError, apierror.KindInternal.Code(), "Internal server error")
		return
	}
	if len(apiErr.Details) > 0 {
		ErrorWithDetails(c, apiErr.Status(), apiErr.Code(), apiErr.Message, apiErr.Details)
		return
	}
	Error(c, apiErr.Status(), apiErr.Code(), apiErr.Message)
}
