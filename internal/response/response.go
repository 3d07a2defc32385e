package response

import "github.com/gin-gonic/gin"

// Error responses are flat on the wire: {"error": "...", "code": "..."}
// with an optional "fields" map for validation details. Success bodies are
// endpoint-specific and written with c.JSON directly; this package only
// standardizes the failure shape.

// Fail sends an error response with a typed code and its German message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, gin.H{
		"error": GetMessage(code),
		"code":  code,
	})
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, gin.H{
		"error":  GetMessage(code),
		"code":   code,
		"fields": fields,
	})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"error": GetMessage(code),
		"code":  code,
	})
}
