// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RequestID returns the id assigned to the request, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// RespondError writes an ErrorResponse and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: RequestID(c),
	})
}
