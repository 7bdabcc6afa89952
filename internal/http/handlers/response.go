// Every failure is written as an ErrorResponse so clients can switch on the
// stable code:
//
//	HTTP/1.1 403 Forbidden
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "verification_failed",
//	  "message": "verify token mismatch"
//	}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ledger-bot/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Safe to show to callers
	Message string `json:"message" example:"resource not found"`
}

// fail aborts with a client-facing error. Use failErr when an underlying
// error exists so its text stays in the logs and out of the response.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Msg(msg)
	}
	abort(c, status, code, msg)
}

// failErr logs err on the request logger and aborts with the status text as
// the message.
func failErr(c *gin.Context, status int, code string, err error) {
	_ = c.Error(err)
	ev := middleware.LoggerFrom(c).Warn()
	if status >= http.StatusInternalServerError {
		ev = middleware.LoggerFrom(c).Error()
	}
	ev.Err(err).Int("status", status).Str("code", code).Msg("request failed")
	abort(c, status, code, http.StatusText(status))
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported form of fail for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
