package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/carecheckout/internal/apperr"
	"gorm.io/gorm"
)

type ValidationError = apperr.FieldError

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = apperr.Validation("invalid_request")
	ErrNotFound       = apperr.NotFound("not_found")
)

// ErrorHandlingMiddleware renders the last handler error. With hideDetail set,
// processor and internal failures are reported without their code.
func ErrorHandlingMiddleware(hideDetail bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err, hideDetail)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return ErrInvalidRequest
}

func newValidationError(field, code, message string) error {
	return apperr.ValidationFields(ValidationError{Field: field, Code: code, Message: message})
}

func mapError(err error, hideDetail bool) (int, errorPayload) {
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, errorPayload{Type: string(apperr.KindNotFound), Message: "not found"}
	}

	classified, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError, errorPayload{
			Type:    string(apperr.KindInternal),
			Message: "internal server error",
		}
	}

	payload := errorPayload{Type: string(classified.Kind), Code: classified.Code}
	switch classified.Kind {
	case apperr.KindValidation:
		payload.Message = "validation error"
		payload.Errors = classified.Fields
		return http.StatusBadRequest, payload
	case apperr.KindNotFound:
		payload.Message = "not found"
		return http.StatusNotFound, payload
	case apperr.KindConflict:
		payload.Message = "conflict"
		return http.StatusConflict, payload
	case apperr.KindRateLimited:
		payload.Message = "too many requests"
		return http.StatusTooManyRequests, payload
	case apperr.KindProcessor:
		payload.Message = "payment processor error"
		if hideDetail {
			payload.Code = ""
		}
		return http.StatusBadGateway, payload
	case apperr.KindConfiguration:
		payload.Message = "service not configured"
		if hideDetail {
			payload.Code = ""
		}
		return http.StatusServiceUnavailable, payload
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    string(apperr.KindInternal),
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the type and code written to request logs.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if errors.Is(err, ErrUnauthorized) {
		return "unauthorized", "unauthorized"
	}
	if classified, ok := apperr.As(err); ok {
		return string(classified.Kind), classified.Code
	}
	return string(apperr.KindInternal), "unclassified"
}
