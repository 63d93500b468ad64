package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/apperr"
)

const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderUserID   = "X-User-ID"

	maxBodyBytes = 1 << 20
)

func init() {
	binding.EnableDecoderDisallowUnknownFields = true
}

// bindJSON binds the body into dst, rejecting unknown fields and bodies over
// maxBodyBytes.
func bindJSON(c *gin.Context, dst any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return newValidationError(typeErr.Field, "invalid_"+typeErr.Field, "invalid value")
	}
	if msg := err.Error(); strings.HasPrefix(msg, "json: unknown field ") {
		field := strings.Trim(strings.TrimPrefix(msg, "json: unknown field "), `"`)
		return newValidationError(field, "unknown_field", "unknown field")
	}
	return invalidRequestError()
}

// tenantID reads the tenant resolved by the upstream gateway.
func tenantID(c *gin.Context) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.GetHeader(HeaderTenantID))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Validation("invalid_tenant_id")
	}
	return id, nil
}

// userID returns the authenticated user, or nil for guest checkout.
func userID(c *gin.Context) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return nil, apperr.Validation("invalid_user_id")
	}
	return &id, nil
}

func requireUser(c *gin.Context) (uuid.UUID, error) {
	id, err := userID(c)
	if err != nil {
		return uuid.Nil, err
	}
	if id == nil {
		return uuid.Nil, ErrUnauthorized
	}
	return *id, nil
}

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, newValidationError(name, "invalid_"+name, "invalid id")
	}
	return id, nil
}
