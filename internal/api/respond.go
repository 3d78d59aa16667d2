package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/auth"
	"buildmatrix/internal/authz"
	"buildmatrix/internal/models"
	"buildmatrix/internal/validation"
)

// respondError writes err with the {"error": "..."} envelope. Internal
// causes are logged here and never sent.
func (h *Handler) respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.WithError(appErr.Cause).Error("Request failed", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString(requestIDKey),
		})
	}
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

func respondDeleted(c *gin.Context, entity string) {
	c.JSON(http.StatusOK, gin.H{"message": entity + " deleted successfully"})
}

// idParam reads a positive integer path parameter.
func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("Invalid " + name)
	}
	return id, nil
}

type normalizer interface {
	Normalize()
}

// bind decodes the JSON body into dst, normalizes it and runs its
// validation tags.
func bind(c *gin.Context, dst normalizer) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return decodeError(err)
	}
	dst.Normalize()
	return validation.Struct(dst)
}

var dateType = reflect.TypeOf(models.Date{})

// decodeError names the offending field when the body is well formed JSON
// but a value has the wrong type.
func decodeError(err error) error {
	if errors.Is(err, io.EOF) {
		return apperrors.Validation("Request body is required")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		if typeErr.Type == dateType {
			return apperrors.Validation(typeErr.Field + " must be a date in YYYY-MM-DD format").WithCause(err)
		}
		return apperrors.Validation("Invalid value for " + typeErr.Field).WithCause(err)
	}
	return apperrors.Validation("Invalid request body").WithCause(err)
}

// principal returns the caller set by the auth middleware.
func principal(c *gin.Context) (authz.Principal, error) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return authz.Principal{}, apperrors.Unauthenticated("")
	}
	return p, nil
}
