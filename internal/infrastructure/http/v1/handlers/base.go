package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"registracion/internal/core/apperror"
	"registracion/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, bindError(err))
		return false
	}
	return true
}

// bindError maps binding failures to validation errors. A failed guid rule
// is reported with the same code the domain uses for bad operation ids.
func bindError(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidation("invalid request body").WithDetail("error", err.Error())
	}

	for _, fe := range verrs {
		if fe.Tag() == dto.TagGUID {
			return apperror.NewValidationCode(apperror.CodeInvalidOperationID, "operacionId is not a valid identifier").
				WithDetail("field", fe.Field()).
				WithDetail("value", fe.Value())
		}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return apperror.NewValidation("invalid request body").WithDetail("fields", fields)
}

// Error registers err on the Gin context and aborts the request. The JSON
// body is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Message sends 200 with a {message} body.
func (h *BaseHandler) Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.MessageResponse{Message: message})
}
