package handlers

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"registracion/internal/domain/operation"
	"registracion/internal/infrastructure/http/v1/dto"
)

// OperationService is the part of operation.Service the handler needs.
type OperationService interface {
	ListForMachine(ctx context.Context, machineID string) ([]operation.ListItem, error)
	Detail(ctx context.Context, operationID string) (*operation.Detail, error)
	SetSuspended(ctx context.Context, req operation.SuspendRequest) (*operation.SuspendResult, error)
	ProcessOperations(ctx context.Context, reqs []operation.OpenRequest) (int64, error)
}

// OperationHandler serves the /registracion routes.
type OperationHandler struct {
	*BaseHandler
	service OperationService
}

// NewOperationHandler creates an operation handler.
func NewOperationHandler(base *BaseHandler, service OperationService) *OperationHandler {
	return &OperationHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the handler on rg.
func (h *OperationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/detalle/:operacionId", h.Detail)
	rg.GET("/operaciones/:maquinaId", h.List)
	rg.POST("/operaciones/suspender/:operacionId", h.Suspend)
	rg.POST("/operaciones/procesar", h.Process)
}

// List handles GET /registracion/operaciones/:maquinaId.
func (h *OperationHandler) List(c *gin.Context) {
	items, err := h.service.ListForMachine(c.Request.Context(), c.Param("maquinaId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// Detail handles GET /registracion/detalle/:operacionId.
func (h *OperationHandler) Detail(c *gin.Context) {
	detail, err := h.service.Detail(c.Request.Context(), c.Param("operacionId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, detail)
}

// Suspend handles POST /registracion/operaciones/suspender/:operacionId.
func (h *OperationHandler) Suspend(c *gin.Context) {
	var req dto.SuspendRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.SetSuspended(c.Request.Context(), operation.SuspendRequest{
		OperationID: c.Param("operacionId"),
		Username:    req.Username,
		Password:    req.Password,
		Suspend:     bool(req.Suspend),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	message := "Operación reanudada"
	if result.Suspended {
		message = "Operación suspendida"
	}
	h.OK(c, dto.SuspendResponse{Success: true, Message: message, SuspendResult: result})
}

// Process handles POST /registracion/operaciones/procesar.
func (h *OperationHandler) Process(c *gin.Context) {
	var req dto.ProcessRequest
	if !h.BindJSON(c, &req) {
		return
	}

	number, err := h.service.ProcessOperations(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ProcessResponse{
		Success:          true,
		Message:          fmt.Sprintf("%d operaciones procesadas", len(req.Operations)),
		MultiOperationID: number,
	})
}

var _ OperationService = (*operation.Service)(nil)
