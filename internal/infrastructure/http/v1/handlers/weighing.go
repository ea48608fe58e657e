package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"registracion/internal/domain/weighing"
	"registracion/internal/infrastructure/http/v1/dto"
	"registracion/pkg/metrics"
)

// WeighingService is the part of weighing.Service the handler needs.
type WeighingService interface {
	Register(ctx context.Context, req weighing.Request) (*weighing.Result, error)
	Reset(ctx context.Context, req weighing.ResetRequest) error
	ListBundles(ctx context.Context, req weighing.ResetRequest) ([]weighing.StoredBundle, error)
	ListSurplusBundles(ctx context.Context, operationID string) ([]weighing.StoredBundle, error)
	NextLabel(ctx context.Context) (int64, error)
	LastLabel(ctx context.Context) (int64, error)
}

// WeighingHandler serves the /pesaje routes.
type WeighingHandler struct {
	*BaseHandler
	service WeighingService
	metrics *metrics.Metrics
}

// NewWeighingHandler creates a weighing handler. m may be nil.
func NewWeighingHandler(base *BaseHandler, service WeighingService, m *metrics.Metrics) *WeighingHandler {
	return &WeighingHandler{BaseHandler: base, service: service, metrics: m}
}

// RegisterRoutes mounts the handler on rg.
func (h *WeighingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/registrar", h.Register)
	rg.POST("/normal", h.RegisterKind(weighing.KindNormal))
	rg.POST("/sobrante", h.RegisterKind(weighing.KindSurplus))
	rg.POST("/scrap-seriado", h.RegisterKind(weighing.KindScrapSerialized))
	rg.POST("/scrap-no-seriado", h.RegisterKind(weighing.KindScrapUnserialized))
	rg.POST("/reset", h.Reset)
	rg.POST("/obtener-atados", h.Bundles)
	rg.POST("/obtener-atados-sobrante", h.SurplusBundles)
	rg.GET("/etiquetas/ultima", h.LastLabel)
	rg.POST("/etiquetas/siguiente", h.NextLabel)
}

// Register handles POST /pesaje/registrar. The kind comes from sobrante and
// scrapNoSeriado.
func (h *WeighingHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	kind, err := req.Kind()
	if err != nil {
		h.Error(c, err)
		return
	}
	h.register(c, req, kind)
}

// RegisterKind handles the per-kind routes, ignoring sobrante in the body.
func (h *WeighingHandler) RegisterKind(kind weighing.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RegisterRequest
		if !h.BindJSON(c, &req) {
			return
		}
		h.register(c, req, kind)
	}
}

func (h *WeighingHandler) register(c *gin.Context, req dto.RegisterRequest, kind weighing.Kind) {
	result, err := h.service.Register(c.Request.Context(), req.ToDomain(kind))
	if h.metrics != nil {
		var kg float64
		if result != nil {
			kg = (result.OverOrderTotal + result.QualityTotal).Float64()
		}
		h.metrics.RecordRegistration(kind.String(), kg, err)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	message := "Pesaje registrado correctamente"
	if result.Modified {
		message = "Pesaje modificado correctamente"
	}
	h.OK(c, dto.RegisterResponse{Success: true, Message: message, Result: result})
}

// Reset handles POST /pesaje/reset.
func (h *WeighingHandler) Reset(c *gin.Context) {
	var req dto.LineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resetReq, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Reset(c.Request.Context(), resetReq); err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Pesaje reseteado correctamente")
}

// Bundles handles POST /pesaje/obtener-atados.
func (h *WeighingHandler) Bundles(c *gin.Context) {
	var req dto.LineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	lineReq, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}
	bundles, err := h.service.ListBundles(c.Request.Context(), lineReq)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, bundles)
}

// SurplusBundles handles POST /pesaje/obtener-atados-sobrante.
func (h *WeighingHandler) SurplusBundles(c *gin.Context) {
	var req dto.OperationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	bundles, err := h.service.ListSurplusBundles(c.Request.Context(), req.OperationID.String())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, bundles)
}

// LastLabel handles GET /pesaje/etiquetas/ultima.
func (h *WeighingHandler) LastLabel(c *gin.Context) {
	label, err := h.service.LastLabel(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.LabelResponse{Label: label})
}

// NextLabel handles POST /pesaje/etiquetas/siguiente.
func (h *WeighingHandler) NextLabel(c *gin.Context) {
	label, err := h.service.NextLabel(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.LabelResponse{Label: label})
}

var _ WeighingService = (*weighing.Service)(nil)
