package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/export"
	"github.com/fekuna/omnipos-fulfillment-service/internal/export/dto"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ExportHandler struct {
	uc     export.UseCase
	logger logger.ZapLogger
}

func NewExportHandler(uc export.UseCase, log logger.ZapLogger) *ExportHandler {
	return &ExportHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ExportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/exports", h.CreateExport)
	rg.GET("/exports/:id", h.GetExport)
	rg.PUT("/exports/:id", h.UpdateExport)
}

func (h *ExportHandler) CreateExport(c *gin.Context) {
	var input dto.CreateExportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.uc.CreateExport(c.Request.Context(), &input)
	if err != nil {
		h.logger.Warn("create export failed", zap.Error(err))
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, exp)
}

func (h *ExportHandler) GetExport(c *gin.Context) {
	exp, err := h.uc.GetExport(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (h *ExportHandler) UpdateExport(c *gin.Context) {
	var body struct {
		Details []dto.ExportDetailInput `json:"export_details"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.uc.UpdateExport(c.Request.Context(), c.Param("id"), body.Details)
	if err != nil {
		h.logger.Warn("update export failed", zap.Error(err))
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, exp)
}
