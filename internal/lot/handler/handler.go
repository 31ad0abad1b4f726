package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/lot"
	"github.com/fekuna/omnipos-fulfillment-service/internal/lot/dto"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LotHandler struct {
	uc     lot.UseCase
	logger logger.ZapLogger
}

func NewLotHandler(uc lot.UseCase, log logger.ZapLogger) *LotHandler {
	return &LotHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *LotHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/lots", h.CreateLot)
	rg.GET("/lots", h.ListLots)
	rg.GET("/lots/:id", h.GetLot)
}

func (h *LotHandler) CreateLot(c *gin.Context) {
	var input dto.CreateLotInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l, err := h.uc.CreateLot(c.Request.Context(), &input)
	if err != nil {
		h.logger.Warn("create lot failed", zap.Error(err))
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, l)
}

func (h *LotHandler) GetLot(c *gin.Context) {
	l, err := h.uc.GetLot(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *LotHandler) ListLots(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filters := &dto.LotFilters{
		WarehouseID: c.Query("warehouse_id"),
		SkuID:       c.Query("sku_id"),
		InStockOnly: c.Query("in_stock") == "true",
		Page:        page,
		PageSize:    pageSize,
	}

	lots, count, err := h.uc.ListLots(c.Request.Context(), filters)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": lots, "total": count})
}
