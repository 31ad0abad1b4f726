package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/stock"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	uc     stock.UseCase
	logger logger.ZapLogger
}

func NewStockHandler(uc stock.UseCase, log logger.ZapLogger) *StockHandler {
	return &StockHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stock/skus/:id", h.GetSkuStock)
	rg.GET("/stock/products/:id", h.GetProductStock)
}

func (h *StockHandler) GetSkuStock(c *gin.Context) {
	skuID := c.Param("id")

	remaining, err := h.uc.RemainingForSKU(c.Request.Context(), skuID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	sold, err := h.uc.SoldForSKU(c.Request.Context(), skuID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sku_id": skuID, "remaining": remaining, "sold": sold})
}

func (h *StockHandler) GetProductStock(c *gin.Context) {
	summary, err := h.uc.StockSummaryForProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
