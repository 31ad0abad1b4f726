package reconcile

import (
	"net/http"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/auth"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	job *Job
}

func NewHandler(job *Job) *Handler {
	return &Handler{job: job}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reconcile", h.Reconcile)
}

// Reconcile recomputes remaining quantity for the requested lots.
func (h *Handler) Reconcile(c *gin.Context) {
	if err := auth.RequireRole(c.Request.Context(), auth.RoleAdmin, auth.RoleWarehouse); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	var body struct {
		LotIDs []string `json:"lot_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body.LotIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lot_ids is required"})
		return
	}

	results, err := h.job.ReconcileLots(c.Request.Context(), body.LotIDs)
	if err != nil && len(results) == 0 {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"results": results}
	if err != nil {
		resp["partial_error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
