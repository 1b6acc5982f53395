package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

func yearParam(c *gin.Context) (int, error) {
	year, err := optionalInt(c.Query("year"), "year")
	if err != nil {
		return 0, err
	}
	if year == nil {
		return 0, utils.InvalidInput("year is required")
	}
	return *year, nil
}

func (h *Handler) createCostCenter(c *gin.Context) {
	var input models.NewCostCenter
	if !bindJSON(c, &input) {
		return
	}
	costCenter, err := h.tracker.CreateCostCenter(c.Request.Context(), tenantOf(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, costCenter)
}

func (h *Handler) listCostCenters(c *gin.Context) {
	costCenters, err := h.tracker.ListCostCenters(c.Request.Context(), tenantOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, costCenters)
}

func (h *Handler) costCenterTree(c *gin.Context) {
	year, err := yearParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	tree, err := h.tracker.CostCenterTree(c.Request.Context(), tenantOf(c), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *Handler) createBudgetItem(c *gin.Context) {
	var input models.NewBudgetItem
	if !bindJSON(c, &input) {
		return
	}
	item, err := h.tracker.CreateBudgetItem(c.Request.Context(), tenantOf(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) getBudgetItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	item, err := h.tracker.GetBudgetItem(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type setActualRequest struct {
	ActualAmount *decimal.Decimal `json:"actual_amount"`
}

func (h *Handler) setActual(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req setActualRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ActualAmount == nil {
		respondError(c, utils.InvalidInput("actual_amount is required"))
		return
	}
	item, err := h.tracker.SetActual(c.Request.Context(), tenantOf(c), id, *req.ActualAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) track(c *gin.Context) {
	year, err := yearParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	month, err := optionalInt(c.Query("month"), "month")
	if err != nil {
		respondError(c, err)
		return
	}
	quarter, err := optionalInt(c.Query("quarter"), "quarter")
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := h.tracker.Track(c.Request.Context(), tenantOf(c), year, month, quarter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) compareYear(c *gin.Context) {
	year, err := yearParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	comparison, err := h.tracker.CompareYear(c.Request.Context(), tenantOf(c), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}
