// Package api exposes the ledger engine and the budget tracker over HTTP.
// Tenant and actor come from the session middleware headers.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/budget"
	"github.com/mmdatafocus/ledger_backend/ledger"
	"github.com/mmdatafocus/ledger_backend/middlewares"
)

type Handler struct {
	engine  *ledger.Engine
	tracker *budget.Tracker
}

func NewHandler(engine *ledger.Engine, tracker *budget.Tracker) *Handler {
	return &Handler{engine: engine, tracker: tracker}
}

// Register mounts every route under /v1.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1", middlewares.SessionMiddleware())

	accounts := v1.Group("/accounts")
	accounts.POST("", h.createAccount)
	accounts.GET("", h.listAccounts)
	accounts.GET("/stats", h.accountStats)
	accounts.GET("/top-debtors", h.topDebtors)
	accounts.GET("/:id", h.getAccount)
	accounts.PUT("/:id/active", h.setAccountActive)
	accounts.DELETE("/:id", h.deleteAccount)
	accounts.POST("/:id/postings", h.appendPosting)
	accounts.GET("/:id/balance", h.cachedBalance)
	accounts.POST("/:id/balance/recompute", h.recompute)
	accounts.GET("/:id/statement", h.statement)
	accounts.GET("/:id/history", h.history)
	accounts.GET("/:id/aging", h.aging)
	accounts.POST("/:id/reconciliations", h.reconcile)
	accounts.GET("/:id/reconciliations", h.listReconciliations)
	accounts.GET("/:id/unreconciled", h.unreconciled)

	v1.POST("/postings/reconcile", h.markReconciledBulk)
	v1.POST("/postings/:id/reconcile", h.markReconciled)

	v1.GET("/aging", h.agingAll)
	v1.GET("/aging/summary", h.agingSummary)
	v1.GET("/bank/summary", h.bankSummary)

	v1.POST("/cost-centers", h.createCostCenter)
	v1.GET("/cost-centers", h.listCostCenters)
	v1.GET("/cost-centers/tree", h.costCenterTree)
	v1.POST("/budget-items", h.createBudgetItem)
	v1.GET("/budget-items/:id", h.getBudgetItem)
	v1.PUT("/budget-items/:id/actual", h.setActual)
	v1.GET("/budget/track", h.track)
	v1.GET("/budget/compare", h.compareYear)
}
