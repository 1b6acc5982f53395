package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/ledger"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, utils.InvalidInput("malformed request body: %s", err.Error()))
		return false
	}
	return true
}

/* accounts */

func (h *Handler) createAccount(c *gin.Context) {
	var input models.NewAccount
	if !bindJSON(c, &input) {
		return
	}
	account, err := h.engine.CreateAccount(c.Request.Context(), tenantOf(c), actorOf(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *Handler) listAccounts(c *gin.Context) {
	filter := models.AccountFilter{Search: c.Query("search")}
	if v := c.Query("family"); v != "" {
		family := models.AccountFamily(v)
		if !family.IsValid() {
			respondError(c, utils.InvalidInput("unknown family %q", v))
			return
		}
		filter.Family = &family
	}
	if v := c.Query("type"); v != "" {
		accountType := models.CounterpartyType(v)
		if !accountType.IsValid() {
			respondError(c, utils.InvalidInput("unknown type %q", v))
			return
		}
		filter.Type = &accountType
	}
	isActive, err := optionalBool(c.Query("is_active"), "is_active")
	if err != nil {
		respondError(c, err)
		return
	}
	filter.IsActive = isActive
	hasBalance, err := optionalBool(c.Query("has_balance"), "has_balance")
	if err != nil {
		respondError(c, err)
		return
	}
	filter.HasBalance = utils.DereferencePtr(hasBalance)

	accounts, err := h.engine.ListAccounts(c.Request.Context(), tenantOf(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *Handler) accountStats(c *gin.Context) {
	stats, err := h.engine.AccountStats(c.Request.Context(), tenantOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) topDebtors(c *gin.Context) {
	limit, err := optionalInt(c.Query("limit"), "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	accounts, err := h.engine.TopDebtors(c.Request.Context(), tenantOf(c), utils.DereferencePtr(limit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *Handler) getAccount(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	account, err := h.engine.GetAccount(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *Handler) setAccountActive(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req setActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IsActive == nil {
		respondError(c, utils.InvalidInput("is_active is required"))
		return
	}
	account, err := h.engine.SetAccountActive(c.Request.Context(), tenantOf(c), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) deleteAccount(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.DeleteAccount(c.Request.Context(), tenantOf(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* postings and balances */

type appendPostingRequest struct {
	Kind          models.PostingKind   `json:"kind"`
	Amount        decimal.Decimal      `json:"amount"`
	PostingDate   string               `json:"posting_date"`
	DueDate       string               `json:"due_date"`
	Description   string               `json:"description"`
	ReferenceType models.ReferenceType `json:"reference_type"`
	ReferenceId   *int                 `json:"reference_id"`
	WithBalance   bool                 `json:"with_balance"`
}

func (h *Handler) appendPosting(c *gin.Context) {
	accountId, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req appendPostingRequest
	if !bindJSON(c, &req) {
		return
	}
	postingDate, err := parseStart(req.PostingDate)
	if err != nil {
		respondError(c, err)
		return
	}
	if postingDate == nil {
		respondError(c, utils.InvalidInput("posting_date is required"))
		return
	}
	dueDate, err := parseStart(req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	input := models.NewPosting{
		AccountId:     accountId,
		Kind:          req.Kind,
		Amount:        req.Amount,
		PostingDate:   *postingDate,
		DueDate:       dueDate,
		Description:   req.Description,
		ReferenceType: req.ReferenceType,
		ReferenceId:   req.ReferenceId,
	}

	ctx := c.Request.Context()
	if req.WithBalance {
		posting, balance, err := h.engine.AppendWithBalance(ctx, tenantOf(c), actorOf(c), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"posting": posting, "balance": balance})
		return
	}
	posting, err := h.engine.Append(ctx, tenantOf(c), actorOf(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"posting": posting})
}

func (h *Handler) cachedBalance(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	balance, err := h.engine.CachedBalance(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *Handler) recompute(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	balance, err := h.engine.Recompute(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": id, "balance": balance})
}

/* reports */

func (h *Handler) statement(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	periodStart, periodEnd, err := requiredWindow(c, "period_start", "period_end")
	if err != nil {
		respondError(c, err)
		return
	}
	statement, err := h.engine.Statement(c.Request.Context(), tenantOf(c), id, periodStart, periodEnd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statement)
}

func (h *Handler) history(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var filter ledger.HistoryFilter
	if filter.From, err = parseStart(c.Query("from")); err != nil {
		respondError(c, err)
		return
	}
	if filter.To, err = parseEnd(c.Query("to")); err != nil {
		respondError(c, err)
		return
	}
	if v := c.Query("kind"); v != "" {
		kind := models.PostingKind(v)
		if !kind.IsValid() {
			respondError(c, utils.InvalidInput("unknown kind %q", v))
			return
		}
		filter.Kind = &kind
	}
	history, err := h.engine.History(c.Request.Context(), tenantOf(c), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) aging(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	asOf, err := asOfParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := h.engine.Aging(c.Request.Context(), tenantOf(c), id, asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) agingAll(c *gin.Context) {
	asOf, err := asOfParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	reports, err := h.engine.AgingAll(c.Request.Context(), tenantOf(c), asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) agingSummary(c *gin.Context) {
	asOf, err := asOfParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := h.engine.AgingSummary(c.Request.Context(), tenantOf(c), asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

/* reconciliation */

type reconcileRequest struct {
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	AssertedBalance decimal.Decimal `json:"asserted_balance"`
	Notes           string          `json:"notes"`
}

func (h *Handler) reconcile(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req reconcileRequest
	if !bindJSON(c, &req) {
		return
	}
	periodStart, err := parseStart(req.PeriodStart)
	if err != nil {
		respondError(c, err)
		return
	}
	periodEnd, err := parseEnd(req.PeriodEnd)
	if err != nil {
		respondError(c, err)
		return
	}
	if periodStart == nil || periodEnd == nil {
		respondError(c, utils.InvalidInput("period_start and period_end are required"))
		return
	}
	reconciliation, err := h.engine.Reconcile(c.Request.Context(), tenantOf(c), models.NewReconciliation{
		AccountId:       id,
		PeriodStart:     *periodStart,
		PeriodEnd:       *periodEnd,
		AssertedBalance: req.AssertedBalance,
		ActorId:         actorOf(c),
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reconciliation)
}

func (h *Handler) listReconciliations(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	reconciliations, err := h.engine.ListReconciliations(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reconciliations)
}

func (h *Handler) unreconciled(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	from, err := parseStart(c.Query("from"))
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := parseEnd(c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	postings, err := h.engine.UnreconciledPostings(c.Request.Context(), tenantOf(c), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, postings)
}

func (h *Handler) markReconciled(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	posting, err := h.engine.MarkReconciled(c.Request.Context(), tenantOf(c), id, actorOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posting)
}

type bulkReconcileRequest struct {
	PostingIds []int `json:"posting_ids"`
}

func (h *Handler) markReconciledBulk(c *gin.Context) {
	var req bulkReconcileRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.engine.MarkReconciledBulk(c.Request.Context(), tenantOf(c), req.PostingIds, actorOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) bankSummary(c *gin.Context) {
	asOf, err := asOfParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := h.engine.BankSummary(c.Request.Context(), tenantOf(c), asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
