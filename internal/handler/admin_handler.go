package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"pharmart/internal/cache"
	"pharmart/internal/domain"
	"pharmart/internal/middleware"
	"pharmart/internal/repository"
	"pharmart/internal/service"
	"pharmart/internal/ws"
	"pharmart/pkg/money"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const dashboardCacheKey = "dashboard:summary"

// AdminHandler serves the admin dashboard, payout processing, supplier
// verification and the Excel exports.
type AdminHandler struct {
	metricsSvc *service.MetricsService
	payoutSvc  *service.PayoutService
	userRepo   *repository.UserRepository
	methodRepo *repository.PayoutMethodRepository
	payoutRepo *repository.PayoutRepository
	txRepo     *repository.TransactionRepository
	cache      *cache.Cache
	hub        *ws.ActivityHub
	ttl        time.Duration
	currency   string
}

func NewAdminHandler(
	metricsSvc *service.MetricsService,
	payoutSvc *service.PayoutService,
	userRepo *repository.UserRepository,
	methodRepo *repository.PayoutMethodRepository,
	payoutRepo *repository.PayoutRepository,
	txRepo *repository.TransactionRepository,
	c *cache.Cache,
	hub *ws.ActivityHub,
	ttl time.Duration,
	currency string,
) *AdminHandler {
	return &AdminHandler{
		metricsSvc: metricsSvc,
		payoutSvc:  payoutSvc,
		userRepo:   userRepo,
		methodRepo: methodRepo,
		payoutRepo: payoutRepo,
		txRepo:     txRepo,
		cache:      c,
		hub:        hub,
		ttl:        ttl,
		currency:   currency,
	}
}

// Dashboard handles GET /admin/dashboard. The summary is expensive to compute,
// so it is served cache-aside with a short TTL.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var cached service.DashboardSummary
	if h.cache.Get(c.Request.Context(), dashboardCacheKey, &cached) {
		c.JSON(http.StatusOK, gin.H{"dashboard": cached, "cached": true})
		return
	}
	summary, err := h.metricsSvc.DashboardSummary(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build dashboard"})
		return
	}
	h.cache.Set(c.Request.Context(), dashboardCacheKey, summary, h.ttl)
	c.JSON(http.StatusOK, gin.H{"dashboard": summary, "cached": false})
}

// ListPayouts handles GET /admin/payouts across all suppliers.
func (h *AdminHandler) ListPayouts(c *gin.Context) {
	f := repository.PayoutFilter{
		SupplierID: uint(queryInt(c, "supplier_id", 0)),
		Status:     c.Query("status"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 20),
	}
	payouts, total, err := h.payoutRepo.List(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payouts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": payouts, "total": total, "page": f.Page, "limit": f.Limit})
}

// ApprovePayout handles POST /admin/payouts/:id/approve (pending -> processing).
func (h *AdminHandler) ApprovePayout(c *gin.Context) {
	payout, err := h.payoutSvc.Approve(paramUint(c, "id"))
	if err != nil {
		h.payoutError(c, err)
		return
	}
	h.invalidateDashboard(c)
	c.JSON(http.StatusOK, gin.H{"payout": payout})
}

// CompletePayout handles POST /admin/payouts/:id/complete. Marking complete
// writes the ledger debit atomically with the status change.
func (h *AdminHandler) CompletePayout(c *gin.Context) {
	payout, err := h.payoutSvc.Complete(paramUint(c, "id"), middleware.GetUserID(c))
	if err != nil {
		h.payoutError(c, err)
		return
	}
	h.invalidateDashboard(c)
	h.hub.Broadcast(ws.Event{
		Type:        "payout_completed",
		Description: "Payout " + payout.Reference + " completed for " + money.Format(h.currency, payout.AmountCents),
		AmountCents: payout.AmountCents,
		At:          time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"payout": payout})
}

// FailPayout handles POST /admin/payouts/:id/fail with a required reason.
func (h *AdminHandler) FailPayout(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payout, err := h.payoutSvc.Fail(paramUint(c, "id"), req.Reason)
	if err != nil {
		h.payoutError(c, err)
		return
	}
	h.invalidateDashboard(c)
	c.JSON(http.StatusOK, gin.H{"payout": payout})
}

// ListTransactions handles GET /admin/transactions.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	f := repository.TransactionFilter{
		SupplierID: uint(queryInt(c, "supplier_id", 0)),
		Type:       c.Query("type"),
		Status:     c.Query("status"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 20),
	}
	txs, total, err := h.txRepo.List(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "total": total, "page": f.Page, "limit": f.Limit})
}

// ListSuppliers handles GET /admin/suppliers.
func (h *AdminHandler) ListSuppliers(c *gin.Context) {
	users, total, err := h.userRepo.ListSuppliers(c.Query("search"), queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list suppliers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": users, "total": total})
}

// VerifySupplier handles POST /admin/suppliers/:id/verify.
func (h *AdminHandler) VerifySupplier(c *gin.Context) {
	if err := h.userRepo.SetVerified(paramUint(c, "id"), time.Now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify supplier"})
		return
	}
	h.invalidateDashboard(c)
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// VerifyPayoutMethod handles POST /admin/payout-methods/:id/verify.
func (h *AdminHandler) VerifyPayoutMethod(c *gin.Context) {
	if err := h.methodRepo.SetVerified(paramUint(c, "id"), true); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payout method not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify payout method"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// ExportTransactions handles GET /admin/exports/transactions and streams an
// .xlsx workbook.
func (h *AdminHandler) ExportTransactions(c *gin.Context) {
	txs, _, err := h.txRepo.List(repository.TransactionFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Page:   1,
		Limit:  10000,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	f := excelize.NewFile()
	const sheet = "Transactions"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Reference", "Supplier ID", "Type", "Amount", "Source", "Status", "Description", "Created At"}
	for i, hdr := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hdr)
	}
	for row, tx := range txs {
		values := []interface{}{
			tx.Reference,
			tx.SupplierID,
			tx.Type,
			money.FormatPlain(tx.AmountCents),
			fmt.Sprintf("%s #%d", tx.ReferenceType, tx.ReferenceID),
			tx.Status,
			tx.Description,
			tx.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	h.writeWorkbook(c, f, "transactions")
}

// ExportPayouts handles GET /admin/exports/payouts.
func (h *AdminHandler) ExportPayouts(c *gin.Context) {
	payouts, _, err := h.payoutRepo.List(repository.PayoutFilter{
		Status: c.Query("status"),
		Page:   1,
		Limit:  10000,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load payouts"})
		return
	}

	f := excelize.NewFile()
	const sheet = "Payouts"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Reference", "Supplier ID", "Amount", "Status", "Failure Reason", "Requested At", "Completed At"}
	for i, hdr := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hdr)
	}
	for row, p := range payouts {
		completed := ""
		if p.CompletedAt != nil {
			completed = p.CompletedAt.Format(time.RFC3339)
		}
		values := []interface{}{
			p.Reference,
			p.SupplierID,
			money.FormatPlain(p.AmountCents),
			p.Status,
			p.FailureReason,
			p.RequestedAt.Format(time.RFC3339),
			completed,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	h.writeWorkbook(c, f, "payouts")
}

func (h *AdminHandler) writeWorkbook(c *gin.Context, f *excelize.File, name string) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("20060102-150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

func (h *AdminHandler) payoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "payout not found"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payout update failed"})
	}
}

func (h *AdminHandler) invalidateDashboard(c *gin.Context) {
	h.cache.Delete(c.Request.Context(), dashboardCacheKey)
}
