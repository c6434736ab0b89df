package handler

import (
	"errors"
	"net/http"
	"time"

	"pharmart/internal/domain"
	"pharmart/internal/middleware"
	"pharmart/internal/models"
	"pharmart/internal/repository"
	"pharmart/internal/service"
	"pharmart/internal/ws"
	"pharmart/pkg/money"

	"github.com/gin-gonic/gin"
)

// PayoutHandler is the supplier-facing surface: payout methods, balance,
// payout requests and the transaction history.
type PayoutHandler struct {
	payoutSvc  *service.PayoutService
	ledgerSvc  *service.LedgerService
	methodRepo *repository.PayoutMethodRepository
	payoutRepo *repository.PayoutRepository
	txRepo     *repository.TransactionRepository
	hub        *ws.ActivityHub
	currency   string
}

func NewPayoutHandler(
	payoutSvc *service.PayoutService,
	ledgerSvc *service.LedgerService,
	methodRepo *repository.PayoutMethodRepository,
	payoutRepo *repository.PayoutRepository,
	txRepo *repository.TransactionRepository,
	hub *ws.ActivityHub,
	currency string,
) *PayoutHandler {
	return &PayoutHandler{
		payoutSvc:  payoutSvc,
		ledgerSvc:  ledgerSvc,
		methodRepo: methodRepo,
		payoutRepo: payoutRepo,
		txRepo:     txRepo,
		hub:        hub,
		currency:   currency,
	}
}

// Balance handles GET /supplier/balance.
func (h *PayoutHandler) Balance(c *gin.Context) {
	supplierID := middleware.GetUserID(c)
	b, err := h.ledgerSvc.Balance(supplierID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute balance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"available_cents":     b.AvailableCents,
		"available_formatted": money.Format(h.currency, b.AvailableCents),
		"reserved_cents":      b.ReservedCents,
		"reserved_formatted":  money.Format(h.currency, b.ReservedCents),
		"spendable_cents":     b.SpendableCents,
		"spendable_formatted": money.Format(h.currency, b.SpendableCents),
	})
}

// CreateMethod handles POST /supplier/payout-methods.
func (h *PayoutHandler) CreateMethod(c *gin.Context) {
	var req struct {
		Type          string `json:"type" binding:"required"`
		BankName      string `json:"bank_name"`
		AccountName   string `json:"account_name"`
		AccountNumber string `json:"account_number"`
		BranchName    string `json:"branch_name"`
		Provider      string `json:"provider"`
		PhoneNumber   string `json:"phone_number"`
		TillNumber    string `json:"till_number"`
		IsPrimary     bool   `json:"is_primary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Type {
	case domain.PayoutMethodBank:
		if req.BankName == "" || req.AccountName == "" || req.AccountNumber == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bank_name, account_name and account_number required"})
			return
		}
	case domain.PayoutMethodMpesa:
		if req.PhoneNumber == "" && req.TillNumber == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone_number or till_number required"})
			return
		}
	case domain.PayoutMethodMobileMoney:
		if req.Provider == "" || req.PhoneNumber == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provider and phone_number required"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid method type"})
		return
	}
	m := &models.PayoutMethod{
		SupplierID:    middleware.GetUserID(c),
		Type:          req.Type,
		BankName:      req.BankName,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		BranchName:    req.BranchName,
		Provider:      req.Provider,
		PhoneNumber:   req.PhoneNumber,
		TillNumber:    req.TillNumber,
		IsPrimary:     req.IsPrimary,
	}
	if err := h.methodRepo.Create(m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save payout method"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"method": methodView(m)})
}

// ListMethods handles GET /supplier/payout-methods.
func (h *PayoutHandler) ListMethods(c *gin.Context) {
	methods, err := h.methodRepo.ListBySupplier(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payout methods"})
		return
	}
	views := make([]gin.H, 0, len(methods))
	for i := range methods {
		views = append(views, methodView(&methods[i]))
	}
	c.JSON(http.StatusOK, gin.H{"methods": views})
}

// SetPrimaryMethod handles POST /supplier/payout-methods/:id/primary.
func (h *PayoutHandler) SetPrimaryMethod(c *gin.Context) {
	err := h.methodRepo.SetPrimary(middleware.GetUserID(c), paramUint(c, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payout method not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set primary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// DeleteMethod handles DELETE /supplier/payout-methods/:id.
func (h *PayoutHandler) DeleteMethod(c *gin.Context) {
	err := h.methodRepo.Delete(middleware.GetUserID(c), paramUint(c, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payout method not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete payout method"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// RequestPayout handles POST /supplier/payouts.
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	var req struct {
		PayoutMethodID uint   `json:"payout_method_id" binding:"required"`
		AmountCents    int64  `json:"amount_cents" binding:"required,min=1"`
		Notes          string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	supplierID := middleware.GetUserID(c)
	payout, err := h.payoutSvc.Request(supplierID, req.PayoutMethodID, req.AmountCents, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientBalance):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient balance"})
		case errors.Is(err, domain.ErrInvalidMethod):
			c.JSON(http.StatusBadRequest, gin.H{"error": "payout method invalid or unverified"})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payout method not found"})
		case errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request payout"})
		}
		return
	}
	h.hub.Broadcast(ws.Event{
		Type:        "payout_requested",
		Description: "Payout " + payout.Reference + " requested for " + money.Format(h.currency, payout.AmountCents),
		AmountCents: payout.AmountCents,
		At:          time.Now(),
	})
	c.JSON(http.StatusCreated, gin.H{
		"payout":           payout,
		"amount_formatted": money.Format(h.currency, payout.AmountCents),
	})
}

// CancelPayout handles POST /supplier/payouts/:id/cancel. Only the owning
// supplier may cancel, and only while pending.
func (h *PayoutHandler) CancelPayout(c *gin.Context) {
	payout, err := h.payoutRepo.GetByID(paramUint(c, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payout not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load payout"})
		return
	}
	if payout.SupplierID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your payout"})
		return
	}
	updated, err := h.payoutSvc.Cancel(payout.ID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "payout can no longer be cancelled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel payout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payout": updated})
}

// ListPayouts handles GET /supplier/payouts.
func (h *PayoutHandler) ListPayouts(c *gin.Context) {
	f := repository.PayoutFilter{
		SupplierID: middleware.GetUserID(c),
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

// ListTransactions handles GET /supplier/transactions: the supplier's ledger history.
func (h *PayoutHandler) ListTransactions(c *gin.Context) {
	f := repository.TransactionFilter{
		SupplierID: middleware.GetUserID(c),
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

// methodView hides raw account numbers behind the masked display values.
func methodView(m *models.PayoutMethod) gin.H {
	return gin.H{
		"id":             m.ID,
		"type":           m.Type,
		"display_name":   m.DisplayName(),
		"masked_account": m.MaskedAccount(),
		"is_primary":     m.IsPrimary,
		"is_verified":    m.IsVerified,
		"created_at":     m.CreatedAt,
	}
}
