package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"pharmart/internal/domain"
	"pharmart/internal/repository"
	"pharmart/internal/service"
	"pharmart/internal/ws"
	"pharmart/pkg/money"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MpesaCallback is the gateway webhook payload after an STK push resolves.
type MpesaCallback struct {
	Amount            string `json:"amount"`
	CheckoutRequestID string `json:"checkout_request_id"`
	Currency          string `json:"currency"`
	CustomerPhone     string `json:"customer_phone"`
	MerchantOrderID   string `json:"merchant_order_id"`
	OrderID           string `json:"order_id"`
	ReceiptNumber     string `json:"receipt_number"`
	Status            string `json:"status"`
	StatusCode        string `json:"status_code"`
	StatusDescription string `json:"status_description"`
	TransactionDate   string `json:"transaction_date"`
}

type PaymentWebhookHandler struct {
	db        *gorm.DB
	orderRepo *repository.OrderRepository
	ledgerSvc *service.LedgerService
	hub       *ws.ActivityHub
	currency  string
}

func NewPaymentWebhookHandler(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	ledgerSvc *service.LedgerService,
	hub *ws.ActivityHub,
	currency string,
) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		db:        db,
		orderRepo: orderRepo,
		ledgerSvc: ledgerSvc,
		hub:       hub,
		currency:  currency,
	}
}

// Handle processes the M-Pesa callback. On COMPLETED it marks the order paid
// and writes the supplier's income ledger entry in one transaction. Gateways
// redeliver callbacks, so a second delivery for an already-paid order is an
// acknowledged no-op.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var payload MpesaCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Webhook] mpesa unmarshal error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ref := payload.MerchantOrderID
	if ref == "" {
		ref = payload.OrderID
	}
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing order reference"})
		return
	}
	log.Printf("[Webhook] mpesa status=%s order=%s receipt=%s", payload.Status, ref, payload.ReceiptNumber)

	if !strings.EqualFold(payload.Status, "COMPLETED") {
		// Failed or cancelled push; the order stays Pending and the buyer
		// can retry checkout.
		c.JSON(http.StatusOK, gin.H{"acknowledged": true})
		return
	}

	order, err := h.orderRepo.GetByReference(ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order lookup failed"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := h.orderRepo.MarkPaid(tx, order.ID, time.Now()); err != nil {
			return err
		}
		_, err := h.ledgerSvc.RecordOrderIncomeTx(tx, order)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Redelivered callback for an already-settled order.
			c.JSON(http.StatusOK, gin.H{"acknowledged": true})
			return
		}
		log.Printf("[Webhook] settle order %s failed: %v", ref, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to settle order"})
		return
	}

	h.hub.Broadcast(ws.Event{
		Type:        "order_paid",
		Description: "Order " + order.OrderReference + " paid " + money.Format(h.currency, order.TotalCents),
		AmountCents: order.TotalCents,
		At:          time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}
