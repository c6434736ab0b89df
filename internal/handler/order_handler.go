package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"pharmart/internal/domain"
	"pharmart/internal/middleware"
	"pharmart/internal/models"
	"pharmart/internal/repository"
	"pharmart/pkg/money"
	"pharmart/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// taxRatePercent is the VAT applied to order subtotals.
const taxRatePercent = 16

type OrderHandler struct {
	orderRepo   *repository.OrderRepository
	productRepo *repository.ProductRepository
	userRepo    *repository.UserRepository
	provider    payment.Provider
	currency    string
}

func NewOrderHandler(
	orderRepo *repository.OrderRepository,
	productRepo *repository.ProductRepository,
	userRepo *repository.UserRepository,
	provider payment.Provider,
	currency string,
) *OrderHandler {
	return &OrderHandler{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		provider:    provider,
		currency:    currency,
	}
}

type orderItemReq struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// Create handles POST /orders. All items must belong to one supplier; the
// shipping address and billing details are snapshotted verbatim so later
// profile edits never rewrite order history.
func (h *OrderHandler) Create(c *gin.Context) {
	var req struct {
		Items           []orderItemReq  `json:"items" binding:"required,min=1"`
		ShippingAddress json.RawMessage `json:"shipping_address" binding:"required"`
		BillingDetails  json.RawMessage `json:"billing_details" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		supplierID uint
		subtotal   int64
		items      []models.OrderItem
	)
	for _, ir := range req.Items {
		p, err := h.productRepo.GetByID(ir.ProductID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if p.Status != domain.ProductStatusActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product " + p.Name + " is not available"})
			return
		}
		if p.StockQuantity < ir.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient stock for " + p.Name})
			return
		}
		if supplierID == 0 {
			supplierID = p.SupplierID
		} else if supplierID != p.SupplierID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "all items must be from the same supplier"})
			return
		}
		line := p.PriceCents * int64(ir.Quantity)
		subtotal += line
		items = append(items, models.OrderItem{
			ProductID:      p.ID,
			ProductName:    p.Name,
			UnitPriceCents: p.PriceCents,
			Quantity:       ir.Quantity,
			LineTotalCents: line,
		})
	}

	tax := subtotal * taxRatePercent / 100
	order := &models.Order{
		OrderReference:  "ORD-" + uuid.New().String()[:12],
		UserID:          middleware.GetUserID(c),
		SupplierID:      supplierID,
		SubtotalCents:   subtotal,
		TaxCents:        tax,
		TotalCents:      subtotal + tax,
		Status:          domain.OrderStatusProcessing,
		PaymentStatus:   domain.PaymentStatusPending,
		ShippingAddress: string(req.ShippingAddress),
		BillingDetails:  string(req.BillingDetails),
		Items:           items,
	}
	if err := h.orderRepo.Create(order, h.productRepo); err != nil {
		if errors.Is(err, domain.ErrConstraintViolation) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"order":           order,
		"total_formatted": money.Format(h.currency, order.TotalCents),
	})
}

// List handles GET /orders. Customers see their own orders, suppliers their
// incoming ones, admins everything.
func (h *OrderHandler) List(c *gin.Context) {
	f := repository.OrderFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 20),
	}
	switch middleware.GetRole(c) {
	case domain.RoleSupplier:
		f.SupplierID = middleware.GetUserID(c)
	case domain.RoleCustomer:
		f.UserID = middleware.GetUserID(c)
	}
	orders, total, err := h.orderRepo.List(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total, "page": f.Page, "limit": f.Limit})
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	order, ok := h.visibleOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":           order,
		"total_formatted": money.Format(h.currency, order.TotalCents),
	})
}

// UpdateStatus handles PATCH /orders/:id/status. Suppliers move their orders
// through Processing -> Shipped -> Delivered; Cancelled is only reachable
// before shipping.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	order, ok := h.visibleOrder(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validOrderTransition(order.Status, req.Status) {
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
		return
	}
	if err := h.orderRepo.UpdateStatus(order.ID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}
	order.Status = req.Status
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Checkout handles POST /orders/:id/checkout, starting an M-Pesa STK push
// for the order total. The webhook settles the order when the push completes.
func (h *OrderHandler) Checkout(c *gin.Context) {
	order, ok := h.visibleOrder(c)
	if !ok {
		return
	}
	if order.IsPaid() {
		c.JSON(http.StatusConflict, gin.H{"error": "order already paid"})
		return
	}
	var req struct {
		PhoneNumber string `json:"phone_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	phone := payment.NormalizePhone(req.PhoneNumber)
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
		return
	}
	buyer, err := h.userRepo.GetByID(order.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "buyer lookup failed"})
		return
	}
	resp, err := h.provider.InitiatePayment(c.Request.Context(), payment.PaymentRequest{
		OrderID:       order.OrderReference,
		AmountCents:   order.TotalCents,
		Currency:      h.currency,
		Description:   "Order " + order.OrderReference,
		CustomerPhone: phone,
		CustomerName:  buyer.Name,
		CustomerEmail: buyer.Email,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment initiation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_reference":     order.OrderReference,
		"status":              resp.Status,
		"checkout_request_id": resp.CheckoutRequestID,
		"message":             "Check your phone to confirm the payment.",
	})
}

// visibleOrder loads :id and enforces that the caller may see it.
func (h *OrderHandler) visibleOrder(c *gin.Context) (*models.Order, bool) {
	order, err := h.orderRepo.GetByID(paramUint(c, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		}
		return nil, false
	}
	userID := middleware.GetUserID(c)
	switch middleware.GetRole(c) {
	case domain.RoleAdmin:
	case domain.RoleSupplier:
		if order.SupplierID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
			return nil, false
		}
	default:
		if order.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
			return nil, false
		}
	}
	return order, true
}

func validOrderTransition(from, to string) bool {
	switch from {
	case domain.OrderStatusProcessing:
		return to == domain.OrderStatusShipped || to == domain.OrderStatusCancelled
	case domain.OrderStatusShipped:
		return to == domain.OrderStatusDelivered
	default:
		return false
	}
}
