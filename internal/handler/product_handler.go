package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"pharmart/internal/domain"
	"pharmart/internal/middleware"
	"pharmart/internal/models"
	"pharmart/internal/repository"
	"pharmart/pkg/cloudinary"
	"pharmart/pkg/money"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductHandler struct {
	productRepo *repository.ProductRepository
	cloud       cloudinary.Client
	currency    string
}

func NewProductHandler(productRepo *repository.ProductRepository, cloud cloudinary.Client, currency string) *ProductHandler {
	return &ProductHandler{productRepo: productRepo, cloud: cloud, currency: currency}
}

// List handles GET /products with search, status, supplier, category,
// stock-status, sort and pagination filters. The applied filters and catalog
// stats are echoed back alongside the page.
func (h *ProductHandler) List(c *gin.Context) {
	f := repository.ProductFilter{
		Search:      c.Query("search"),
		Status:      c.Query("status"),
		StockStatus: c.Query("stock_status"),
		SortBy:      c.Query("sort_by"),
		SortDir:     c.Query("sort_dir"),
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", 20),
	}
	if v := queryInt(c, "supplier_id", 0); v > 0 {
		f.SupplierID = uint(v)
	}
	if v := queryInt(c, "category_id", 0); v > 0 {
		f.CategoryID = uint(v)
	}
	products, total, err := h.productRepo.List(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	stats, err := h.productRepo.Stats(f.SupplierID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": h.withPrices(products),
		"total":    total,
		"page":     f.Page,
		"limit":    f.Limit,
		"stats":    stats,
		"filters":  f,
	})
}

// Get handles GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id := paramUint(c, "id")
	p, err := h.productRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":         p,
		"price_formatted": money.Format(h.currency, p.PriceCents),
	})
}

// Create handles POST /products. Supplier only; the authenticated supplier
// owns the product.
func (h *ProductHandler) Create(c *gin.Context) {
	var req struct {
		CategoryID           uint   `json:"category_id"`
		Name                 string `json:"name" binding:"required"`
		Description          string `json:"description"`
		PriceCents           int64  `json:"price_cents" binding:"required,min=1"`
		StockQuantity        int    `json:"stock_quantity" binding:"min=0"`
		LowStockThreshold    int    `json:"low_stock_threshold"`
		RequiresPrescription bool   `json:"requires_prescription"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := &models.Product{
		SupplierID:           middleware.GetUserID(c),
		CategoryID:           req.CategoryID,
		Name:                 req.Name,
		Description:          req.Description,
		PriceCents:           req.PriceCents,
		StockQuantity:        req.StockQuantity,
		LowStockThreshold:    req.LowStockThreshold,
		Status:               domain.ProductStatusActive,
		RequiresPrescription: req.RequiresPrescription,
	}
	if p.LowStockThreshold <= 0 {
		p.LowStockThreshold = 10
	}
	if err := h.productRepo.Create(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

// Update handles PATCH /products/:id. Only the owning supplier may edit.
func (h *ProductHandler) Update(c *gin.Context) {
	p, ok := h.ownedProduct(c)
	if !ok {
		return
	}
	var req struct {
		Name                 *string `json:"name"`
		Description          *string `json:"description"`
		PriceCents           *int64  `json:"price_cents"`
		StockQuantity        *int    `json:"stock_quantity"`
		LowStockThreshold    *int    `json:"low_stock_threshold"`
		Status               *string `json:"status"`
		RequiresPrescription *bool   `json:"requires_prescription"`
		CategoryID           *uint   `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.PriceCents != nil {
		p.PriceCents = *req.PriceCents
	}
	if req.StockQuantity != nil {
		p.StockQuantity = *req.StockQuantity
	}
	if req.LowStockThreshold != nil {
		p.LowStockThreshold = *req.LowStockThreshold
	}
	if req.Status != nil {
		if *req.Status != domain.ProductStatusActive && *req.Status != domain.ProductStatusInactive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		p.Status = *req.Status
	}
	if req.RequiresPrescription != nil {
		p.RequiresPrescription = *req.RequiresPrescription
	}
	if req.CategoryID != nil {
		p.CategoryID = *req.CategoryID
	}
	if err := h.productRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// Delete handles DELETE /products/:id. Products referenced by order history
// cannot be deleted.
func (h *ProductHandler) Delete(c *gin.Context) {
	p, ok := h.ownedProduct(c)
	if !ok {
		return
	}
	if err := h.productRepo.Delete(p.ID); err != nil {
		switch {
		case errors.Is(err, domain.ErrConstraintViolation):
			c.JSON(http.StatusConflict, gin.H{"error": "product has order history and cannot be deleted"})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UploadImage handles POST /products/:id/image, pushing the file to
// Cloudinary and storing the optimized URL.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	p, ok := h.ownedProduct(c)
	if !ok {
		return
	}
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image uploads not configured"})
		return
	}
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()
	publicID := fmt.Sprintf("product-%d-%s", p.ID, uuid.New().String()[:8])
	url, thumb, err := h.cloud.UploadImage(c.Request.Context(), file, "products", publicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	p.ImageURL = url
	if err := h.productRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": url, "thumbnail_url": thumb})
}

// ownedProduct loads :id and enforces that the caller is the owning supplier
// (admins bypass the ownership check).
func (h *ProductHandler) ownedProduct(c *gin.Context) (*models.Product, bool) {
	p, err := h.productRepo.GetByID(paramUint(c, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		}
		return nil, false
	}
	if middleware.GetRole(c) != domain.RoleAdmin && p.SupplierID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your product"})
		return nil, false
	}
	return p, true
}

type pricedProduct struct {
	models.Product
	PriceFormatted string `json:"price_formatted"`
}

func (h *ProductHandler) withPrices(products []models.Product) []pricedProduct {
	out := make([]pricedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, pricedProduct{Product: p, PriceFormatted: money.Format(h.currency, p.PriceCents)})
	}
	return out
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func paramUint(c *gin.Context, key string) uint {
	n, _ := strconv.ParseUint(c.Param(key), 10, 64)
	return uint(n)
}
