// internal/interfaces/http/handlers/discount.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/discount"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// DiscountHandler handles discount endpoints
type DiscountHandler struct {
	ledger    *discount.Service
	generator *discount.Generator
}

// NewDiscountHandler creates a new discount handler
func NewDiscountHandler(ledger *discount.Service, generator *discount.Generator) *DiscountHandler {
	return &DiscountHandler{
		ledger:    ledger,
		generator: generator,
	}
}

// ValidateDiscountRequest represents a code check
type ValidateDiscountRequest struct {
	Code string `json:"code" binding:"required"`
}

// GetPublicDiscounts handles GET /discounts
func (h *DiscountHandler) GetPublicDiscounts(c *gin.Context) {
	discounts, err := h.ledger.ListPublicActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Discounts retrieved successfully", discounts)
}

// ValidateDiscount handles POST /discounts/validate
func (h *DiscountHandler) ValidateDiscount(c *gin.Context) {
	var req ValidateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	// Anonymous callers skip the per-user policy
	userID, _ := middleware.GetUserIDFromContext(c)

	d, err := h.ledger.Validate(c.Request.Context(), req.Code, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Discount code is valid", discount.ValidateResponse{
		Code:       d.Code,
		Percentage: d.Percentage,
	})
}

// AdminGetDiscounts handles GET /admin/discounts
func (h *DiscountHandler) AdminGetDiscounts(c *gin.Context) {
	discounts, err := h.ledger.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Discounts retrieved successfully", discounts)
}

// AdminGetDiscount handles GET /admin/discounts/:code
func (h *DiscountHandler) AdminGetDiscount(c *gin.Context) {
	d, err := h.ledger.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Discount retrieved successfully", d)
}

// createDiscountBody distinguishes an omitted percentage or max_uses from an explicit zero
type createDiscountBody struct {
	Code       string     `json:"code" binding:"required"`
	Percentage *int       `json:"percentage"`
	IsPublic   bool       `json:"is_public"`
	MaxUses    *int       `json:"max_uses"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// AdminCreateDiscount handles POST /admin/discounts
func (h *DiscountHandler) AdminCreateDiscount(c *gin.Context) {
	var body createDiscountBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}

	// Defaults apply to omitted fields only
	req := discount.CreateDiscountRequest{
		Code:       body.Code,
		Percentage: 10,
		IsPublic:   body.IsPublic,
		MaxUses:    1,
		ExpiresAt:  body.ExpiresAt,
	}
	if body.Percentage != nil {
		req.Percentage = *body.Percentage
	}
	if body.MaxUses != nil {
		req.MaxUses = *body.MaxUses
	}

	d, err := h.ledger.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, "Discount created successfully", d)
}

// AdminGenerateDiscount handles POST /admin/discounts/generate
func (h *DiscountHandler) AdminGenerateDiscount(c *gin.Context) {
	d, err := h.generator.Generate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, "Discount generated successfully", d)
}

// AdminGetConflicts handles GET /admin/discounts/conflicts
func (h *DiscountHandler) AdminGetConflicts(c *gin.Context) {
	conflicts, err := h.ledger.ListConflicts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Discount conflicts retrieved successfully", conflicts)
}
