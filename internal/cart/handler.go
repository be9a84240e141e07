package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) GetCart(c *gin.Context) {
	crt, err := h.repo.GetCart(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	c.JSON(http.StatusOK, crt)
}

type addItemReq struct {
	ProductID int64  `json:"product_id" binding:"required"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) AddItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	itemID, qty, capped, err := h.repo.AddItem(c.Request.Context(), auth.UserID(c), req.ProductID, req.VariantID, req.Quantity)
	switch {
	case errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	case errors.Is(err, ErrOutOfStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": "out of stock"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to add item"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product added to cart",
		"cart_item": gin.H{
			"id":       itemID,
			"quantity": qty,
		},
		"capped": capped,
	})
}

type updateItemReq struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *Handler) UpdateItem(c *gin.Context) {
	itemID, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
		return
	}

	qty, err := h.repo.UpdateQty(c.Request.Context(), auth.UserID(c), itemID, req.Quantity)
	if errors.Is(err, ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
		return
	}
	if errors.Is(err, ErrOutOfStock) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "out of stock"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated",
		"cart_item": gin.H{
			"id":       itemID,
			"quantity": qty,
		},
	})
}

func (h *Handler) RemoveItem(c *gin.Context) {
	itemID, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	err := h.repo.RemoveItem(c.Request.Context(), auth.UserID(c), itemID)
	if errors.Is(err, ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
}

func (h *Handler) Clear(c *gin.Context) {
	if err := h.repo.Clear(c.Request.Context(), auth.UserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
