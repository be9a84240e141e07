package orders

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/domain/order"
)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{repo: repo}
}

type createOrderReq struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	City            string `json:"city" binding:"required"`
	PostalCode      string `json:"postal_code" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing shipping details"})
		return
	}

	o, err := h.repo.CreateFromCart(c.Request.Context(), auth.UserID(c), ShippingInput{
		Address:    req.ShippingAddress,
		City:       req.City,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
	})
	if errors.Is(err, ErrEmptyCart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created",
		"order":   o,
	})
}

func (h *Handler) ListMine(c *gin.Context) {
	items, err := h.repo.ListMine(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	if items == nil {
		items = make([]order.Order, 0)
	}
	c.JSON(http.StatusOK, gin.H{"orders": items, "count": len(items)})
}

func (h *Handler) Get(c *gin.Context) {
	orderID, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	o, err := h.repo.GetDetail(c.Request.Context(), auth.UserID(c), orderID)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}
