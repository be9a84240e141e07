package accounts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
)

type Handler struct {
	repo    *Repo
	users   *auth.UserRepo
	refresh *auth.RefreshRepo
}

func NewHandler(repo *Repo, users *auth.UserRepo, refresh *auth.RefreshRepo) *Handler {
	return &Handler{repo: repo, users: users, refresh: refresh}
}

func (h *Handler) GetProfile(c *gin.Context) {
	u, err := h.users.ByID(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateProfileReq struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := h.users.UpdateProfile(c.Request.Context(), auth.UserID(c), req.FirstName, req.LastName, req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, u)
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := auth.UserID(c)
	u, err := h.users.ByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.OldPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old password is incorrect"})
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
		return
	}
	if err := h.users.UpdatePassword(c.Request.Context(), userID, newHash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password update failed"})
		return
	}
	_ = h.refresh.RevokeAll(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Password changed. Please login again."})
}

func (h *Handler) ListAddresses(c *gin.Context) {
	items, err := h.repo.ListAddresses(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list addresses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": items, "count": len(items)})
}

type addressReq struct {
	FullName   string `json:"full_name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	IsDefault  bool   `json:"is_default"`
}

func (r addressReq) input() AddressInput {
	return AddressInput{
		FullName:   r.FullName,
		Phone:      r.Phone,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		PostalCode: r.PostalCode,
		IsDefault:  r.IsDefault,
	}
}

func (h *Handler) CreateAddress(c *gin.Context) {
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.repo.CreateAddress(c.Request.Context(), auth.UserID(c), req.input())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create address"})
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateAddress(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.repo.UpdateAddress(c.Request.Context(), auth.UserID(c), id, req.input())
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to update address"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAddress(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	err := h.repo.DeleteAddress(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete address"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) SetDefaultAddress(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	err := h.repo.SetDefaultAddress(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set default address"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
