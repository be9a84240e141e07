package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/config"
	"storefront/internal/domain/user"
	"storefront/internal/mail"
	"storefront/internal/util"
)

type Dependencies struct {
	Cfg     config.Config
	JWT     *JWTManager
	Users   *UserRepo
	Refresh *RefreshRepo
	Resets  *ResetRepo
	Mailer  mail.Mailer
}

type Handler struct {
	deps Dependencies
}

func NewHandler(d Dependencies) *Handler {
	return &Handler{deps: d}
}

type signupReq struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshReq struct {
	Refresh string `json:"refresh" binding:"required"`
}

type forgotReq struct {
	Email string `json:"email" binding:"required,email"`
}

type resetReq struct {
	UID         string `json:"uid" binding:"required"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	pwHash, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
		return
	}

	u, err := h.deps.Users.Create(c.Request.Context(), req.Email, pwHash, req.FirstName, req.LastName)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		return
	}

	// No tokens on signup; the client logs in afterwards.
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully. Please login.",
		"user":    sanitizeUser(u),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	u, err := h.deps.Users.ByEmail(c.Request.Context(), req.Email)
	if err != nil || !u.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !CheckPassword(u.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	access, _, _ := h.deps.JWT.SignAccess(u.ID)
	refresh, refreshExp, _ := h.deps.JWT.SignRefresh(u.ID)
	_ = h.deps.Refresh.Store(c.Request.Context(), u.ID, HashToken(refresh), refreshExp)

	c.JSON(http.StatusOK, gin.H{
		"access":  access,
		"refresh": refresh,
		"user":    sanitizeUser(u),
	})
}

// Refresh rotates the pair: the presented refresh token is revoked and a
// new one issued, so a replayed token fails.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.deps.JWT.ParseRefresh(req.Refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	ok, err := h.deps.Refresh.IsValid(c.Request.Context(), claims.UserID, HashToken(req.Refresh))
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token expired or revoked"})
		return
	}

	_ = h.deps.Refresh.Revoke(c.Request.Context(), claims.UserID, HashToken(req.Refresh))

	access, _, _ := h.deps.JWT.SignAccess(claims.UserID)
	newRefresh, refreshExp, _ := h.deps.JWT.SignRefresh(claims.UserID)
	_ = h.deps.Refresh.Store(c.Request.Context(), claims.UserID, HashToken(newRefresh), refreshExp)

	c.JSON(http.StatusOK, gin.H{
		"access":  access,
		"refresh": newRefresh,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, err := h.deps.JWT.ParseRefresh(req.Refresh)
	if err == nil {
		_ = h.deps.Refresh.Revoke(c.Request.Context(), claims.UserID, HashToken(req.Refresh))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ForgotPassword always answers ok so the endpoint cannot be used to probe
// which emails exist.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	u, err := h.deps.Users.ByEmail(c.Request.Context(), req.Email)
	if err != nil || !u.IsActive {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	token, err := util.RandomToken(32)
	if err == nil {
		exp := time.Now().Add(30 * time.Minute)
		if err := h.deps.Resets.Create(c.Request.Context(), u.ID, HashToken(token), exp); err == nil {
			link := fmt.Sprintf("%s%s/%d/%s", h.deps.Cfg.AppBaseURL, h.deps.Cfg.ResetPath, u.ID, token)
			body := "Use the link below to reset your password:\n\n" + link +
				"\n\nThe link expires in 30 minutes. If you didn't request this, ignore this email."
			_ = h.deps.Mailer.Send(u.Email, "Reset your password", body)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := strconv.ParseInt(req.UID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reset link"})
		return
	}

	ok, err := h.deps.Resets.Consume(c.Request.Context(), userID, HashToken(req.Token))
	if err != nil || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired reset link"})
		return
	}

	newHash, err := HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
		return
	}
	if err := h.deps.Users.UpdatePassword(c.Request.Context(), userID, newHash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password update failed"})
		return
	}

	// Old sessions should not survive a reset.
	_ = h.deps.Refresh.RevokeAll(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func sanitizeUser(u user.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"phone":      u.Phone,
		"is_active":  u.IsActive,
		"created_at": u.CreatedAt,
	}
}
