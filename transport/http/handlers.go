package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/artmint/gatehouse/core"
	"github.com/artmint/gatehouse/service"
)

// AuthHandlers contains HTTP handlers for auth and account endpoints.
type AuthHandlers struct {
	authService *service.AuthService
	log         *zap.Logger
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(authService *service.AuthService, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		log:         log,
	}
}

// userView is the user representation returned by the API. Password
// hashes never leave the service.
type userView struct {
	ID            string `json:"id"`
	Email         string `json:"email,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	Role          string `json:"role"`
}

func viewOf(u *core.User) userView {
	return userView{
		ID:            u.ID,
		Email:         u.Email,
		WalletAddress: u.WalletAddress,
		Role:          string(u.Role),
	}
}

// SignUp handles email/password registration.
func (h *AuthHandlers) SignUp(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, token, err := h.authService.SignUp(c.Request.Context(), req.Email, req.Password)
	countAuth("signup", err)
	if err != nil {
		if errors.Is(err, core.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use"})
			return
		}
		h.log.Error("signup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error during signup"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": viewOf(user)})
}

// Login handles email/password authentication.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	countAuth("password", err)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error during login"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": viewOf(user)})
}

// WalletLogin handles wallet-based authentication. A valid signature
// from an unknown address also acts as signup.
func (h *AuthHandlers) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
		Nonce         string `json:"nonce" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address, signature, and nonce are required"})
		return
	}

	user, token, err := h.authService.WalletLogin(c.Request.Context(), req.WalletAddress, req.Nonce, req.Signature)
	countAuth("wallet", err)
	if err != nil {
		if errors.Is(err, core.ErrInvalidSignature) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}
		h.log.Error("wallet login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error during wallet authentication"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": viewOf(user)})
}

// Nonce returns a fresh challenge nonce and its expiration in epoch
// milliseconds.
func (h *AuthHandlers) Nonce(c *gin.Context) {
	nonce, err := h.authService.IssueNonce(c.Request.Context())
	if err != nil {
		h.log.Error("nonce issuance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching nonce"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":      nonce.Value,
		"expiration": nonce.ExpiresAt.UnixMilli(),
	})
}

// Me returns the authenticated caller's account.
func (h *AuthHandlers) Me(c *gin.Context) {
	identity, ok := IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), identity.SubjectID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("fetching current user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching user"})
		return
	}

	c.JSON(http.StatusOK, viewOf(user))
}

// DeleteAccount removes an account. Callers may delete their own
// account; admins may delete any.
func (h *AuthHandlers) DeleteAccount(c *gin.Context) {
	identity, ok := IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
		return
	}

	id := c.Param("id")
	if err := core.Authorize(identity, core.SelfOrAdmin(id)); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this account"})
		return
	}

	if err := h.authService.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("account deletion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error deleting user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ListUsers returns all accounts. Admin only.
func (h *AuthHandlers) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error("listing users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching users"})
		return
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, viewOf(&users[i]))
	}
	c.JSON(http.StatusOK, views)
}

// UpdateUserRole changes a user's role. Admin only.
func (h *AuthHandlers) UpdateUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid role is required"})
		return
	}

	role, err := core.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid role is required"})
		return
	}

	user, err := h.authService.UpdateUserRole(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("role update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error updating user role"})
		return
	}

	c.JSON(http.StatusOK, viewOf(user))
}

// DeleteUser removes a user. Admin only.
func (h *AuthHandlers) DeleteUser(c *gin.Context) {
	if err := h.authService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("user deletion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error deleting user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
