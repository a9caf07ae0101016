package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizhub/internal/services"
)

type PasswordHandler struct {
	resets services.PasswordResetService
}

func NewPasswordHandler(resets services.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{resets: resets}
}

// @Summary      Запросить восстановление пароля
// @Tags         Password
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]string  true  "email"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /forgot-password [post]
func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.resets.RequestReset(req.Email); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no account with this email"})
		case errors.Is(err, services.ErrDeliveryFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send reset email"})
		default:
			log.Printf("[handler][forgot-password] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request password reset"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
}

// @Summary      Сбросить пароль по токену
// @Tags         Password
// @Accept       json
// @Produce      json
// @Param        token    path      string             true  "Токен из письма"
// @Param        request  body      map[string]string  true  "new_password"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Router       /reset-password/{token} [post]
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req struct {
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.resets.ResetPassword(c.Param("token"), req.NewPassword); err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrTokenInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired token"})
		default:
			log.Printf("[handler][reset-password] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset password"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
