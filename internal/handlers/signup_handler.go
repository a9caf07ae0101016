package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizhub/internal/models"
	"quizhub/internal/services"
)

type SignupHandler struct {
	signup services.SignupService
}

func NewSignupHandler(signup services.SignupService) *SignupHandler {
	return &SignupHandler{signup: signup}
}

type verifyOTPRequest struct {
	Code string `json:"code" binding:"required"`
	models.SignupRequest
}

// @Summary      Начать регистрацию
// @Description  Генерирует одноразовый код и отправляет его на email
// @Tags         Signup
// @Accept       json
// @Produce      json
// @Param        signup  body      models.SignupRequest  true  "Данные регистрации"
// @Success      200     {object}  services.OTPIssued
// @Failure      400     {object}  map[string]string
// @Failure      409     {object}  map[string]string
// @Failure      429     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /send-otp [post]
func (h *SignupHandler) SendOTP(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issued, err := h.signup.BeginSignup(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAccountExists):
			c.JSON(http.StatusConflict, gin.H{"error": "account with this email already exists"})
		case errors.Is(err, services.ErrCooldown):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "please wait before requesting another code"})
		case errors.Is(err, services.ErrResendLimit):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many codes requested, try again later"})
		case errors.Is(err, services.ErrDeliveryFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send verification email"})
		default:
			log.Printf("[handler][send-otp] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start signup"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Verification code sent",
		"cooldown_seconds": issued.CooldownSeconds,
		"resend_count":     issued.ResendCount,
	})
}

// @Summary      Завершить регистрацию
// @Description  Проверяет код и создаёт аккаунт; возвращает токен сессии
// @Tags         Signup
// @Accept       json
// @Produce      json
// @Param        verify  body      verifyOTPRequest  true  "Код и данные регистрации"
// @Success      201     {object}  map[string]interface{}
// @Failure      400     {object}  map[string]string
// @Failure      409     {object}  map[string]string
// @Router       /verify-otp [post]
func (h *SignupHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.signup.CompleteSignup(req.Code, &req.SignupRequest)
	if err != nil {
		var invalid *services.InvalidCodeError
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":              "invalid code",
				"attempts_remaining": invalid.AttemptsRemaining,
			})
		case errors.Is(err, services.ErrCodeMalformed):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrCodeNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "code not found or expired, request a new one"})
		case errors.Is(err, services.ErrTooManyAttempts):
			c.JSON(http.StatusBadRequest, gin.H{"error": "too many attempts, request a new code"})
		case errors.Is(err, services.ErrAccountExists):
			c.JSON(http.StatusConflict, gin.H{"error": "account with this email already exists"})
		default:
			log.Printf("[handler][verify-otp] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete signup"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created",
		"user":    user, // PasswordHash помечен json:"-", наружу не уйдёт
		"token":   token,
	})
}
