package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quizhub/internal/services"
	"quizhub/internal/verification"
)

// DebugHandler — дев-эндпоинт для осмотра живых pending-записей.
// В production роут вообще не регистрируется.
type DebugHandler struct {
	signup services.SignupService
	policy verification.Policy
}

func NewDebugHandler(signup services.SignupService, policy verification.Policy) *DebugHandler {
	return &DebugHandler{signup: signup, policy: policy}
}

// @Summary      Живые OTP-записи (только development)
// @Tags         Debug
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /otp-status [get]
func (h *DebugHandler) OTPStatus(c *gin.Context) {
	now := time.Now()
	entries := h.signup.PendingEntries()

	type entryView struct {
		IssuedAt         time.Time `json:"issued_at"`
		Attempts         int       `json:"attempts"`
		ResendCount      int       `json:"resend_count"`
		ExpiresInSeconds int       `json:"expires_in_seconds"`
	}

	out := make(map[string]entryView, len(entries))
	for email, rec := range entries {
		left := rec.IssuedAt.Add(h.policy.CodeTTL).Sub(now)
		if left < 0 {
			left = 0
		}
		// код намеренно не возвращаем даже в dev
		out[email] = entryView{
			IssuedAt:         rec.IssuedAt,
			Attempts:         rec.Attempts,
			ResendCount:      rec.ResendCount,
			ExpiresInSeconds: int(left / time.Second),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(out),
		"entries": out,
	})
}
