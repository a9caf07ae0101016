package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizhub/internal/handlers"
	"quizhub/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	signupHandler *handlers.SignupHandler,
	passwordHandler *handlers.PasswordHandler,
	authHandler *handlers.AuthHandler,
	debugHandler *handlers.DebugHandler, // nil вне development
	jwtKey []byte,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/send-otp", signupHandler.SendOTP)
	r.POST("/verify-otp", signupHandler.VerifyOTP)
	r.POST("/forgot-password", passwordHandler.ForgotPassword)
	r.POST("/reset-password/:token", passwordHandler.ResetPassword)
	r.POST("/login", authHandler.Login)

	// дев-осмотр pending-записей; в production роута нет => 404
	if debugHandler != nil {
		r.GET("/otp-status", debugHandler.OTPStatus)
	}

	// ---- protected
	r.Use(middleware.AuthMiddleware(jwtKey))

	r.GET("/me", authHandler.Me)

	return r
}
