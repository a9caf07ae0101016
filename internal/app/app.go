package app

import (
	"database/sql"
	"fmt"
	"log"

	"quizhub/internal/config"
	"quizhub/internal/handlers"
	"quizhub/internal/repositories"
	"quizhub/internal/routes"
	"quizhub/internal/services"
	"quizhub/internal/verification"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "quizhub/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Policy + эфемерные хранилища ===
	policy := verification.Policy{
		CodeTTL:        cfg.Verification.CodeTTL(),
		ResendCooldown: cfg.Verification.ResendCooldown(),
		MaxAttempts:    cfg.Verification.MaxAttempts,
		MaxResends:     cfg.Verification.MaxResends,
		ResetTTL:       cfg.Verification.ResetTTL(),
	}

	var (
		signupStore verification.SignupStore
		resetStore  verification.ResetStore
		sweeper     *verification.Sweeper
	)
	if cfg.Cache.RedisAddr != "" {
		// общий кэш: срок жизни ключей держит сам redis, свип не нужен
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		signupStore = verification.NewRedisSignupStore(rdb, policy, cfg.Verification.SweepInterval())
		resetStore = verification.NewRedisResetStore(rdb, policy)
		log.Printf("[app] ephemeral stores: redis (%s)", cfg.Cache.RedisAddr)
	} else {
		memSignup := verification.NewMemorySignupStore(policy)
		memReset := verification.NewMemoryResetStore(policy)
		signupStore = memSignup
		resetStore = memReset
		sweeper = verification.NewSweeper(cfg.Verification.SweepInterval(), memSignup, memReset)
		sweeper.Start()
		defer sweeper.Stop()
		log.Printf("[app] ephemeral stores: in-memory, sweep every %s", cfg.Verification.SweepInterval())
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)

	// === Services ===
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.SessionTTL())
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	userService := services.NewUserService(userRepo)
	signupService := services.NewSignupService(signupStore, policy, userService, emailService, authService)
	resetService := services.NewPasswordResetService(resetStore, userService, emailService, authService, cfg.Auth.ResetURL)

	// === Handlers ===
	signupHandler := handlers.NewSignupHandler(signupService)
	passwordHandler := handlers.NewPasswordHandler(resetService)
	authHandler := handlers.NewAuthHandler(userService, authService)

	var debugHandler *handlers.DebugHandler
	if cfg.IsDevelopment() {
		debugHandler = handlers.NewDebugHandler(signupService, policy)
	}

	// === Gin ===
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		signupHandler,
		passwordHandler,
		authHandler,
		debugHandler,
		[]byte(cfg.Auth.JWTSecret),
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s (env=%s)", listenAddr, cfg.Server.Env)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
