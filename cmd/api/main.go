package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/handlers"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/middleware"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"github.com/ridelinkhq/onboarding-api/internal/services"
	"github.com/ridelinkhq/onboarding-api/internal/utils"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/ridelinkhq/onboarding-api/docs"
)

// @title           Onboarding API
// @version         1.0
// @description     API for OTP-gated user registration, progressive KYC verification, referral network leveling and driver vehicle onboarding.

// @contact.name   API Support
// @contact.email  support@ridelink.app

// @host      localhost:8080
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name auth
// @tag.description Registration, verification and account operations

// @tag.name kyc
// @tag.description Progressive identity verification

// @tag.name vehicles
// @tag.description Vehicle registration for drivers

// @tag.name health
// @tag.description Health check operations

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	// Initialize database connections
	config.InitMongoDB()
	config.InitRedis()

	// Initialize the audit trail worker
	utils.InitAuditWorker(config.AppConfig.AuditWorkers, config.AppConfig.AuditBufferSize)
	defer utils.GetAuditWorker().Stop()

	// Initialize services in dependency order
	services.InitMailRateLimiter(config.AppConfig.MailRatePerMin, logging.Logger)
	services.InitMailer()
	services.InitArtifactStore()
	services.InitTokenService()
	services.InitReferralService()
	services.InitVerificationService()
	services.InitKYCService()
	services.InitAccountService()

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router with middleware
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		middleware.AuditMiddleware(),
		cors.Default(),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Health check endpoint
		v1.GET("/health", handlers.HealthCheck)

		// Registration and account surface
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", handlers.Signup)
			auth.POST("/resend-otp", handlers.ResendOTP)
			auth.POST("/verify-otp", handlers.VerifyOTP)
			auth.POST("/login", handlers.Login)
			auth.POST("/forgot-password", handlers.ForgotPassword)
			auth.POST("/reset-password", handlers.ResetPassword)
			auth.POST("/logout", middleware.AuthMiddleware(), handlers.Logout)
		}

		// Progressive identity verification
		kyc := v1.Group("/kyc", middleware.AuthMiddleware())
		{
			kyc.POST("/level1", handlers.SubmitKYC1)
			kyc.POST("/license", handlers.UploadLicense)
			kyc.POST("/vehicle-decision", handlers.VehicleDecision)
		}

		// Vehicles and user reads
		authed := v1.Group("", middleware.AuthMiddleware())
		{
			authed.POST("/vehicles", handlers.RegisterVehicle)
			authed.PUT("/vehicles/:id", handlers.UpdateVehicle)
			authed.GET("/users/me", handlers.GetCurrentUser)
			authed.GET("/users/me/vehicles", handlers.GetUserVehicleInfo)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", config.AppConfig.Port),
			zap.String("environment", config.AppConfig.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logging.Logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("server exited gracefully")
}
