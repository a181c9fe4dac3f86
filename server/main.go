package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rentcare/rentcare-backend/shared/config"
	"github.com/rentcare/rentcare-backend/shared/middleware"
	"github.com/rentcare/rentcare-backend/shared/models"
	"github.com/rentcare/rentcare-backend/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize Redis for revocable sessions; tokens still verify by
	// signature when it is down, they just cannot be revoked early
	if err := utils.InitRedis(); err != nil {
		logrus.Warnf("Failed to connect to Redis, session revocation disabled: %v", err)
	}
	defer utils.CloseRedis()

	// Initialize database
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Property{}); err != nil {
		log.Fatal("Failed to migrate database schema:", err)
	}

	if err := bootstrapAdmin(db); err != nil {
		log.Fatal("Failed to bootstrap admin account:", err)
	}

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware(os.Getenv("JWT_SECRET"))
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	// Initialize Stripe checkout client
	checkout := NewStripeCheckout(os.Getenv("STRIPE_SECRET_KEY"), os.Getenv("CLIENT_URL"))

	// Initialize domain event producer (optional)
	var producer *EventProducer
	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		producer = NewEventProducer(broker)
		defer producer.Close()
	} else {
		logrus.Warn("KAFKA_BROKER not set, domain events disabled")
	}

	router := setupRouter(db, authMiddleware, checkout, producer)

	port := config.GetEnv("PORT", "5001")
	logrus.Infof("RentCare backend starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// setupRouter wires every route group onto a fresh engine. Split out from
// main so handler tests can run against the exact production routing.
func setupRouter(db *gorm.DB, authMiddleware *middleware.AuthMiddleware, checkout CheckoutProvider, producer *EventProducer) *gin.Engine {
	router := gin.Default()

	clientURL := config.GetEnv("CLIENT_URL", "http://localhost:3000")
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", clientURL)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "RentCare backend is healthy", nil)
	})

	// Authentication routes
	auth := router.Group("/auth")
	{
		auth.POST("/login", handleLogin(db, authMiddleware))
		auth.POST("/logout", authMiddleware.RequireAuth(), handleLogout())
		auth.GET("/me", authMiddleware.RequireAuth(), handleMe())
	}

	// User management routes (admin only)
	users := router.Group("/users")
	users.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole(models.RoleAdmin))
	{
		users.GET("", handleListUsers(db))
		users.POST("", handleCreateUser(db))
		users.GET("/:id", handleGetUser(db))
		users.PUT("/:id", handleUpdateUser(db))
		users.DELETE("/:id", handleDeleteUser(db))
	}

	// Property aggregate routes
	properties := router.Group("/properties")
	properties.Use(authMiddleware.RequireAuth())
	{
		manage := authMiddleware.RequireRole(models.RoleAdmin, models.RoleOwner)
		access := authMiddleware.RequirePropertyAccess()

		properties.GET("", manage, handleListProperties(db))
		properties.POST("", manage, handleCreateProperty(db))
		properties.GET("/:id", access, handleGetProperty(db))
		properties.PUT("/:id", manage, handleUpdateProperty(db))
		properties.DELETE("/:id", manage, handleDeleteProperty(db))

		// Embedded tenant collection
		properties.POST("/:id/tenants", manage, handleAddTenant(db))
		properties.PUT("/:id/tenants/:flatNo", manage, handleUpdateTenant(db))
		properties.DELETE("/:id/tenants/:flatNo", manage, handleRemoveTenant(db))
		properties.POST("/:id/tenants/:flatNo/notifications", manage, handleNotifyTenant(db, producer))
		properties.DELETE("/:id/tenants/:flatNo/payment-history/:entryId", manage, handleRemovePaymentEntry(db))

		// Post-redirect payment reconciliation, reachable by the paying tenant
		properties.PUT("/:id/tenants/:flatNo/payment-success", access, handlePaymentSuccess(db, producer))

		// Embedded maintenance request collection
		properties.GET("/:id/maintenance-requests", access, handleListMaintenanceRequests(db))
		properties.POST("/:id/maintenance-requests", access, handleAddMaintenanceRequest(db))
		properties.PUT("/:id/maintenance-requests/:requestId", manage, handleUpdateMaintenanceRequest(db, producer))
		properties.DELETE("/:id/maintenance-requests/:requestId", manage, handleRemoveMaintenanceRequest(db))
	}

	// Stripe checkout
	payment := router.Group("/api/payment")
	payment.Use(authMiddleware.RequireAuth())
	{
		payment.POST("/create-checkout-session", handleCreateCheckoutSession(checkout))
	}

	return router
}

// bootstrapAdmin seeds the administrative account from the environment. The
// admin surface is gated by this credential through the normal login flow,
// never by a client-side secret.
func bootstrapAdmin(db *gorm.DB) error {
	email := models.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logrus.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil
	}

	admin := models.User{Role: models.RoleAdmin, Email: email}
	admin.ID = newUserID()
	if err := admin.SetPassword(password); err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logrus.Infof("Bootstrapped admin account %s", email)
	return nil
}
