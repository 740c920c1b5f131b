package main

import (
	"context"
	"log"
	"os"

	"wastelink/internal/database"
	"wastelink/internal/handler"
	"wastelink/internal/middleware"
	"wastelink/internal/model"
	"wastelink/internal/repository"
	"wastelink/internal/service"
	"wastelink/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Waste-Collection Admin API
// @version         1.0
// @description     Admin dashboard backend: verification workflow, moderation queue, audit trail.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "wastelink"
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, mongoURI, mongoDB)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer func() {
		if err := database.Disconnect(context.Background(), db); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Store -> Service -> Handler)
	store := repository.NewMongoStore(db)
	auditService := service.NewAuditService(store)
	verificationService := service.NewVerificationService(store, auditService)
	moderationService := service.NewModerationService(store, auditService)

	// Initialize Handlers
	verificationHandler := handler.NewVerificationHandler(verificationService)
	moderationHandler := handler.NewModerationHandler(moderationService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Push change notifications for the collections the dashboard watches.
	// Clients refetch through the normal query endpoints on notification.
	for _, collection := range []string{
		model.CollectionVerifications,
		model.CollectionReports,
		model.CollectionReviews,
		model.CollectionBookings,
	} {
		col := collection
		unsubscribe, werr := store.Watch(ctx, col, repository.Query{Sort: repository.ByCreatedAtDesc()}, func([]repository.Document) {
			wsHub.NotifyChange(col)
		})
		if werr != nil {
			log.Printf("watch %s unavailable: %v", col, werr)
			continue
		}
		defer unsubscribe()
	}

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	verificationHandler.RegisterRoutes(router.Group(""))
	moderationHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
