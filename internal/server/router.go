package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "dompet/internal/docs" // swagger spec
	"dompet/internal/handlers"
	"dompet/internal/middleware"
)

// Options configures the router.
type Options struct {
	AdminAPIKey      string
	Location         *time.Location
	ReceiptMaxImages int
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(svc *Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	familyHandler := handlers.NewFamilyHandler(svc.Families, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit, opts.Location)
	statsHandler := handlers.NewStatsHandler(svc.Stats, svc.Users, opts.Location)
	receiptHandler := handlers.NewReceiptHandler(svc.Receipts, opts.ReceiptMaxImages)

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)

	families := protected.Group("/families")
	families.POST("", familyHandler.CreateFamily)
	families.GET("", familyHandler.GetFamily)
	families.PUT("", familyHandler.UpdateFamily)
	families.POST("/join", familyHandler.JoinFamily)
	families.GET("/members", familyHandler.GetMembers)
	families.POST("/leave", familyHandler.LeaveFamily)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	catalog := categories.Group("", middleware.APIKeyMiddleware(opts.AdminAPIKey))
	catalog.POST("", categoryHandler.CreateCategory)
	catalog.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/recent", transactionHandler.RecentTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	stats := protected.Group("/stats")
	stats.GET("/dashboard", statsHandler.GetDashboard)
	stats.GET("/report", statsHandler.GetReport)
	stats.GET("/report.pdf", statsHandler.DownloadReport)

	protected.POST("/receipts/scan", receiptHandler.ScanReceipt)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
