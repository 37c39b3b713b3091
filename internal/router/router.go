package router

import (
	"family-portal/internal/config"
	"family-portal/internal/finance"
	"family-portal/internal/handler"
	"family-portal/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and mounts the API.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	svc := finance.NewService(db, finance.Config{
		MaxTransactionCent: finance.Cents(cfg.Finance.MaxTransaction),
		RecurrenceCap:      cfg.Finance.RecurrenceCap,
		DefaultPageSize:    cfg.Finance.DefaultPageSize,
		Currency:           cfg.Finance.Currency,
	})

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.Issuer, cfg.JWT.ExpireHours)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtSecret, db))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/me", handler.GetMe)

	entryHandler := handler.NewEntryHandler(svc)
	protected.GET("/items", entryHandler.List)
	protected.GET("/transactions", entryHandler.List) // legacy alias
	protected.POST("/item", entryHandler.Create)
	protected.GET("/item/:id", entryHandler.Get)
	protected.PUT("/item/:id", entryHandler.Update)
	protected.DELETE("/item/:id", entryHandler.Delete)

	accountHandler := handler.NewAccountHandler(svc)
	reportHandler := handler.NewReportHandler(svc)
	protected.GET("/accounts", accountHandler.List)
	protected.POST("/accounts", accountHandler.Create)
	protected.POST("/accounts/transfer", accountHandler.Transfer)
	protected.GET("/accounts/overview", reportHandler.Overview)

	recurringHandler := handler.NewRecurringHandler(svc)
	protected.GET("/recurring", recurringHandler.List)
	protected.POST("/recurring", recurringHandler.Create)
	protected.PUT("/recurring/:id", recurringHandler.Update)
	protected.DELETE("/recurring/:id", recurringHandler.Delete)

	categoryHandler := handler.NewCategoryHandler(svc)
	protected.GET("/categories", categoryHandler.List)
	protected.POST("/category", categoryHandler.Create)
	protected.PUT("/category/:id", categoryHandler.Update)
	protected.DELETE("/category/:id", categoryHandler.Delete)

	protected.GET("/summary", reportHandler.Summary)
	protected.GET("/budgets", reportHandler.Budgets)
	protected.GET("/cashflow", reportHandler.Cashflow)
	protected.GET("/projection", reportHandler.Projection)
	protected.GET("/export.csv", reportHandler.ExportCSV)
	protected.GET("/export.xlsx", reportHandler.ExportXLSX)

	return r
}
