// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wastetrack/wastetrack-backend/internal/config"
	"github.com/wastetrack/wastetrack-backend/internal/handlers"
	"github.com/wastetrack/wastetrack-backend/internal/metrics"
	"github.com/wastetrack/wastetrack-backend/internal/middleware"
	"github.com/wastetrack/wastetrack-backend/internal/services"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)

	companyService := services.NewCompanyService(db)
	authService := services.NewAuthService(db, cfg, companyService, notificationService)
	formService := services.NewFormService(db, storageService)
	lifecycleService := services.NewFormLifecycleService(db)
	segmentService := services.NewTransportSegmentService(db)
	revisionService := services.NewRevisionRequestService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	companyHandler := handlers.NewCompanyHandler(companyService, notificationService, authService)
	formHandler := handlers.NewFormHandler(formService, lifecycleService)
	segmentHandler := handlers.NewSegmentHandler(segmentService)
	revisionHandler := handlers.NewRevisionHandler(revisionService, companyService)
	attachmentHandler := handlers.NewAttachmentHandler(formService, storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
			auth.PATCH("/me/notifications", middleware.AuthRequired(), authHandler.UpdateNotificationSettings)
		}

		// Company routes
		companies := v1.Group("/companies")
		companies.Use(middleware.AuthRequired())
		{
			companies.POST("", companyHandler.Create)
			companies.GET("", companyHandler.List)
			companies.GET("/siret/:siret", companyHandler.Get)
			companies.PATCH("/:id", companyHandler.Update)
			companies.POST("/:id/members", companyHandler.AddMember)
			companies.DELETE("/:id/members/:userId", companyHandler.RemoveMember)
		}

		// Form routes. Every operation acts for one of the caller's
		// companies, named in the X-Company-Siret header.
		forms := v1.Group("/forms")
		forms.Use(middleware.AuthRequired(), middleware.SiretRequired())
		{
			forms.POST("", formHandler.Create)
			forms.GET("", formHandler.List)
			forms.GET("/:id", formHandler.Get)
			forms.PATCH("/:id", formHandler.Update)
			forms.DELETE("/:id", formHandler.Delete)
			forms.POST("/:id/groupings", formHandler.Group)

			// Lifecycle transitions
			forms.POST("/:id/seal", formHandler.Seal)
			forms.POST("/:id/sign", formHandler.SignByTransporter)
			forms.POST("/:id/receive", formHandler.MarkReceived)
			forms.POST("/:id/accept", formHandler.MarkAccepted)
			forms.POST("/:id/process", formHandler.MarkProcessed)
			forms.POST("/:id/temp-store", formHandler.MarkTempStored)
			forms.POST("/:id/temp-storer-accept", formHandler.MarkTempStorerAccepted)
			forms.POST("/:id/reseal", formHandler.MarkResealed)

			// Multi-carrier relay
			forms.POST("/:id/segments", segmentHandler.Prepare)

			// Scanned paper trail
			forms.POST("/:id/attachments", middleware.UploadRateLimit(), attachmentHandler.Upload)
			forms.GET("/:id/attachments", attachmentHandler.List)
		}

		segments := v1.Group("/segments")
		segments.Use(middleware.AuthRequired(), middleware.SiretRequired())
		{
			segments.PATCH("/:id", segmentHandler.Edit)
			segments.POST("/:id/ready", segmentHandler.MarkReady)
			segments.POST("/:id/take-over", segmentHandler.TakeOver)
		}

		// Revision requests
		revisions := v1.Group("/revisions")
		revisions.Use(middleware.AuthRequired(), middleware.SiretRequired())
		{
			revisions.POST("", revisionHandler.Create)
			revisions.POST("/:id/cancel", revisionHandler.Cancel)
			revisions.POST("/approvals/:id/accept", revisionHandler.Accept)
			revisions.POST("/approvals/:id/refuse", revisionHandler.Refuse)
		}
	}

	return r
}
