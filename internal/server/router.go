// Package server assembles the HTTP router from its dependencies so the
// serve command and the HTTP tests build the same surface.
package server

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-api/internal/authz"
	"github.com/yukikurage/issue-tracker-api/internal/config"
	"github.com/yukikurage/issue-tracker-api/internal/constants"
	"github.com/yukikurage/issue-tracker-api/internal/handlers"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"github.com/yukikurage/issue-tracker-api/internal/middleware"
	"github.com/yukikurage/issue-tracker-api/internal/repository"
	"github.com/yukikurage/issue-tracker-api/internal/services"
	"github.com/yukikurage/issue-tracker-api/internal/storage"
	"gorm.io/gorm"
)

// Deps are the collaborators the router is built from. Limiter may be nil
// to disable login rate limiting.
type Deps struct {
	Config       *config.Config
	DB           *gorm.DB
	Blobs        storage.BlobStore
	SessionStore sessions.Store
	Limiter      *middleware.LoginLimiter
	Metrics      *metrics.Metrics
	Logger       logrus.FieldLogger
}

// NewRouter wires repositories, services and handlers into a gin engine.
func NewRouter(d Deps) *gin.Engine {
	userRepo := repository.NewUserRepository(d.DB)
	issueRepo := repository.NewIssueRepository(d.DB)
	commentRepo := repository.NewCommentRepository(d.DB)
	documentRepo := repository.NewDocumentRepository(d.DB)
	lookupRepo := repository.NewLookupRepository(d.DB)
	productRepo := repository.NewProductRepository(d.DB)

	tokens := services.NewTokenService(d.Config.JWTSecret, d.Config.AccessTokenTTL)
	authService := services.NewAuthService(userRepo, tokens, d.Config.RefreshTokenTTL, d.Metrics)
	issueService := services.NewIssueService(issueRepo, d.Blobs, d.Metrics, d.Logger)
	commentService := services.NewCommentService(commentRepo, d.Blobs, d.Metrics, d.Logger)
	attachmentService := services.NewAttachmentService(commentRepo, documentRepo, d.Blobs, d.Metrics, d.Logger)
	userService := services.NewUserService(userRepo, d.Metrics)
	lookupService := services.NewLookupService(lookupRepo, d.Metrics)
	productService := services.NewProductService(productRepo, d.Metrics)

	authHandler := handlers.NewAuthHandler(authService)
	issueHandler := handlers.NewIssueHandler(issueService)
	commentHandler := handlers.NewCommentHandler(commentService)
	uploadHandler := handlers.NewUploadHandler(attachmentService)
	userHandler := handlers.NewUserHandler(userService)
	catalogHandler := handlers.NewCatalogHandler(lookupService, productService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(sessions.Sessions(constants.SessionCookieName, d.SessionStore))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Issue Tracker API is running",
		})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// Auth routes (public)
	login := []gin.HandlerFunc{authHandler.Login}
	if d.Limiter != nil {
		login = append([]gin.HandlerFunc{d.Limiter.Handler()}, login...)
	}
	r.POST("/login", login...)
	r.POST("/refresh", authHandler.Refresh)
	r.POST("/logout", authHandler.Logout)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth(tokens))

	gate := func(resource authz.Resource, op authz.Operation) gin.HandlerFunc {
		return middleware.RequireMinRole(d.Metrics, resource, op)
	}
	id := middleware.RequireID()

	api.GET("/me", authHandler.GetCurrentUser)

	issues := api.Group("/issues")
	{
		issues.GET("", gate(authz.ResourceIssues, authz.OpGet), issueHandler.ListIssues)
		issues.POST("", gate(authz.ResourceIssues, authz.OpPost), issueHandler.CreateIssue)
		issues.GET("/:id", id, gate(authz.ResourceIssues, authz.OpGet), issueHandler.GetIssue)
		issues.PUT("/:id", id, gate(authz.ResourceIssues, authz.OpPut), issueHandler.UpdateIssue)
		issues.DELETE("/:id", id, gate(authz.ResourceIssues, authz.OpDelete), issueHandler.DeleteIssue)
		issues.GET("/:id/history", id, gate(authz.ResourceIssues, authz.OpGet), issueHandler.GetHistory)
	}

	comments := api.Group("/comments")
	{
		comments.POST("", gate(authz.ResourceComments, authz.OpPost), commentHandler.CreateComment)
		comments.GET("/:id", id, gate(authz.ResourceIssues, authz.OpGet), commentHandler.GetComment)
		comments.DELETE("/:id", id, gate(authz.ResourceComments, authz.OpDelete), commentHandler.DeleteComment)
	}

	uploads := api.Group("/uploads")
	{
		uploads.POST("", gate(authz.ResourceUploads, authz.OpPost), uploadHandler.Upload)
		uploads.GET("/:id", id, gate(authz.ResourceUploads, authz.OpGet), uploadHandler.Download)
		uploads.DELETE("/:id", id, gate(authz.ResourceUploads, authz.OpDelete), uploadHandler.Delete)
	}

	users := api.Group("/users")
	{
		users.GET("", gate(authz.ResourceUsers, authz.OpGet), userHandler.ListUsers)
		users.POST("", gate(authz.ResourceUsers, authz.OpPost), userHandler.CreateUser)
		users.GET("/:id", id, gate(authz.ResourceUsers, authz.OpGet), userHandler.GetUser)
		users.PUT("/:id", id, gate(authz.ResourceUsers, authz.OpPut), userHandler.UpdateUser)
		users.DELETE("/:id", id, gate(authz.ResourceUsers, authz.OpDelete), userHandler.DeleteUser)
	}

	products := api.Group("/products")
	{
		products.GET("", gate(authz.ResourceProducts, authz.OpGet), catalogHandler.ListProducts)
		products.POST("", gate(authz.ResourceProducts, authz.OpPost), catalogHandler.CreateProduct)
		products.GET("/:id", id, gate(authz.ResourceProducts, authz.OpGet), catalogHandler.GetProduct)
		products.PUT("/:id", id, gate(authz.ResourceProducts, authz.OpPut), catalogHandler.UpdateProduct)
		products.DELETE("/:id", id, gate(authz.ResourceProducts, authz.OpDelete), catalogHandler.DeleteProduct)
	}

	api.GET("/statuses", gate(authz.ResourceStatuses, authz.OpGet), catalogHandler.ListStatuses)
	api.GET("/priority", gate(authz.ResourcePriority, authz.OpGet), catalogHandler.ListPriorities)
	api.GET("/types", gate(authz.ResourceTypes, authz.OpGet), catalogHandler.ListTypes)
	api.GET("/userRoles", gate(authz.ResourceUserRoles, authz.OpGet), catalogHandler.ListRoles)

	return r
}
