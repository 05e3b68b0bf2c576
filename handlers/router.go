package handlers

import (
	"jaryo/metrics"
	"jaryo/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(h.cfg.CORS))
	r.NoRoute(NotFound)

	r.GET("/health", HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	cookie := h.cfg.AuthCookie.Name
	requireAuth := middleware.RequireAuth(h.services.Auth, cookie)
	optionalAuth := middleware.OptionalAuth(h.services.Auth, cookie)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/session", optionalAuth, h.Session)
		auth.GET("/me", requireAuth, h.Me)
	}

	files := api.Group("/files")
	{
		files.GET("/public", h.ListFiles)
		files.GET("/:id", h.GetFile)
		files.GET("/:id/attachments", h.ListAttachments)
		files.GET("", requireAuth, h.ListFiles)
		files.POST("", requireAuth, h.CreateFile)
		files.PUT("/:id", requireAuth, h.UpdateFile)
		files.DELETE("/:id", requireAuth, h.DeleteFile)
		files.DELETE("/:id/attachments/:attachmentId", requireAuth, h.DeleteAttachment)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		admin := categories.Group("", requireAuth, middleware.RequireAdmin())
		admin.POST("", h.CreateCategory)
		admin.PUT("/:id", h.UpdateCategory)
		admin.DELETE("/:id", h.DeleteCategory)
	}

	api.GET("/stats", h.Stats)
	api.GET("/download/:fileId", h.DownloadArchive)
	api.GET("/download/:fileId/:attachmentId", h.DownloadAttachment)
	api.HEAD("/download/:fileId/:attachmentId", h.DownloadAttachment)
	api.GET("/thumbnail/:fileId/:attachmentId", h.Thumbnail)

	return r
}
