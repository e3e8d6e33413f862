package app

import (
	"github.com/harshaislive/bespoke/docs"
	"github.com/harshaislive/bespoke/internal/config"
	"github.com/harshaislive/bespoke/internal/middleware"
	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes, no session required.
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/magic-link", c.auth.RequestMagicLink)
		public.POST("/auth/verify", c.auth.Verify)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, s.auth))
	{
		authGroup.POST("/auth/signout", c.auth.SignOut)
		authGroup.GET("/profile", c.auth.GetProfile)

		assessment := authGroup.Group("/assessment")
		{
			assessment.POST("/start", c.session.Start)
			assessment.GET("/sessions/:id", c.session.Get)
			assessment.PUT("/sessions/:id/answers", c.session.EditAnswer)
			assessment.PUT("/sessions/:id/navigate", c.session.Navigate)
			assessment.POST("/sessions/:id/complete", c.session.Complete)
			assessment.POST("/sessions/:id/restart", c.session.Restart)
		}

		review := authGroup.Group("/review")
		review.Use(middleware.RoleMiddleware(model.Manager))
		{
			review.GET("/sessions", c.review.ListSessions)
			review.GET("/sessions/:id", c.review.GetSession)
			review.POST("/sessions/:id/feedback", c.review.AddFeedback)
			review.GET("/sessions/:id/feedback", c.review.ListFeedback)
		}
	}
}
