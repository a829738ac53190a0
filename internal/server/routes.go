package server

import (
	"github.com/chronomap/chronik/internal/server/middleware"
	"github.com/chronomap/chronik/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Graph routes
	apiRoutes.GET("/graphs", routes.GetGraphsHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.POST("/graphs", routes.CreateGraphHandler, middleware.RequirePermission("graph.create"))
	apiRoutes.GET("/graphs/:id", routes.GetGraphHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.GET("/graphs/:id/export", routes.GetGraphExportHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.GET("/graphs/:id/artifacts", routes.GetGraphArtifactsHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.DELETE("/graphs/:id", routes.DeleteGraphHandler, middleware.RequirePermission("graph.delete"))
}
