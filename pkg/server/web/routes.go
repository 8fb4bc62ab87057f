// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3console.
//
// go-s3console is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package web

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jeremyhahn/go-s3console/pkg/server/web/docs" // swagger document
)

// SetupRoutes configures the console, the JSON API and the documentation.
// app carries the session and audit middleware; health and swagger stay
// outside it so that probes do not open sessions.
func SetupRoutes(router *gin.Engine, app *gin.RouterGroup, handler *Handler, corsOrigins []string) {
	// Health check endpoint (no session)
	router.GET("/health", handler.HealthCheck)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// HTML console
	app.GET("/", handler.Index)
	app.POST("/configure", handler.Configure)
	app.POST("/logout", handler.Logout)
	app.GET("/bucket/:bucket", handler.Browse)
	app.POST("/upload/:bucket", handler.Upload)
	app.POST("/create-folder/:bucket", handler.CreateFolder)
	app.GET("/download/:bucket/*key", handler.Download)
	app.POST("/delete/:bucket/*key", handler.Delete)

	// JSON API v1
	v1 := app.Group("/api/v1")
	if len(corsOrigins) > 0 {
		v1.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "ETag", "Last-Modified", "X-Request-ID"},
			AllowCredentials: true,
		}))
		// Preflight requests only reach the CORS middleware through a route.
		v1.OPTIONS("/*any", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}
	{
		v1.PUT("/config", handler.PutConfig)
		v1.DELETE("/config", handler.DeleteConfig)

		buckets := v1.Group("/buckets")
		{
			buckets.GET("", handler.ListBuckets)
			buckets.GET("/:bucket/folders", handler.ListFolder)
			buckets.POST("/:bucket/folders", handler.PostFolder)
			buckets.POST("/:bucket/objects", handler.PostObject)
			buckets.GET("/:bucket/objects/*key", handler.GetObject)
			buckets.DELETE("/:bucket/objects/*key", handler.DeleteObject)
		}
	}
}
