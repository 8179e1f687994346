package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	// Health and status endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/metrics", handler.GetMetrics)

	api := r.Group("/api")
	{
		api.POST("/analyze", handler.AnalyzeURL)

		api.POST("/bulk/upload", handler.UploadBulk)
		api.GET("/bulk/status/:jobId", handler.GetJobStatus)
		api.GET("/bulk/download/:jobId", handler.DownloadResults)
		api.GET("/bulk/jobs", handler.ListJobs)
		api.DELETE("/bulk/jobs/:jobId", handler.DeleteJob)
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "SeoWatch",
			"description": "SEO meta tag analyzer with bulk CSV processing",
			"endpoints": map[string]string{
				"analyze":  "/api/analyze (POST)",
				"upload":   "/api/bulk/upload (POST, multipart field 'file')",
				"status":   "/api/bulk/status/<jobId>",
				"download": "/api/bulk/download/<jobId>",
				"jobs":     "/api/bulk/jobs",
				"delete":   "/api/bulk/jobs/<jobId> (DELETE)",
				"health":   "/health",
				"metrics":  "/metrics",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
