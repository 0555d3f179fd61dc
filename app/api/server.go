package api

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewServer creates the HTTP server with all routes configured.
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

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
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/", handler.GetIndex)
	r.GET("/stocks/:dataset", handler.GetStocksPage)

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	r.GET("/api/stocks/:dataset", handler.GetStocks)
	r.GET("/api/stocks/:dataset/tickers/:ticker/news", handler.GetTickerNews)

	// Mutating endpoints require authentication.
	if apiAccessKey != "" {
		authed := r.Group("/api")
		authed.Use(authMiddleware(apiAccessKey))
		{
			authed.GET("/datasets", handler.ListDatasets)
			authed.POST("/stocks/:dataset/reload", handler.ReloadDataset)
			authed.POST("/stocks/:dataset/refresh", handler.RefreshDataset)
			authed.POST("/stocks/:dataset/tickers/:ticker", handler.UpsertTicker)
			authed.POST("/stocks/:dataset/tickers/:ticker/target_price", handler.SetTargetPrice)
			authed.POST("/stocks/:dataset/tickers/:ticker/strategy", handler.SetStrategy)
			authed.POST("/stocks/:dataset/tickers/:ticker/rating", handler.SetRating)
			authed.POST("/stocks/:dataset/tickers/:ticker/industry", handler.SetIndustry)
			authed.POST("/stocks/:dataset/tickers/:ticker/last_updated", handler.SetLastUpdated)
		}
		slog.Info("Mutating API endpoints enabled with authentication")
	} else {
		slog.Info("Mutating API endpoints disabled (API_ACCESS_KEY not set)")
	}

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
