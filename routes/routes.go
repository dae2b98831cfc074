package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkwatch-be/controllers"
	"parkwatch-be/metrics"
	"parkwatch-be/middlewares"
)

type Options struct {
	CORSOrigins []string
	// UploadDir is served under /uploads when images are stored locally
	UploadDir string
	Auth      gin.HandlerFunc
	Limit     gin.HandlerFunc
	Logger    *zap.Logger
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// credentials forbid a literal wildcard, so echo the caller's origin
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Setup builds the engine with every route registered
func Setup(h *controllers.Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger(opts.Logger))
	r.Use(metrics.RequestCounter())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", metrics.Handler())
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	AuthRoutes(r, h)
	UserRoutes(r, h, opts.Auth)
	ReportRoutes(r, h, opts.Auth, opts.Limit)

	comment := r.Group("/comment", opts.Auth)
	{
		comment.POST("/:id/comment", h.AddComment)
		comment.GET("/:id/comments", h.ListComments)
	}

	announce := r.Group("/announce", opts.Auth)
	{
		announce.POST("/create", h.CreateAnnouncement)
		announce.GET("/show", h.ListAnnouncements)
	}

	r.GET("/street/street", opts.Auth, h.StreetOverlay)
	return r
}
