package handler

import (
	"net/http"
	"time"

	"github.com/edgemarket/internal/config"
	"github.com/edgemarket/internal/middleware"
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/internal/stream"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer calls into
type Services struct {
	Auth         *service.AuthService
	Ledger       *service.Ledger
	Trading      *service.TradingService
	Transactions *service.TransactionService
	Conversions  *service.ConversionService
	Referrals    *service.ReferralService
	Admin        *service.AdminService
	Pairs        *service.PairService
	Content      *service.ContentService
	Hub          *stream.Hub
}

// BuildInfo is reported by the health endpoint
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// NewRouter creates the gin engine with every route registered
func NewRouter(cfg config.ServerConfig, svc *Services, build BuildInfo) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Add request logging middleware
	router.Use(middleware.RequestLoggerMiddleware())

	// Add CORS middleware
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"version":        build.Version,
			"commit":         build.Commit,
			"build_time":     build.BuildTime,
			"time":           time.Now().Unix(),
			"stream_clients": svc.Hub.Clients(),
		})
	})

	authMiddleware := middleware.AuthMiddleware(svc.Auth)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public
		NewAuthHandler(svc.Auth).RegisterRoutes(v1)
		NewPairHandler(svc.Pairs).RegisterRoutes(v1)
		contentHandler := NewContentHandler(svc.Content)
		contentHandler.RegisterRoutes(v1)

		// Protected
		NewUserHandler(svc.Auth, svc.Referrals).RegisterRoutes(v1, authMiddleware)
		NewTradingHandler(svc.Trading).RegisterRoutes(v1, authMiddleware)
		NewTransactionHandler(svc.Transactions).RegisterRoutes(v1, authMiddleware)
		NewConversionHandler(svc.Conversions).RegisterRoutes(v1, authMiddleware)
		NewStreamHandler(svc.Hub, svc.Pairs, svc.Ledger).RegisterRoutes(v1, authMiddleware)

		// Admin
		admin := v1.Group("/admin")
		admin.Use(authMiddleware, middleware.AdminOnly())
		NewAdminHandler(svc.Admin, svc.Transactions).RegisterRoutes(admin)
		contentHandler.RegisterAdminRoutes(admin)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	cfg.ExposeHeaders = []string{"Content-Length"}
	cfg.MaxAge = 24 * time.Hour

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
