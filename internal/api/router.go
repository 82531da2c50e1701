package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estia-crm/matchmaking/internal/api/handlers"
	"github.com/estia-crm/matchmaking/internal/api/middleware"
	"github.com/estia-crm/matchmaking/internal/config"
	"github.com/estia-crm/matchmaking/internal/matchmaking"
	"github.com/estia-crm/matchmaking/internal/repository"
	"github.com/estia-crm/matchmaking/pkg/auth"
)

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(pool *pgxpool.Pool, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.CorrelationMiddleware())
	r.Use(middleware.StructuredLogging())

	// Health check (no auth required)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "matchmaking",
		})
	})

	// Initialize repositories
	clientRepo := repository.NewClientRepository(pool)
	propertyRepo := repository.NewPropertyRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	weightRepo := repository.NewWeightConfigRepository(pool)

	// Initialize matching pipeline
	pipeline := matchmaking.NewPipeline(
		clientRepo,
		propertyRepo,
		matchRepo,
		weightRepo,
		cfg.Matching.BudgetTolerancePct,
		cfg.Matching.WorkerCount,
		cfg.Import.BatchInsertSize,
	)

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(clientRepo, propertyRepo)
	importHandler := handlers.NewImportHandler(propertyRepo, &cfg.Import)
	matchHandler := handlers.NewMatchHandler(clientRepo, matchRepo, pipeline)
	analyticsHandler := handlers.NewAnalyticsHandler(matchRepo, &cfg.Matching)
	weightsHandler := handlers.NewWeightsHandler(weightRepo)

	// API v1 routes (authenticated)
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(&cfg.JWT))
	{
		// Catalog — all authenticated roles can view
		v1.GET("/clients",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent, middleware.RoleViewer),
			catalogHandler.HandleListClients,
		)
		v1.GET("/clients/:client_id",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent, middleware.RoleViewer),
			catalogHandler.HandleGetClient,
		)
		v1.GET("/properties",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent, middleware.RoleViewer),
			catalogHandler.HandleListProperties,
		)
		v1.GET("/properties/:property_id",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent, middleware.RoleViewer),
			catalogHandler.HandleGetProperty,
		)

		// Property import — require admin or agent role
		v1.POST("/properties/import",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent),
			importHandler.HandleImportProperties,
		)

		// Matching runs — require admin or agent role to trigger
		v1.POST("/matches/run",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent),
			matchHandler.HandleRunMatches,
		)
		v1.GET("/matches/runs/:run_id",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent, middleware.RoleViewer),
			matchHandler.HandleGetRun,
		)
		v1.GET("/clients/:client_id/matches",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent, middleware.RoleViewer),
			matchHandler.HandleGetClientMatches,
		)

		// Analytics — all authenticated roles can view
		v1.GET("/analytics/matches",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent, middleware.RoleViewer),
			analyticsHandler.HandleGetAnalytics,
		)

		// Weight configuration — only admins can change it
		v1.GET("/config/weights",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent, middleware.RoleViewer),
			weightsHandler.HandleGetWeights,
		)
		v1.PUT("/config/weights",
			middleware.RequireRole(middleware.RoleAdmin),
			weightsHandler.HandleUpdateWeights,
		)
	}

	// Token generation endpoint (dev only — generates test JWTs)
	r.POST("/dev/token", devTokenHandler(cfg))

	return r
}

// devTokenHandler returns a handler that generates test JWTs for development.
func devTokenHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TenantID string `json:"tenant_id"`
			UserID   string `json:"user_id"`
			Role     string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "invalid request"})
			return
		}

		tenantID, err := uuid.Parse(req.TenantID)
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid tenant_id"})
			return
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid user_id"})
			return
		}
		if req.Role == "" {
			req.Role = middleware.RoleAdmin
		}

		token, err := auth.GenerateToken(cfg.JWT.Secret, cfg.JWT.Issuer, tenantID, userID, req.Role, cfg.JWT.ExpiryHours)
		if err != nil {
			c.JSON(500, gin.H{"error": "failed to generate token"})
			return
		}

		c.JSON(200, gin.H{"token": token})
	}
}
