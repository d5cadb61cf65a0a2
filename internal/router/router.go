package router

import (
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/config"
	"github.com/Cozta1/sistema-encomendas-V2/internal/handler"
	"github.com/Cozta1/sistema-encomendas-V2/internal/infra"
	"github.com/Cozta1/sistema-encomendas-V2/internal/middleware"
	"github.com/Cozta1/sistema-encomendas-V2/internal/repository"
	"github.com/Cozta1/sistema-encomendas-V2/internal/service"
	"github.com/Cozta1/sistema-encomendas-V2/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// A nil rdb disables email notifications; every other route still works.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
	}
	corsOrigin := ""
	if cfg.Env == "production" {
		corsOrigin = cfg.PublicURL
	}
	r.Use(middleware.CORS(corsOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	var emails service.EmailQueue
	if rdb != nil {
		emails = worker.NewDispatcher(rdb)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	clientRepo := repository.NewClientRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, emails, cfg)
	tenantSvc := service.NewTenantService(teamRepo, invitationRepo, userRepo, emails, cfg)
	catalogSvc := service.NewCatalogService(clientRepo, supplierRepo, productRepo, cfg.PageSize)
	orderSvc := service.NewOrderService(orderRepo, teamRepo, clientRepo, productRepo, supplierRepo,
		infra.RenderOrderPDF, cfg.PageSize)
	deliverySvc := service.NewDeliveryService(deliveryRepo, orderRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	teamsH := handler.NewTeamsHandler(tenantSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	deliveriesH := handler.NewDeliveriesHandler(deliverySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	auth := r.Group("/v1/auth")
	{
		loginLimiter := middleware.LoginRateLimiter()
		auth.POST("/register", authH.Register)
		auth.POST("/login", loginLimiter, authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/password-reset", loginLimiter, authH.RequestPasswordReset)
		auth.POST("/password-reset/confirm", authH.ConfirmPasswordReset)
	}

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/me", authH.Me)
		v1.PUT("/me/password", authH.ChangePassword)

		v1.GET("/teams", teamsH.ListTeams)
		v1.POST("/teams", teamsH.CreateTeam)
		v1.GET("/teams/context", teamsH.ResolveContext)

		v1.GET("/invitations", teamsH.MyInvitations)
		v1.POST("/invitations/:id/accept", teamsH.AcceptInvitation)
		v1.POST("/invitations/:id/reject", teamsH.RejectInvitation)

		// Tenant-scoped: membership is checked once by middleware.Tenant
		team := v1.Group("/teams/:team_id", middleware.Tenant(tenantSvc))
		{
			team.GET("", teamsH.GetTeam)
			team.PUT("", teamsH.UpdateTeam)
			team.GET("/dashboard", ordersH.Dashboard)
			team.POST("/leave", teamsH.Leave)

			team.GET("/members", teamsH.ListMembers)
			team.PATCH("/members/:user_id", teamsH.ChangeRole)
			team.DELETE("/members/:user_id", teamsH.RemoveMember)

			team.GET("/invitations", teamsH.ListInvitations)
			team.POST("/invitations", teamsH.Invite)

			team.POST("/clients", catalogH.CreateClient)
			team.GET("/clients", catalogH.ListClients)
			team.GET("/clients/:id", catalogH.GetClient)
			team.POST("/suppliers", catalogH.CreateSupplier)
			team.GET("/suppliers", catalogH.ListSuppliers)
			team.GET("/suppliers/:id", catalogH.GetSupplier)
			team.POST("/products", catalogH.CreateProduct)
			team.GET("/products", catalogH.ListProducts)
			team.GET("/products/:id", catalogH.GetProduct)

			orders := team.Group("/orders")
			{
				orders.POST("", ordersH.Create)
				orders.GET("", ordersH.List)
				orders.GET("/:id", ordersH.Get)
				orders.PUT("/:id", ordersH.Edit)
				orders.DELETE("/:id", ordersH.Delete)
				orders.PATCH("/:id/status", ordersH.UpdateStatus)
				orders.POST("/:id/recompute", ordersH.Recompute)
				orders.GET("/:id/pdf", ordersH.PDF)

				orders.POST("/:id/delivery", deliveriesH.Schedule)
				orders.GET("/:id/delivery", deliveriesH.Get)
				orders.PUT("/:id/delivery", deliveriesH.Edit)
				orders.POST("/:id/delivery/complete", deliveriesH.Complete)
			}
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
