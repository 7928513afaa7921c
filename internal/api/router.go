package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wassali-delivery/accounts-api/internal/api/handler"
	"github.com/wassali-delivery/accounts-api/internal/api/middleware"
	"github.com/wassali-delivery/accounts-api/internal/core/domain"
	"github.com/wassali-delivery/accounts-api/internal/core/ports"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	accounts ports.AccountService,
	auth ports.AuthService,
	db *mongo.Database,
	rdb *redis.Client,
	jwtSecret string,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("accounts"))

	accountHandler := handler.NewAccountHandler(accounts)
	authHandler := handler.NewAuthHandler(auth)
	authMW := middleware.Auth(jwtSecret)

	// --- Public routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/validate-token", authHandler.ValidateToken)
	e.POST("/partners", accountHandler.CreatePartner) // self-service signup
	e.GET("/accounts/:id", accountHandler.GetByID)
	e.GET("/stats/roles", accountHandler.RoleCounts)
	e.GET("/stats/partners", accountHandler.PartnerCounts)

	// --- Authenticated routes ---
	// Mutations rely on the permission matrix inside the lifecycle engine;
	// RBAC here only gates the coarse read endpoints.
	g := e.Group("", authMW)
	g.POST("/admins", accountHandler.CreateAdmin)
	g.POST("/assistants", accountHandler.CreateAdminAssistant)
	g.POST("/clients", accountHandler.CreateClient)
	g.POST("/drivers", accountHandler.CreateDriver)
	g.PUT("/accounts/:id", accountHandler.Update)
	g.DELETE("/accounts/:id", accountHandler.Delete)
	g.POST("/partners/:id/validate", accountHandler.ValidatePartner)
	g.POST("/partners/:id/invalidate", accountHandler.InvalidatePartner)

	g.GET("/accounts", accountHandler.ListAll,
		middleware.RBAC(domain.RoleAdmin, domain.RoleSuperAdmin))
	g.GET("/accounts/email/:email", accountHandler.GetByEmail,
		middleware.RBAC(domain.RoleAdmin, domain.RoleSuperAdmin))
	g.GET("/accounts/role/:role", accountHandler.ListByRole,
		middleware.RBAC(domain.RoleAdmin, domain.RoleSuperAdmin, domain.RoleAdminAssistant))
	g.GET("/accounts/zone/:role", accountHandler.ListByZone)
	g.GET("/partners/me/clients", accountHandler.ListMyClients,
		middleware.RBAC(domain.RolePartner))

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	return e
}
