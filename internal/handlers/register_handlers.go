package handlers

import (
	"github.com/SscSPs/factor_ops_app/cmd/docs"
	"github.com/SscSPs/factor_ops_app/internal/blob"
	"github.com/SscSPs/factor_ops_app/internal/cache"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/middleware"
	"github.com/SscSPs/factor_ops_app/internal/platform/analytics"
	"github.com/SscSPs/factor_ops_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the collaborators the routes need beyond the services.
type Dependencies struct {
	Artifacts        blob.Store
	IdempotencyStore cache.IdempotencyStore
	Analytics        *analytics.Client
	Gatherer         prometheus.Gatherer
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps Dependencies,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	setupAPIV1Routes(r, cfg, services, deps)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps Dependencies,
) {
	var parserOptions []jwt.ParserOption
	if cfg.JWTIssuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(cfg.JWTIssuer))
	}

	// API tokens first; requests they authenticate skip JWT validation.
	v1 := r.Group("/api/v1",
		middleware.APITokenAuth(services.APIToken),
		middleware.AuthMiddleware(cfg.JWTSecret, parserOptions...),
		middleware.PosthogMiddleware(deps.Analytics),
	)
	if deps.IdempotencyStore != nil {
		v1.Use(middleware.Idempotency(deps.IdempotencyStore, cfg.IdempotencyTTL))
	}

	RegisterAPITokenRoutes(v1, services.APIToken)

	companyGroup := registerCompanyRoutes(v1, services.Company)
	registerFactorRoutes(companyGroup, services.Factor)
	registerInstallmentRoutes(companyGroup, services.Installment)
	registerOperationRoutes(companyGroup, services.Operation, services.Settlement, deps.Artifacts)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
