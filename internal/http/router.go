// Package httpapi wires the admin API (Gin) to the store services and the
// cross-cutting middleware: tracing, correlation IDs, access logging,
// recovery, metrics, rate limiting, CORS, security headers, compression and
// API-key authentication.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-community-store/internal/config"
	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/http/docs"
	"github.com/tbourn/go-community-store/internal/http/handlers"
	"github.com/tbourn/go-community-store/internal/http/middleware"
	"github.com/tbourn/go-community-store/internal/repo"
	"github.com/tbourn/go-community-store/internal/services"
)

// modmailRepoShim adapts the repository free functions to the
// services.ModmailRepo interface.
type modmailRepoShim struct{}

func (modmailRepoShim) CreateModmail(ctx context.Context, db *gorm.DB, m *domain.Modmail) error {
	return repo.CreateModmail(ctx, db, m)
}

func (modmailRepoShim) GetModmail(ctx context.Context, db *gorm.DB, id string) (*domain.Modmail, error) {
	return repo.GetModmail(ctx, db, id)
}

func (modmailRepoShim) UpdateModmailStatus(ctx context.Context, db *gorm.DB, id string, status domain.ModmailStatus) error {
	return repo.UpdateModmailStatus(ctx, db, id, status)
}

func (modmailRepoShim) ListModmailByStatus(ctx context.Context, db *gorm.DB, status domain.ModmailStatus) ([]domain.Modmail, error) {
	return repo.ListModmailByStatus(ctx, db, status)
}

func (modmailRepoShim) CountModmailByStatus(ctx context.Context, db *gorm.DB, status domain.ModmailStatus) (int64, error) {
	return repo.CountModmailByStatus(ctx, db, status)
}

func (modmailRepoShim) ListModmailPage(ctx context.Context, db *gorm.DB, status domain.ModmailStatus, offset, limit int) ([]domain.Modmail, error) {
	return repo.ListModmailPage(ctx, db, status, offset, limit)
}

// NewModmailService builds the modmail service over the GORM repository.
func NewModmailService(db *gorm.DB) *services.ModmailService {
	return services.NewModmailService(db, modmailRepoShim{})
}

const readyTimeout = 2 * time.Second

// docsCSP relaxes the API's Content-Security-Policy for the Swagger UI,
// which loads its own scripts, styles and inline bootstrap.
const docsCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"

// RegisterRoutes attaches all middleware and endpoints to r.
//
// @title                      Community bot store admin API
// @version                    1.0
// @BasePath                   /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in                         header
// @name                       X-API-Key
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID
//  3. AccessLog (request-scoped logger)
//  4. Recovery (after the logger so panics carry the request id)
//  5. Body size limit
//  6. Metrics
//  7. CORS, security headers, gzip
//
// The API group adds key authentication and then the rate limiter, so
// authenticated callers are bucketed by key. Probes and /metrics sit outside
// the group and are neither authenticated nor limited.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))
	r.Use(middleware.Metrics())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
		NoStore:    true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := repo.Ping(ctx, db); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("readiness check failed")
			handlers.Fail(c, http.StatusServiceUnavailable, handlers.ErrCodeStorageUnavailable, "storage unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	r.GET("/docs/*any", func(c *gin.Context) {
		c.Header("Content-Security-Policy", docsCSP)
		c.Next()
	}, ginSwagger.WrapHandler(swaggerFiles.Handler))

	h := handlers.New(
		NewModmailService(db),
		services.NewSuggestionService(db),
		services.NewModerationService(db),
		services.NewGroupExchangeService(db),
		services.NewRoleService(db),
		services.NewReminderService(db),
	)

	api := groupWithPrefix(r, cfg.APIBasePath)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByPrincipalOrIP())
	api.Use(middleware.APIKeyAuth(cfg.AdminAPIKey), rl.Handler())
	{
		api.GET("/modmail", h.ListModmail)
		api.GET("/modmail/:id", h.GetModmail)
		api.PUT("/modmail/:id/status", h.UpdateModmailStatus)

		api.GET("/suggestions", h.ListSuggestions)
		api.GET("/suggestions/:id", h.GetSuggestion)
		api.PUT("/suggestions/:id/status", h.UpdateSuggestionStatus)

		api.GET("/members/:id/warnings", h.ListWarnings)
		api.GET("/members/:id/names", h.ListNames)
		api.GET("/members/:id/group-exchanges", h.ListGroupExchanges)
		api.GET("/members/:id/reminders", h.ListMemberReminders)
		api.DELETE("/warnings/:id", h.DeleteWarning)

		api.GET("/messages/:id/reaction-roles", h.ListReactionRoles)
		api.GET("/reminders/due", h.ListDueReminders)
	}
}

// corsMiddleware allows every origin when none are configured; otherwise it
// echoes allowlisted origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderAPIKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// ACAO is set even without an Origin header so probes see it too.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody caps request bodies at maxBytes.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
