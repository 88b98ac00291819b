// Package api wires together all HTTP routes for the member portal backend.
//
// Route grouping philosophy:
//   - Published content (publications, events, announcements) is readable
//     without authentication so the public site can render it. Optional auth
//     populates the user context when a token is present, which lets staff
//     see drafts through the same endpoints.
//   - Everything else requires a session token and the appropriate RBAC
//     scope. Scope gates are applied per route so a reviewer can read the
//     required permission next to the handler.
//
// The Swagger UI at /api-docs/ uses a nonce-based Content Security Policy
// rather than hash-based CSP. The CDN-loaded Swagger UI bundle contains
// inline <script> elements whose hashes would change with every CDN version
// update. A per-request cryptographic nonce allows those inline scripts to
// execute while keeping the CSP strict for all other content.
package api

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/member-portal/member-portal/docs"
	"github.com/member-portal/member-portal/internal/api/admin"
	"github.com/member-portal/member-portal/internal/api/content"
	"github.com/member-portal/member-portal/internal/api/forum"
	"github.com/member-portal/member-portal/internal/api/helpdesk"
	"github.com/member-portal/member-portal/internal/api/notifications"
	"github.com/member-portal/member-portal/internal/api/session"
	"github.com/member-portal/member-portal/internal/auth"
	"github.com/member-portal/member-portal/internal/config"
	"github.com/member-portal/member-portal/internal/db/repositories"
	"github.com/member-portal/member-portal/internal/jobs"
	"github.com/member-portal/member-portal/internal/middleware"
)

// BackgroundServices holds references to background jobs and resources that
// must be stopped during graceful shutdown. The caller (cmd/server) is
// responsible for calling Shutdown() when the process receives a termination
// signal.
type BackgroundServices struct {
	expiryJob    *jobs.AnnouncementExpiryJob
	rateLimiters []*middleware.RateLimiter
	redisClient  *redis.Client
}

// Shutdown stops all background goroutines. It should be called after the
// HTTP server has been shut down so that in-flight requests are drained
// first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.expiryJob != nil {
		bg.expiryJob.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.redisClient != nil {
		if err := bg.redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize repositories shared across handler packages
	userRepo := repositories.NewUserRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	announcementRepo := repositories.NewAnnouncementRepository(db)

	// Events carry JSONB speaker lists; the event repository runs over sqlx
	sqlxDB := sqlx.NewDb(db, "postgres")

	// Start the announcement expiry sweep
	expiryJob := jobs.NewAnnouncementExpiryJob(announcementRepo)
	expiryJob.Start(context.Background(), cfg.Jobs.AnnouncementExpiryIntervalMinutes)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Redis-backed rate limiting shares counters across instances. Without
	// Redis the server falls back to per-instance token buckets.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// Readiness check endpoint (includes Redis probe when configured)
	router.GET("/ready", readinessHandler(db, redisClient))

	// API version
	router.GET("/version", versionHandler())

	registerSwaggerRoutes(router)

	var inMemoryLimiters []*middleware.RateLimiter
	rateLimit := func(rlCfg middleware.RateLimitConfig) gin.HandlerFunc {
		if redisClient != nil {
			return middleware.RedisRateLimitMiddleware(redisClient, rlCfg)
		}
		rl := middleware.NewRateLimiter(rlCfg)
		inMemoryLimiters = append(inMemoryLimiters, rl)
		return middleware.RateLimitMiddleware(rl)
	}
	authRateLimit := rateLimit(middleware.AuthRateLimitConfig())
	generalRateLimit := rateLimit(middleware.DefaultRateLimitConfig())
	submissionRateLimit := rateLimit(middleware.SubmissionRateLimitConfig())

	// Initialize handlers
	authHandlers := session.NewAuthHandlers(cfg, db)
	forumHandlers := forum.NewHandlers(db)
	contentHandlers := content.NewHandlers(db, sqlxDB)
	helpdeskHandlers := helpdesk.NewHandlers(db)
	notificationHandlers := notifications.NewHandlers(db)
	userHandlers := admin.NewUserHandlers(cfg, db)
	profileHandlers := admin.NewProfileHandlers(db)
	statsHandlers := admin.NewStatsHandlers(db)
	auditHandlers := admin.NewAuditHandlers(db)

	v1 := router.Group("/v1")
	{
		// Public authentication endpoints (no auth required, but rate limited)
		authGroup := v1.Group("/auth")
		authGroup.Use(authRateLimit)
		{
			authGroup.POST("/signup", authHandlers.SignupHandler())
			authGroup.POST("/login", authHandlers.LoginHandler())
		}

		// Public content reads. Optional auth populates the user context so
		// editors see drafts through the same endpoints.
		publicGroup := v1.Group("")
		publicGroup.Use(middleware.OptionalAuthMiddleware(cfg, userRepo))
		publicGroup.Use(generalRateLimit)
		{
			publicGroup.GET("/publications", contentHandlers.ListPublicationsHandler())
			publicGroup.GET("/publications/:id", contentHandlers.GetPublicationHandler())
			publicGroup.GET("/events", contentHandlers.ListEventsHandler())
			publicGroup.GET("/events/:id", contentHandlers.GetEventHandler())
			publicGroup.GET("/announcements", contentHandlers.ListAnnouncementsHandler())
			publicGroup.GET("/announcements/:id", contentHandlers.GetAnnouncementHandler())
		}

		// Authenticated-only endpoints
		authenticatedGroup := v1.Group("")
		authenticatedGroup.Use(middleware.AuthMiddleware(cfg, userRepo))
		authenticatedGroup.Use(generalRateLimit)
		if cfg.Audit.Enabled {
			authenticatedGroup.Use(middleware.AuditMiddlewareWithConfig(auditRepo, &cfg.Audit))
		}
		{
			// Session endpoints
			authenticatedGroup.GET("/auth/me", authHandlers.MeHandler())
			authenticatedGroup.POST("/auth/refresh", authHandlers.RefreshHandler())
			authenticatedGroup.POST("/auth/logout", authHandlers.LogoutHandler())

			// Member profile
			authenticatedGroup.GET("/profile", profileHandlers.GetProfileHandler())
			authenticatedGroup.PUT("/profile", profileHandlers.UpdateProfileHandler())

			// Member's own activity counters
			authenticatedGroup.GET("/stats", statsHandlers.MemberStatsHandler())

			// Forum: tax queries and expert responses
			queriesGroup := authenticatedGroup.Group("/queries")
			{
				queriesGroup.POST("",
					submissionRateLimit,
					middleware.RequireScope(auth.ScopeForumWrite),
					forumHandlers.SubmitQueryHandler())
				queriesGroup.GET("",
					middleware.RequireScope(auth.ScopeForumRead),
					forumHandlers.ListQueriesHandler())
				queriesGroup.GET("/:id",
					middleware.RequireScope(auth.ScopeForumRead),
					forumHandlers.GetQueryHandler())
				queriesGroup.POST("/:id/responses",
					submissionRateLimit,
					middleware.RequireScope(auth.ScopeForumRespond),
					forumHandlers.SubmitResponseHandler())
				queriesGroup.POST("/:id/escalate",
					middleware.RequireScope(auth.ScopeForumModerate),
					forumHandlers.EscalateQueryHandler())
			}

			// Forum moderation
			moderationGroup := authenticatedGroup.Group("/moderation")
			moderationGroup.Use(middleware.RequireScope(auth.ScopeForumModerate))
			{
				moderationGroup.GET("/responses", forumHandlers.ListPendingResponsesHandler())
				moderationGroup.POST("/responses/:id/approve", forumHandlers.ApproveResponseHandler())
				moderationGroup.POST("/responses/:id/reject", forumHandlers.RejectResponseHandler())
			}

			// Content management. Creation and editing need content:write;
			// lifecycle transitions and deletion need content:publish.
			authenticatedGroup.POST("/publications",
				middleware.RequireScope(auth.ScopeContentWrite),
				contentHandlers.CreatePublicationHandler())
			authenticatedGroup.PUT("/publications/:id",
				middleware.RequireScope(auth.ScopeContentWrite),
				contentHandlers.UpdatePublicationHandler())
			authenticatedGroup.POST("/publications/:id/publish",
				middleware.RequireScope(auth.ScopeContentPublish),
				contentHandlers.PublishPublicationHandler())
			authenticatedGroup.POST("/publications/:id/unpublish",
				middleware.RequireScope(auth.ScopeContentPublish),
				contentHandlers.UnpublishPublicationHandler())
			authenticatedGroup.DELETE("/publications/:id",
				middleware.RequireScope(auth.ScopeContentPublish),
				contentHandlers.DeletePublicationHandler())

			authenticatedGroup.POST("/events",
				middleware.RequireScope(auth.ScopeContentWrite),
				contentHandlers.CreateEventHandler())
			authenticatedGroup.PUT("/events/:id",
				middleware.RequireScope(auth.ScopeContentWrite),
				contentHandlers.UpdateEventHandler())
			authenticatedGroup.POST("/events/:id/publish",
				middleware.RequireScope(auth.ScopeContentPublish),
				contentHandlers.PublishEventHandler())
			authenticatedGroup.POST("/events/:id/unpublish",
				middleware.RequireScope(auth.ScopeContentPublish),
				contentHandlers.UnpublishEventHandler())
			authenticatedGroup.DELETE("/events/:id",
				middleware.RequireScope(auth.ScopeContentPublish),
				contentHandlers.DeleteEventHandler())

			authenticatedGroup.POST("/announcements",
				middleware.RequireScope(auth.ScopeContentWrite),
				contentHandlers.CreateAnnouncementHandler())
			authenticatedGroup.PUT("/announcements/:id",
				middleware.RequireScope(auth.ScopeContentWrite),
				contentHandlers.UpdateAnnouncementHandler())
			authenticatedGroup.POST("/announcements/:id/publish",
				middleware.RequireScope(auth.ScopeContentPublish),
				contentHandlers.PublishAnnouncementHandler())
			authenticatedGroup.POST("/announcements/:id/unpublish",
				middleware.RequireScope(auth.ScopeContentPublish),
				contentHandlers.UnpublishAnnouncementHandler())
			authenticatedGroup.DELETE("/announcements/:id",
				middleware.RequireScope(auth.ScopeContentPublish),
				contentHandlers.DeleteAnnouncementHandler())

			// Event registration
			authenticatedGroup.POST("/events/:id/register",
				middleware.RequireScope(auth.ScopeEventsRegister),
				contentHandlers.RegisterHandler())
			authenticatedGroup.DELETE("/events/:id/register",
				middleware.RequireScope(auth.ScopeEventsRegister),
				contentHandlers.CancelRegistrationHandler())
			authenticatedGroup.GET("/events/registrations",
				middleware.RequireScope(auth.ScopeEventsRegister),
				contentHandlers.MyRegistrationsHandler())
			authenticatedGroup.GET("/events/:id/registrations",
				middleware.RequireScope(auth.ScopeContentWrite),
				contentHandlers.ListEventRegistrationsHandler())

			// Helpdesk
			ticketsGroup := authenticatedGroup.Group("/tickets")
			{
				ticketsGroup.POST("",
					submissionRateLimit,
					middleware.RequireScope(auth.ScopeTicketsCreate),
					helpdeskHandlers.CreateTicketHandler())
				ticketsGroup.GET("",
					middleware.RequireScope(auth.ScopeTicketsCreate),
					helpdeskHandlers.ListTicketsHandler())
				ticketsGroup.GET("/:id",
					middleware.RequireScope(auth.ScopeTicketsCreate),
					helpdeskHandlers.GetTicketHandler())
				ticketsGroup.PUT("/:id/status",
					middleware.RequireScope(auth.ScopeTicketsManage),
					helpdeskHandlers.UpdateStatusHandler())
				ticketsGroup.PUT("/:id/assign",
					middleware.RequireScope(auth.ScopeTicketsManage),
					helpdeskHandlers.AssignTicketHandler())
				ticketsGroup.PUT("/:id/priority",
					middleware.RequireScope(auth.ScopeTicketsManage),
					helpdeskHandlers.UpdatePriorityHandler())
			}

			// Notifications (always scoped to the session user)
			notificationsGroup := authenticatedGroup.Group("/notifications")
			{
				notificationsGroup.GET("", notificationHandlers.ListHandler())
				notificationsGroup.GET("/unread-count", notificationHandlers.UnreadCountHandler())
				notificationsGroup.PUT("/:id/read", notificationHandlers.MarkReadHandler())
				notificationsGroup.PUT("/read-all", notificationHandlers.MarkAllReadHandler())
			}

			// User administration
			usersGroup := authenticatedGroup.Group("/admin/users")
			{
				usersGroup.GET("",
					middleware.RequireScope(auth.ScopeUsersRead),
					userHandlers.ListUsersHandler())
				usersGroup.GET("/search",
					middleware.RequireScope(auth.ScopeUsersRead),
					userHandlers.SearchUsersHandler())
				usersGroup.GET("/:id",
					middleware.RequireScope(auth.ScopeUsersRead),
					userHandlers.GetUserHandler())
				usersGroup.POST("",
					middleware.RequireScope(auth.ScopeUsersWrite),
					userHandlers.CreateUserHandler())
				usersGroup.PUT("/:id/active",
					middleware.RequireScope(auth.ScopeUsersWrite),
					userHandlers.SetActiveHandler())
				usersGroup.DELETE("/:id",
					middleware.RequireScope(auth.ScopeUsersWrite),
					userHandlers.DeleteUserHandler())
				usersGroup.PUT("/:id/role",
					middleware.RequireScope(auth.ScopeRolesManage),
					userHandlers.AssignRoleHandler())
			}
			authenticatedGroup.GET("/admin/roles",
				middleware.RequireScope(auth.ScopeRolesManage),
				userHandlers.ListRolesHandler())

			// Audit trail
			authenticatedGroup.GET("/admin/audit-logs",
				middleware.RequireScope(auth.ScopeAuditRead),
				auditHandlers.ListAuditLogsHandler())
			authenticatedGroup.GET("/admin/audit-logs/:id",
				middleware.RequireScope(auth.ScopeAuditRead),
				auditHandlers.GetAuditLogHandler())

			// Staff dashboard
			authenticatedGroup.GET("/admin/stats",
				middleware.RequireScope(auth.ScopeUsersRead),
				statsHandlers.DashboardStatsHandler())
		}
	}

	bg := &BackgroundServices{
		expiryJob:    expiryJob,
		rateLimiters: inMemoryLimiters,
		redisClient:  redisClient,
	}

	return router, bg
}

// registerSwaggerRoutes serves the Swagger UI from CDN and the embedded
// OpenAPI document.
func registerSwaggerRoutes(router *gin.Engine) {
	serveSwaggerUI := func(c *gin.Context) {
		// Generate a per-request nonce for CSP
		nb := make([]byte, 16)
		if _, err := rand.Read(nb); err != nil {
			c.String(http.StatusInternalServerError, "failed to generate nonce")
			return
		}
		nonce := base64.StdEncoding.EncodeToString(nb)

		// Allow same-origin framing so the portal frontend can embed this page
		c.Header("X-Frame-Options", "SAMEORIGIN")

		// Nonce-based Content Security Policy allowing the generated nonce
		// for inline scripts and styles while keeping the global API CSP
		// strict.
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Header("Content-Security-Policy", fmt.Sprintf(
			"default-src 'self' https:; script-src 'self' 'nonce-%s' https:; style-src 'self' 'nonce-%s' https:; img-src 'self' data: https:; font-src 'self' https:; connect-src 'self' https:",
			nonce, nonce,
		))

		html := fmt.Sprintf(`<!DOCTYPE html>
<html>
	<head>
		<title>Swagger UI</title>
		<meta charset="utf-8"/>
		<meta name="viewport" content="width=device-width, initial-scale=1">
		<link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/swagger-ui/4.15.5/swagger-ui.min.css">
		<style nonce="%s">
			html{
				box-sizing: border-box;
				overflow: -moz-scrollbars-vertical;
				overflow-y: scroll;
			}
			*,
			*:before,
			*:after{
				box-sizing: inherit;
			}
			body {
				font-family: sans-serif;
			}
		</style>
	</head>

	<body>
		<div id="swagger-ui"></div>

		<script src="https://cdnjs.cloudflare.com/ajax/libs/swagger-ui/4.15.5/swagger-ui-bundle.min.js" crossorigin></script>
		<script src="https://cdnjs.cloudflare.com/ajax/libs/swagger-ui/4.15.5/swagger-ui-standalone-preset.min.js" crossorigin></script>
		<script nonce="%s">
		window.onload = function() {
			const ui = SwaggerUIBundle({
				url: "/swagger.json",
				dom_id: '#swagger-ui',
				deepLinking: true,
				presets: [
					SwaggerUIBundle.presets.apis,
					SwaggerUIBundle.SwaggerUIStandalonePreset
				],
				plugins: [
					SwaggerUIBundle.plugins.DownloadUrl
				],
				layout: "BaseLayout",
				docExpansion: "list"
			})
			window.ui = ui
		}
	</script>
	</body>
</html>`, nonce, nonce)

		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	}

	// Register both exact and trailing-slash routes for Swagger UI
	router.GET("/api-docs/index.html", serveSwaggerUI)
	router.GET("/api-docs/", serveSwaggerUI)
	// Redirect /api-docs -> /api-docs/
	router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/api-docs/")
	})

	// Raw OpenAPI document
	router.GET("/swagger.json", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Data(http.StatusOK, "application/json", docs.SwaggerJSON)
	})
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks database connectivity and, when configured, Redis.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, checks, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "ready: false, checks, error"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service. Unlike the
// liveness probe (/health), this also checks Redis when distributed rate
// limiting is enabled, so a readiness gate fails when requests would error.
func readinessHandler(db *sql.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		// Check database connection
		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				checks["redis"] = "unhealthy"
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"ready":  false,
					"checks": checks,
					"error":  "redis not ready",
				})
				return
			}
			checks["redis"] = "healthy"
		}

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		// Log the request
		if cfg.Logging.Format == "json" {
			logJSON(c, latency, path, query)
		} else {
			logText(c, latency, path, query)
		}
	}
}

// logJSON logs a request as a JSON-structured slog record.
func logJSON(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", fmt.Sprintf("%v", requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// logText logs a request as a human-readable slog text record.
func logText(c *gin.Context, latency time.Duration, path, query string) {
	// reuse the same structured output; slog will emit text format when the
	// global handler is a TextHandler (configured in telemetry.SetupLogger).
	logJSON(c, latency, path, query)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
