package app

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediadesk.io/courier/internal/api/handlers"
	"mediadesk.io/courier/internal/api/middleware"
	"mediadesk.io/courier/internal/config"
	"mediadesk.io/courier/internal/pkg/logger"
)

// defaultAllowedOrigins is used when server.allowed_origins is empty.
var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// RouterDeps are the inputs of newRouter.
type RouterDeps struct {
	Config    *config.Config
	Server    *handlers.Server
	JWT       middleware.JWTConfig
	Validator gin.HandlerFunc
}

func newRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(buildCORSConfig(deps.Config)))
	if deps.Validator != nil {
		router.Use(deps.Validator)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s := deps.Server
	v1 := router.Group("/api/v1")

	v1.GET("/health/live", s.GetLiveness)
	v1.GET("/health/ready", s.GetReadiness)

	v1.POST("/jobs/retention-scan", middleware.CronOrAdmin(deps.Config.Security.CronSecret, deps.JWT), s.RunRetentionScan)

	authed := v1.Group("", middleware.JWTAuth(deps.JWT))

	admin := authed.Group("", middleware.RequireRole(middleware.RoleAdmin))
	admin.GET("/admin/notification-settings", s.GetNotificationSettings)
	admin.PUT("/admin/notification-settings", s.PutNotificationSettings)
	admin.GET("/admin/site-contact", s.GetSiteContact)
	admin.PUT("/admin/site-contact", s.PutSiteContact)
	admin.POST("/admin/notifications/preview", s.PreviewNotification)
	admin.GET("/admin/media/:media_id/dependencies", s.GetMediaDependencies)
	admin.DELETE("/admin/media/:media_id", s.DeleteMedia)
	admin.POST("/notifications/dispatch", s.DispatchNotification)
	admin.GET("/admin/log-level", gin.WrapH(logger.Level()))
	admin.PUT("/admin/log-level", gin.WrapH(logger.Level()))

	me := authed.Group("/me", middleware.RequireRole(middleware.RoleClient, middleware.RoleAdmin))
	me.GET("/notification-preferences", s.GetMyPreferences)
	me.PUT("/notification-preferences", s.PutMyPreferences)

	return router
}

// buildCORSConfig derives the CORS policy. A wildcard origin is only
// honoured with server.unsafe_allow_all_origins, and then without
// credentials.
func buildCORSConfig(cfg *config.Config) cors.Config {
	out := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.CronSecretHeader},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: cfg.Server.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	origins := cfg.Server.AllowedOrigins
	if cfg.Server.UnsafeAllowAllOrigins && slices.Contains(origins, "*") {
		out.AllowAllOrigins = true
		out.AllowCredentials = false
		return out
	}

	out.AllowOrigins = slices.DeleteFunc(slices.Clone(origins), func(o string) bool { return o == "*" || o == "" })
	if len(out.AllowOrigins) == 0 {
		out.AllowOrigins = slices.Clone(defaultAllowedOrigins)
	}
	return out
}
