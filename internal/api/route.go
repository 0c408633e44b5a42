package api

import (
	"Hydro/internal/api/config"
	"Hydro/internal/api/middleware"
	"Hydro/internal/pkg/consts"
	"Hydro/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(group *HandlersGroup, cfg *config.Config) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Audit & CORS & Metrics & Logger
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.Security.CORSOrigins))
	r.Use(middleware.MetricsMiddleware())
	logger.SetupGin(r, cfg.Log)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cookieName := cfg.Security.CookieName
	auth := middleware.AuthMiddleware(group.UserService, cookieName)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})

		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/sign-up", group.UserHandler.SignUp)
			authGroup.POST("/sign-in", group.UserHandler.SignIn)
			authGroup.POST("/sign-out", auth, group.UserHandler.SignOut)
		}

		// 需要登录
		userGroup := apiGroup.Group("")
		userGroup.Use(auth)
		{
			userGroup.GET("/user/settings", group.UserHandler.GetSettings)
			userGroup.PUT("/user/settings", group.UserHandler.UpdateSettings)

			userGroup.POST("/analyze-water", group.AnalysisHandler.AnalyzeWater)
			userGroup.POST("/analyze-barcode", group.AnalysisHandler.AnalyzeBarcode)
			userGroup.POST("/analyze-text", group.AnalysisHandler.AnalyzeText)

			userGroup.POST("/water-entries", group.WaterHandler.CreateEntry)
			userGroup.DELETE("/water-entries/:id", group.WaterHandler.DeleteEntry)
			userGroup.POST("/water-today", group.WaterHandler.Today)
			userGroup.GET("/water-history", group.WaterHandler.History)
			userGroup.POST("/cleanup-old-entries", group.WaterHandler.CleanupOldEntries)

			userGroup.GET("/favorites", group.FavoriteHandler.List)
			userGroup.POST("/favorites", group.FavoriteHandler.Create)
			userGroup.DELETE("/favorites/:id", group.FavoriteHandler.Delete)
		}

		// 外部调度器凭密钥调用，管理员也可手动触发
		workerGroup := apiGroup.Group("/worker")
		{
			workerAuth := middleware.WorkerAuth(cfg.Security.WorkerSecret, group.UserService, cookieName)
			workerGroup.POST("/process-jobs", workerAuth, group.WorkerHandler.ProcessJobs)
			workerGroup.POST("/cleanup-jobs", workerAuth, group.WorkerHandler.CleanupJobs)
			workerGroup.POST("/enqueue", auth, middleware.CheckRoles(consts.RoleAdmin), group.WorkerHandler.Enqueue)
		}

		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(auth, middleware.CheckRoles(consts.RoleAdmin))
		{
			adminGroup.GET("/job-stats", group.WorkerHandler.JobStats)
			adminGroup.GET("/storage-breakdown", group.WorkerHandler.StorageBreakdown)
			adminGroup.GET("/analysis-logs", group.AnalysisHandler.RecentLogs)
		}
	}

	return r
}
