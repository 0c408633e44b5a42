package wire

import (
	"Hydro/internal/api"
	"Hydro/internal/api/config"
	"Hydro/internal/api/handler"
	"Hydro/internal/job"
	"Hydro/internal/pkg/barcode"
	"Hydro/internal/pkg/cron"
	"Hydro/internal/pkg/llm"
	"Hydro/internal/pkg/minio"
	"Hydro/internal/pkg/mongo"
	"Hydro/internal/pkg/redis"
	"Hydro/internal/pkg/security"
	"Hydro/internal/repository"
	"Hydro/internal/service"
	"context"

	"github.com/gin-gonic/gin"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	DB      *gorm.DB
	CronMgr *cron.Manager
}

func BuildApplication(ctx context.Context, db *gorm.DB, mongoDB *mongodrv.Database, cfg *config.Config) (*ApplicationContainer, error) {
	// Repository
	userRepo := repository.NewUserRepo(db)
	settingsRepo := repository.NewUserSettingsRepo(db)
	entryRepo := repository.NewWaterEntryRepo(db)
	aggRepo := repository.NewAggregateRepo(db)
	barcodeRepo := repository.NewBarcodeRepo(db)
	favoriteRepo := repository.NewFavoriteRepo(db)
	jobRepo := repository.NewJobRepo(db)
	storageRepo := repository.NewStorageRepo(db)

	// 基础设施
	store := redis.NewStore()
	images := minio.NewImageStore(cfg.MinIO)
	tokens, err := security.NewTokenManager(cfg.Security)
	if err != nil {
		return nil, err
	}
	model, err := llm.NewModel(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	var analysisLogs mongo.AnalysisLogRepo
	analysisLogService := service.NewAnalysisLogService(nil)
	if mongoDB != nil {
		analysisLogs = mongo.NewAnalysisLogRepo(mongoDB, cfg.Mongo.Collection)
		analysisLogService = service.NewAnalysisLogService(analysisLogs)
	}
	analyzer := llm.NewAnalyzer(model, cfg.LLM, analysisLogs)

	// Service
	userService := service.NewUserService(userRepo, tokens, store)
	settingsService := service.NewSettingsService(settingsRepo, store)
	favoriteService := service.NewFavoriteService(favoriteRepo)
	rateLimitService := service.NewRateLimitService(settingsRepo, cfg.Limits)
	analysisService := service.NewAnalysisService(
		settingsRepo,
		barcodeRepo,
		rateLimitService,
		analyzer,
		images,
		barcode.NewDetector(cfg.Vision),
		barcode.NewProductLookup(cfg.OpenFoodFacts),
	)
	jobService := service.NewJobService(jobRepo, storageRepo, cfg.Queue, cfg.Worker)
	cleanupService := service.NewCleanupService(settingsRepo, entryRepo, aggRepo, storageRepo, store, store, cfg.Retention.Days)
	waterService := service.NewWaterService(settingsRepo, entryRepo, aggRepo, favoriteRepo, cleanupService, jobService, store)
	storageService := service.NewStorageService(storageRepo, images)
	service.RegisterJobHandlers(jobService, cleanupService)

	handlers := &api.HandlersGroup{
		UserHandler:     handler.NewUserHandler(userService, settingsService, cfg.Security),
		AnalysisHandler: handler.NewAnalysisHandler(analysisService, analysisLogService),
		WaterHandler:    handler.NewWaterHandler(waterService, cleanupService),
		FavoriteHandler: handler.NewFavoriteHandler(favoriteService),
		WorkerHandler:   handler.NewWorkerHandler(jobService, storageService),
		UserService:     userService,
	}

	router := api.SetupRouter(handlers, cfg)

	cronMgr := cron.NewCronManager(
		cfg,
		job.NewWorkerJob(jobService, cfg.Worker.BatchSize),
		job.NewJobCleanupJob(jobService),
		job.NewRetentionJob(cleanupService, jobService),
	)

	return &ApplicationContainer{
		Router:  router,
		DB:      db,
		CronMgr: cronMgr,
	}, nil
}
